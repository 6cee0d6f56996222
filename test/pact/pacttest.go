//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "headshot-api"
	ConsumerName = "headshot-checkout"

	StateProductionExists  = "production p-101 with two quantities exists"
	StateProductionMissing = "no production with id p-404"
	StateDraftAccepted     = "drafts can be created"
	StateDraftExists       = "draft headshot h-501 exists"
)

const (
	ExistingProductionID = "p-101"
	MissingProductionID  = "p-404"
	ExistingHeadshotID   = "h-501"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleProductionPayload is the production the checkout renders in contract tests.
func ExampleProductionPayload() map[string]any {
	return map[string]any{
		"id":             ExistingProductionID,
		"title":          "Studio Headshots",
		"overview_image": "https://example.pact/productions/p-101.jpg",
		"production_quantities": []map[string]any{
			{"id": "q-1", "amount": 8, "plus_price": "20.00"},
			{"id": "q-2", "amount": 16, "plus_price": "35.50"},
		},
	}
}

// ExampleDraftPayload is the draft the headshot API returns on creation.
func ExampleDraftPayload() map[string]any {
	return map[string]any{
		"id":                          ExistingHeadshotID,
		"file_name":                   "ada.jpg",
		"cloudinary_image_secure_url": "https://example.pact/headshots/h-501.jpg",
		"status":                      "Draft",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
