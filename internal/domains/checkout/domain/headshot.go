package domain

// HeadshotStatus enumerates the lifecycle of a headshot record on the remote API.
type HeadshotStatus string

const (
	HeadshotStatusDraft HeadshotStatus = "Draft"
)

// DraftHeadshot is the provisional order line created when the contact step completes.
type DraftHeadshot struct {
	ID       string
	FileName string
	ImageURL string
	Status   HeadshotStatus
}

// HeadshotDraftRequest carries the fields sent to create a draft headshot.
type HeadshotDraftRequest struct {
	Email      string
	FileName   string
	QuantityID string
	Status     HeadshotStatus
}
