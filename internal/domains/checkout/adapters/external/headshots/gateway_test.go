package headshots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	headshotclient "github.com/Apurer/headshot-checkout/internal/clients/http/headshots"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := headshotclient.NewHeadshotClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return NewGateway(client)
}

func TestGateway_GetProductionMapsQuantities(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"title":" Studio ","production_quantities":[{"id":1,"amount":8,"plus_price":"20.00"}]}`))
	})

	production, err := gw.GetProduction(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, "7", production.ID)
	require.Equal(t, "Studio", production.Title)

	pricing := domain.ResolvePricing(production, "1")
	require.Equal(t, int32(8), pricing.Amount)
	require.Equal(t, "20", pricing.Price.String())
}

func TestGateway_CreateHeadshotMapsDraft(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"h1","file_name":"ada.jpg","cloudinary_image_secure_url":"https://cdn/ada.jpg","status":"Draft"}`))
	})

	draft, err := gw.CreateHeadshot(context.Background(), domain.HeadshotDraftRequest{Email: "ada@example.com", FileName: "ada.jpg", QuantityID: "1"})
	require.NoError(t, err)
	require.Equal(t, &domain.DraftHeadshot{ID: "h1", FileName: "ada.jpg", ImageURL: "https://cdn/ada.jpg", Status: domain.HeadshotStatusDraft}, draft)
}

func TestGateway_DeleteMissingDraftSucceeds(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, gw.DeleteHeadshot(context.Background(), "gone"))
}

func TestGateway_DeleteFailurePropagates(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	require.Error(t, gw.DeleteHeadshot(context.Background(), "h1"))
}

func TestToCreateBody_DefaultsToDraft(t *testing.T) {
	body := ToCreateBody(domain.HeadshotDraftRequest{Email: "a", FileName: "b", QuantityID: "q"})
	require.Equal(t, "Draft", body.Status)
	require.Equal(t, "q", body.Quantity)
}
