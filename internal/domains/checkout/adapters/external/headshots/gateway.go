package headshots

import (
	"context"
	"errors"

	headshotclient "github.com/Apurer/headshot-checkout/internal/clients/http/headshots"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// Gateway implements the production port over the headshot HTTP API.
type Gateway struct {
	client *headshotclient.Client
}

// NewGateway wires a headshot HTTP client into the production port.
func NewGateway(client *headshotclient.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) GetProduction(ctx context.Context, id string) (*domain.Production, error) {
	if err := g.ensure(); err != nil {
		return nil, err
	}
	production, err := g.client.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProduction(production), nil
}

func (g *Gateway) CreateHeadshot(ctx context.Context, req domain.HeadshotDraftRequest) (*domain.DraftHeadshot, error) {
	if err := g.ensure(); err != nil {
		return nil, err
	}
	created, err := g.client.CreateHeadshot(ctx, ToCreateBody(req))
	if err != nil {
		return nil, err
	}
	return ToDraft(created), nil
}

// DeleteHeadshot treats an already-missing draft as deleted.
func (g *Gateway) DeleteHeadshot(ctx context.Context, id string) error {
	if err := g.ensure(); err != nil {
		return err
	}
	if err := g.client.DeleteHeadshot(ctx, id); err != nil && !errors.Is(err, headshotclient.ErrNotFound) {
		return err
	}
	return nil
}

func (g *Gateway) ensure() error {
	if g == nil || g.client == nil {
		return errors.New("headshot gateway not configured")
	}
	return nil
}

var _ ports.ProductionGateway = (*Gateway)(nil)
