package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/shared/projection"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// StateStore persists order snapshots after every step transition.
type StateStore interface {
	Save(ctx context.Context, state domain.OrderState) error
	Load(ctx context.Context, sessionID string) (*projection.Projection[domain.OrderState], error)
	Delete(ctx context.Context, sessionID string) error
	// ListStale returns unpaid sessions last updated before the cutoff.
	ListStale(ctx context.Context, before time.Time) ([]domain.OrderState, error)
}

// NoopStateStore discards snapshots; useful when the host persists state itself.
var NoopStateStore StateStore = noopStateStore{}

type noopStateStore struct{}

func (noopStateStore) Save(context.Context, domain.OrderState) error { return nil }
func (noopStateStore) Load(context.Context, string) (*projection.Projection[domain.OrderState], error) {
	return nil, ErrSessionNotFound
}
func (noopStateStore) Delete(context.Context, string) error { return nil }
func (noopStateStore) ListStale(context.Context, time.Time) ([]domain.OrderState, error) {
	return nil, nil
}
