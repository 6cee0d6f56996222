package ports

import (
	"context"
	"time"

	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// Service exposes the checkout wizard use cases to adapters (inbound/driving port).
type Service interface {
	StartSession(ctx context.Context, input checkouttypes.StartSessionInput) (*checkouttypes.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error)
	SelectQuantity(ctx context.Context, sessionID, quantityID string) (*checkouttypes.SessionView, error)
	SetOrderDetails(ctx context.Context, sessionID string, details domain.OrderDetails) (*checkouttypes.SessionView, error)
	SetField(ctx context.Context, sessionID string, input checkouttypes.SetFieldInput) (*checkouttypes.SessionView, error)
	Advance(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error)
	Retreat(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error)
	JumpTo(ctx context.Context, sessionID string, step domain.Step) (*checkouttypes.SessionView, error)
	Reset(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error)
	Pay(ctx context.Context, sessionID string, input checkouttypes.PayInput) (*checkouttypes.SessionView, error)
	CheckoutStarted(ctx context.Context, sessionID string, token domain.PaymentToken) (*checkouttypes.SessionView, error)
	PaymentSucceeded(ctx context.Context, sessionID string, confirmation domain.PaymentConfirmation) (*checkouttypes.SessionView, error)
	PaymentFailed(ctx context.Context, sessionID string, input checkouttypes.PaymentFailedInput) (*checkouttypes.SessionView, error)
	CloseSession(ctx context.Context, sessionID string) error
	PurgeAbandoned(ctx context.Context, before time.Time) (int, error)
}
