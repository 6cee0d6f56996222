package ports

import (
	"context"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

// ProductionGateway is the remote production API (outbound/driven port).
type ProductionGateway interface {
	GetProduction(ctx context.Context, id string) (*domain.Production, error)
	CreateHeadshot(ctx context.Context, req domain.HeadshotDraftRequest) (*domain.DraftHeadshot, error)
	DeleteHeadshot(ctx context.Context, id string) error
}

// PaymentGateway tokenizes a card source and confirms the charge.
type PaymentGateway interface {
	Tokenize(ctx context.Context, req domain.PaymentRequest) (domain.PaymentToken, error)
	Confirm(ctx context.Context, token domain.PaymentToken, req domain.PaymentRequest) (*domain.PaymentConfirmation, error)
}

// NavigationGateway tells the host application to switch screens.
type NavigationGateway interface {
	Navigate(ctx context.Context, req domain.NavigationRequest) error
}
