package types

import "github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"

// StartSessionInput opens a wizard for a production, optionally seeded from a saved order.
type StartSessionInput struct {
	ProductionID string
	Partial      *domain.OrderState
}

// SetFieldInput carries a generic contact-info field change.
type SetFieldInput struct {
	Name  string
	Value string
}

// PayInput starts tokenization with a client-side card source.
type PayInput struct {
	Source string
}

// PaymentFailedInput reports a processor-side decline.
type PaymentFailedInput struct {
	Reason string
}
