package payments

import (
	"context"
	"errors"
	"fmt"

	paymentclient "github.com/Apurer/headshot-checkout/internal/clients/http/payments"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// Gateway implements the payment port over the card processor API.
type Gateway struct {
	client *paymentclient.Client
}

func NewGateway(client *paymentclient.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Tokenize(ctx context.Context, req domain.PaymentRequest) (domain.PaymentToken, error) {
	if g == nil || g.client == nil {
		return domain.PaymentToken{}, errors.New("payment gateway not configured")
	}
	token, err := g.client.CreateToken(ctx, paymentclient.CreateTokenJSONRequestBody{Source: req.Source, Email: req.Email})
	if err != nil {
		return domain.PaymentToken{}, err
	}
	return domain.PaymentToken{ID: token.ID}, nil
}

// Confirm charges the token. Retries with the same token reuse one idempotency key;
// a new card after a decline is tokenized again and gets a fresh key.
func (g *Gateway) Confirm(ctx context.Context, token domain.PaymentToken, req domain.PaymentRequest) (*domain.PaymentConfirmation, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("payment gateway not configured")
	}
	body := paymentclient.CreateChargeJSONRequestBody{
		Token:    token.ID,
		Amount:   domain.MinorUnits(req.Amount),
		Currency: req.Currency,
		Metadata: paymentclient.ChargeMetadata{HeadshotID: req.HeadshotID, SessionID: req.SessionID},
	}
	charge, err := g.client.CreateCharge(ctx, body, paymentclient.WithIdempotencyKey(IdempotencyKey(token, req)))
	if err != nil {
		return nil, err
	}
	return &domain.PaymentConfirmation{ID: charge.ID, Status: charge.Status, Paid: charge.Paid}, nil
}

// IdempotencyKey identifies one charge attempt: a session's draft paid with one token.
func IdempotencyKey(token domain.PaymentToken, req domain.PaymentRequest) string {
	return fmt.Sprintf("%s:%s:%s", req.SessionID, req.HeadshotID, token.ID)
}

var _ ports.PaymentGateway = (*Gateway)(nil)
