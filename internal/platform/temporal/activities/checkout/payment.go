package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	paymentclient "github.com/Apurer/headshot-checkout/internal/clients/http/payments"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

const (
	// ConfirmPaymentActivityName charges a tokenized card for a draft headshot.
	ConfirmPaymentActivityName = "checkout.activities.ConfirmPayment"
	// DeclinedErrorType marks processor refusals, which are never retried.
	DeclinedErrorType = "PaymentDeclined"
)

// ConfirmPaymentInput is the activity payload.
type ConfirmPaymentInput struct {
	Token   domain.PaymentToken
	Request domain.PaymentRequest
}

// Activities groups activities that call the card processor.
type Activities struct {
	payments checkoutports.PaymentGateway
}

// NewActivities wires the direct payment gateway into the Temporal activities bundle.
func NewActivities(payments checkoutports.PaymentGateway) *Activities {
	return &Activities{payments: payments}
}

// ConfirmPayment charges the token. A confirmed charge is remembered in the heartbeat
// so a retried attempt does not charge twice.
func (a *Activities) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*domain.PaymentConfirmation, error) {
	logger := activity.GetLogger(ctx)
	sessionID := input.Request.SessionID
	if a == nil || a.payments == nil {
		logger.Error("confirm payment activity not initialized", "sessionId", sessionID)
		return nil, errors.New("confirm payment activity not initialized")
	}

	var hb confirmHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Confirmation != nil {
		logger.Info("ConfirmPayment already completed in prior attempt", "sessionId", sessionID, "paymentId", hb.Confirmation.ID)
		return hb.Confirmation, nil
	}

	logger.Info("ConfirmPayment activity started", "sessionId", sessionID, "headshotId", input.Request.HeadshotID)
	confirmation, err := a.payments.Confirm(ctx, input.Token, input.Request)
	if err != nil {
		logger.Error("ConfirmPayment activity failed", "sessionId", sessionID, "error", err)
		if errors.Is(err, paymentclient.ErrDeclined) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), DeclinedErrorType, err)
		}
		return nil, err
	}
	if confirmation == nil || !confirmation.Paid {
		status := "no confirmation"
		if confirmation != nil {
			status = confirmation.Status
		}
		msg := fmt.Sprintf("payment not captured: %s", status)
		logger.Error("ConfirmPayment activity declined", "sessionId", sessionID, "status", status)
		return nil, temporal.NewNonRetryableApplicationError(msg, DeclinedErrorType, nil)
	}
	activity.RecordHeartbeat(ctx, confirmHeartbeat{Confirmation: confirmation})
	logger.Info("ConfirmPayment activity completed", "sessionId", sessionID, "paymentId", confirmation.ID)
	return confirmation, nil
}

type confirmHeartbeat struct {
	Confirmation *domain.PaymentConfirmation
}
