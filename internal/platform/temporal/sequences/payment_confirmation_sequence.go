package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutactivities "github.com/Apurer/headshot-checkout/internal/platform/temporal/activities/checkout"
)

// RunPaymentConfirmationSequence confirms a tokenized charge with bounded retries.
func RunPaymentConfirmationSequence(ctx workflow.Context, input checkoutactivities.ConfirmPaymentInput) (*domain.PaymentConfirmation, error) {
	logger := workflow.GetLogger(ctx)
	sessionID := input.Request.SessionID
	logger.Info("payment confirmation sequence started", "sessionId", sessionID)
	confirmOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		HeartbeatTimeout:    10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{checkoutactivities.DeclinedErrorType},
		},
	}

	var confirmation domain.PaymentConfirmation
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, confirmOptions), checkoutactivities.ConfirmPaymentActivityName, input).Get(ctx, &confirmation)
	if err != nil {
		logger.Error("payment confirmation sequence failed", "sessionId", sessionID, "error", err)
		return nil, err
	}
	logger.Info("payment confirmation sequence completed", "sessionId", sessionID, "paymentId", confirmation.ID)
	return &confirmation, nil
}
