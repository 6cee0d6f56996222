package checkout

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutactivities "github.com/Apurer/headshot-checkout/internal/platform/temporal/activities/checkout"
	"github.com/Apurer/headshot-checkout/internal/platform/temporal/sequences"
)

const (
	// PaymentConfirmationWorkflowName is the public identifier for registering the workflow.
	PaymentConfirmationWorkflowName = "checkout.workflows.PaymentConfirmation"
	// PaymentTaskQueue is the queue consumed by the worker confirming payments.
	PaymentTaskQueue = "CHECKOUT_PAYMENTS"
)

// PaymentConfirmationWorkflowInput captures the charge to confirm.
type PaymentConfirmationWorkflowInput struct {
	Token   domain.PaymentToken
	Request domain.PaymentRequest
	TraceID string
}

// PaymentConfirmationWorkflow durably confirms a tokenized payment.
func PaymentConfirmationWorkflow(ctx workflow.Context, input PaymentConfirmationWorkflowInput) (*domain.PaymentConfirmation, error) {
	logger := workflow.GetLogger(ctx)
	sessionID := input.Request.SessionID
	logger.Info("PaymentConfirmationWorkflow started", withTraceID(input.TraceID, "sessionId", sessionID)...)
	confirmation, err := sequences.RunPaymentConfirmationSequence(ctx, checkoutactivities.ConfirmPaymentInput{
		Token:   input.Token,
		Request: input.Request,
	})
	if err != nil {
		logger.Error("PaymentConfirmationWorkflow failed", withTraceID(input.TraceID, "sessionId", sessionID, "error", err)...)
		return nil, err
	}
	logger.Info("PaymentConfirmationWorkflow completed", withTraceID(input.TraceID, "sessionId", sessionID, "paymentId", confirmation.ID)...)
	return confirmation, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
