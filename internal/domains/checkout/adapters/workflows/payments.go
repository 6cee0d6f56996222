package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	paymentsadapter "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/external/payments"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	checkoutworkflows "github.com/Apurer/headshot-checkout/internal/platform/temporal/workflows/checkout"
)

var (
	_ ports.PaymentGateway = (*TemporalPayments)(nil)
	_ ports.PaymentGateway = (*InlinePayments)(nil)
)

// TemporalPayments tokenizes directly and confirms charges through a Temporal workflow.
type TemporalPayments struct {
	client    client.Client
	direct    ports.PaymentGateway
	taskQueue string
}

// NewTemporalPayments wires a Temporal client in front of the direct payment gateway.
func NewTemporalPayments(c client.Client, direct ports.PaymentGateway) *TemporalPayments {
	return &TemporalPayments{client: c, direct: direct, taskQueue: checkoutworkflows.PaymentTaskQueue}
}

func (o *TemporalPayments) Tokenize(ctx context.Context, req domain.PaymentRequest) (domain.PaymentToken, error) {
	if o == nil || o.direct == nil {
		return domain.PaymentToken{}, errors.New("temporal payments not configured")
	}
	return o.direct.Tokenize(ctx, req)
}

// Confirm starts the confirmation workflow and waits for its result. A second
// attempt with the same token joins the running workflow.
func (o *TemporalPayments) Confirm(ctx context.Context, token domain.PaymentToken, req domain.PaymentRequest) (*domain.PaymentConfirmation, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal payments not configured")
	}
	workflowID := buildPaymentWorkflowID(token, req)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.PaymentConfirmationWorkflowName,
		checkoutworkflows.PaymentConfirmationWorkflowInput{Token: token, Request: req, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var confirmation domain.PaymentConfirmation
	if err := run.Get(ctx, &confirmation); err != nil {
		return nil, fmt.Errorf("payment confirmation workflow: %w", err)
	}
	return &confirmation, nil
}

// InlinePayments calls the payment gateway directly without Temporal, useful for tests or dev fallbacks.
type InlinePayments struct {
	direct ports.PaymentGateway
}

func NewInlinePayments(direct ports.PaymentGateway) *InlinePayments {
	return &InlinePayments{direct: direct}
}

func (o *InlinePayments) Tokenize(ctx context.Context, req domain.PaymentRequest) (domain.PaymentToken, error) {
	if o == nil || o.direct == nil {
		return domain.PaymentToken{}, errors.New("inline payments not configured")
	}
	return o.direct.Tokenize(ctx, req)
}

func (o *InlinePayments) Confirm(ctx context.Context, token domain.PaymentToken, req domain.PaymentRequest) (*domain.PaymentConfirmation, error) {
	if o == nil || o.direct == nil {
		return nil, errors.New("inline payments not configured")
	}
	return o.direct.Confirm(ctx, token, req)
}

func buildPaymentWorkflowID(token domain.PaymentToken, req domain.PaymentRequest) string {
	return fmt.Sprintf("payment-confirmation-%s", hashIdempotencyKey(paymentsadapter.IdempotencyKey(token, req)))
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
