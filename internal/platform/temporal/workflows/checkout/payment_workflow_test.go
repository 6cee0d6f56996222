package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	paymentclient "github.com/Apurer/headshot-checkout/internal/clients/http/payments"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutactivities "github.com/Apurer/headshot-checkout/internal/platform/temporal/activities/checkout"
)

type scriptedPayments struct {
	confirmErrs []error
	calls       int
}

func (p *scriptedPayments) Tokenize(context.Context, domain.PaymentRequest) (domain.PaymentToken, error) {
	return domain.PaymentToken{ID: "tok_1"}, nil
}

func (p *scriptedPayments) Confirm(_ context.Context, token domain.PaymentToken, req domain.PaymentRequest) (*domain.PaymentConfirmation, error) {
	p.calls++
	if len(p.confirmErrs) > 0 {
		err := p.confirmErrs[0]
		p.confirmErrs = p.confirmErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &domain.PaymentConfirmation{ID: "ch_" + token.ID, Status: "succeeded", Paid: true}, nil
}

func runWorkflow(t *testing.T, payments *scriptedPayments) (*domain.PaymentConfirmation, error) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	activities := checkoutactivities.NewActivities(payments)
	env.RegisterActivityWithOptions(activities.ConfirmPayment, activity.RegisterOptions{Name: checkoutactivities.ConfirmPaymentActivityName})

	env.ExecuteWorkflow(PaymentConfirmationWorkflow, PaymentConfirmationWorkflowInput{
		Token: domain.PaymentToken{ID: "tok_1"},
		Request: domain.PaymentRequest{
			SessionID: "s1", HeadshotID: "h1", Amount: decimal.RequireFromString("20.00"), Currency: "usd",
		},
	})
	require.True(t, env.IsWorkflowCompleted())
	if err := env.GetWorkflowError(); err != nil {
		return nil, err
	}
	var confirmation domain.PaymentConfirmation
	require.NoError(t, env.GetWorkflowResult(&confirmation))
	return &confirmation, nil
}

func TestPaymentConfirmationWorkflow_Succeeds(t *testing.T) {
	payments := &scriptedPayments{}

	confirmation, err := runWorkflow(t, payments)
	require.NoError(t, err)
	require.Equal(t, "ch_tok_1", confirmation.ID)
	require.True(t, confirmation.Paid)
	require.Equal(t, 1, payments.calls)
}

func TestPaymentConfirmationWorkflow_RetriesTransientFailures(t *testing.T) {
	payments := &scriptedPayments{confirmErrs: []error{errors.New("timeout"), errors.New("timeout")}}

	confirmation, err := runWorkflow(t, payments)
	require.NoError(t, err)
	require.True(t, confirmation.Paid)
	require.Equal(t, 3, payments.calls)
}

func TestPaymentConfirmationWorkflow_DeclineIsNotRetried(t *testing.T) {
	payments := &scriptedPayments{confirmErrs: []error{fmt.Errorf("%w: insufficient funds", paymentclient.ErrDeclined)}}

	_, err := runWorkflow(t, payments)
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, checkoutactivities.DeclinedErrorType, appErr.Type())
	require.Equal(t, 1, payments.calls)
}
