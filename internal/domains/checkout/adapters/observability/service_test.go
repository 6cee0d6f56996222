package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	checkoutapp "github.com/Apurer/headshot-checkout/internal/domains/checkout/application"
	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// stubService answers every call with the same view or error.
type stubService struct {
	checkoutports.Service
	view *checkouttypes.SessionView
	err  error
}

func (s stubService) Advance(context.Context, string) (*checkouttypes.SessionView, error) {
	return s.view, s.err
}

func (s stubService) Pay(context.Context, string, checkouttypes.PayInput) (*checkouttypes.SessionView, error) {
	return s.view, s.err
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	return totals
}

func TestService_RecordsTransitions(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	view := &checkouttypes.SessionView{State: domain.OrderState{SessionID: "s1", Step: domain.StepInfo}}
	svc := New(stubService{view: view}, WithMeter(meter))

	_, err := svc.Advance(context.Background(), "s1")
	require.NoError(t, err)

	totals := collect(t, reader)
	require.Equal(t, int64(1), totals["checkout.service.transitions"])
	require.Zero(t, totals["checkout.service.failures"])
}

func TestService_LogsFailureKind(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	failure := &checkoutapp.CheckoutError{Kind: domain.ErrorKindPaymentFailed, Err: context.DeadlineExceeded}
	svc := New(stubService{err: failure}, WithMeter(meter), WithLogger(logger))

	_, err := svc.Pay(context.Background(), "s1", checkouttypes.PayInput{Source: "src"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "ERROR", entry["level"])
	require.Equal(t, string(domain.ErrorKindPaymentFailed), entry["error.kind"])

	totals := collect(t, reader)
	require.Equal(t, int64(1), totals["checkout.service.failures"])
	require.Equal(t, int64(1), totals["checkout.service.payments"])
}
