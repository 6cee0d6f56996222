package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/headshot-checkout/internal/app/api"
	paymentclient "github.com/Apurer/headshot-checkout/internal/clients/http/payments"
	paymentsadapter "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/external/payments"
	platformobservability "github.com/Apurer/headshot-checkout/internal/platform/observability"
	checkoutactivities "github.com/Apurer/headshot-checkout/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/headshot-checkout/internal/platform/temporal/workflows/checkout"
)

func main() {
	ctx := context.Background()
	const serviceName = "headshot-checkout-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	paymentAPI, err := paymentclient.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, nil)
	if err != nil {
		logger.Error("failed to create payment client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	paymentActivities := checkoutactivities.NewActivities(paymentsadapter.NewGateway(paymentAPI))

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, checkoutworkflows.PaymentTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.PaymentConfirmationWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.PaymentConfirmationWorkflowName})
	w.RegisterActivityWithOptions(paymentActivities.ConfirmPayment, activity.RegisterOptions{Name: checkoutactivities.ConfirmPaymentActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.PaymentTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
