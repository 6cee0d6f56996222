package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	headshotclient "github.com/Apurer/headshot-checkout/internal/clients/http/headshots"
	paymentclient "github.com/Apurer/headshot-checkout/internal/clients/http/payments"
	checkoutredis "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/cache/redis"
	headshotsadapter "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/external/headshots"
	paymentsadapter "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/external/payments"
	checkouthttp "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/http"
	checkoutmemory "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/memory"
	checkoutnats "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/messaging/nats"
	checkoutobs "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/observability"
	checkoutpostgres "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/persistence/postgres"
	checkoutworkflows "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/Apurer/headshot-checkout/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/headshot-checkout/internal/platform/migrations"
	"github.com/Apurer/headshot-checkout/internal/platform/natsbus"
	platformobservability "github.com/Apurer/headshot-checkout/internal/platform/observability"
	platformpostgres "github.com/Apurer/headshot-checkout/internal/platform/postgres"
)

const serviceName = "headshot-checkout-api"

// Run boots the checkout HTTP API with observability, gateways, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	productions, cleanupProductions, err := buildProductionGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupProductions()
	store, cleanupStore := buildStateStore(ctx, cfg, logger)
	defer cleanupStore()
	navigator, cleanupNavigator := buildNavigator(cfg, logger)
	defer cleanupNavigator()
	payments, cleanupPayments := buildPaymentGateway(cfg, instruments)
	defer cleanupPayments()

	coreService := checkoutapp.NewService(checkoutapp.Dependencies{
		Productions: productions,
		Payments:    payments,
		Navigator:   navigator,
		Store:       store,
	},
		checkoutapp.WithLogger(logger),
		checkoutapp.WithCurrency(cfg.PaymentCurrency),
	)
	service := checkoutobs.New(
		coreService,
		checkoutobs.WithLogger(logger),
		checkoutobs.WithTracer(instruments.Tracer("internal.checkout.application")),
		checkoutobs.WithMeter(instruments.Meter("internal.checkout.application")),
	)

	router := checkouthttp.NewRouter(checkouthttp.NewHandler(service), otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("checkout API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("checkout API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func buildProductionGateway(cfg Config, logger *slog.Logger) (checkoutports.ProductionGateway, func(), error) {
	if cfg.HeadshotAPIURL == "" {
		return nil, nil, errors.New("HEADSHOT_API_URL is required")
	}
	apiClient, err := headshotclient.NewHeadshotClient(cfg.HeadshotAPIURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("headshot client: %w", err)
	}
	gateway := headshotsadapter.NewGateway(apiClient)
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, production lookups are not cached")
		return gateway, func() {}, nil
	}
	redisClient := checkoutredis.NewClient(cfg.RedisAddr)
	cache := checkoutredis.NewProductionCache(gateway, redisClient,
		checkoutredis.WithTTL(cfg.CacheTTL()),
		checkoutredis.WithLogger(logger),
	)
	logger.Info("production cache configured with redis", slog.String("addr", cfg.RedisAddr))
	return cache, func() { _ = redisClient.Close() }, nil
}

func buildStateStore(ctx context.Context, cfg Config, logger *slog.Logger) (checkoutports.StateStore, func()) {
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return checkoutmemory.NewStateStore(), cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate checkout schema, keeping sessions in memory", slog.String("error", err.Error()))
		cleanup()
		return checkoutmemory.NewStateStore(), func() {}
	}
	logger.Info("checkout state store configured with postgres")
	return checkoutpostgres.NewStateStore(db), cleanup
}

func buildNavigator(cfg Config, logger *slog.Logger) (checkoutports.NavigationGateway, func()) {
	if cfg.NATSURL == "" {
		logger.Warn("NATS_URL not set, navigation requests are only recorded in memory")
		return checkoutmemory.NewRecorder(), func() {}
	}
	conn, cleanup, err := natsbus.Connect(cfg.NATSURL, serviceName, logger)
	if err != nil {
		logger.Warn("failed to connect to NATS, navigation requests are only recorded in memory", slog.String("error", err.Error()))
		return checkoutmemory.NewRecorder(), func() {}
	}
	logger.Info("navigation requests published to NATS", slog.String("subjectPrefix", checkoutnats.SubjectPrefix))
	return checkoutnats.NewNavigator(conn), cleanup
}

func buildPaymentGateway(cfg Config, instruments *platformobservability.Instruments) (checkoutports.PaymentGateway, func()) {
	logger := effectiveLogger(instruments)
	if cfg.PaymentAPIURL == "" {
		logger.Warn("PAYMENT_API_URL not set, payments are disabled")
		return nil, func() {}
	}
	apiClient, err := paymentclient.NewPaymentClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, nil)
	if err != nil {
		logger.Warn("failed to build payment client, payments are disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	direct := paymentsadapter.NewGateway(apiClient)
	temporalClient, err := connectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal workflows unavailable, confirming payments inline", slog.String("error", err.Error()))
		return checkoutworkflows.NewInlinePayments(direct), func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return checkoutworkflows.NewTemporalPayments(temporalClient, direct), temporalClient.Close
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
