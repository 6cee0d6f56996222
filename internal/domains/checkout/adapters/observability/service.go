package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	checkoutapp "github.com/Apurer/headshot-checkout/internal/domains/checkout/application"
	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

const tracerName = "github.com/Apurer/headshot-checkout/internal/domains/checkout/adapters/observability/service"

// Service decorates the checkout service with tracing, logging, and metrics.
type Service struct {
	inner   checkoutports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core checkout service.
func New(inner checkoutports.Service, opts ...Option) checkoutports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) StartSession(ctx context.Context, input checkouttypes.StartSessionInput) (*checkouttypes.SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.StartSession",
		trace.WithAttributes(attribute.String("production.id", input.ProductionID)))
	defer span.End()

	s.logInfo(ctx, "starting checkout session", slog.String("production.id", input.ProductionID))
	result, err := s.inner.StartSession(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, "start", err, "failed to start checkout session",
			slog.String("production.id", input.ProductionID))
	}
	span.SetAttributes(attribute.String("session.id", result.State.SessionID))
	s.logInfo(ctx, "checkout session started", sessionAttrs(result)...)
	return result, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.observe(ctx, "get", "GetSession", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.GetSession(ctx, sessionID)
	})
}

func (s *Service) SelectQuantity(ctx context.Context, sessionID, quantityID string) (*checkouttypes.SessionView, error) {
	return s.observe(ctx, "select_quantity", "SelectQuantity", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.SelectQuantity(ctx, sessionID, quantityID)
	}, attribute.String("quantity.id", quantityID))
}

func (s *Service) SetOrderDetails(ctx context.Context, sessionID string, details domain.OrderDetails) (*checkouttypes.SessionView, error) {
	return s.observe(ctx, "set_order_details", "SetOrderDetails", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.SetOrderDetails(ctx, sessionID, details)
	}, attribute.Int("order.details.count", len(details)))
}

func (s *Service) SetField(ctx context.Context, sessionID string, input checkouttypes.SetFieldInput) (*checkouttypes.SessionView, error) {
	return s.observe(ctx, "set_field", "SetField", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.SetField(ctx, sessionID, input)
	}, attribute.String("field.name", input.Name))
}

func (s *Service) Advance(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.transition(ctx, "advance", "Advance", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.Advance(ctx, sessionID)
	})
}

func (s *Service) Retreat(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.transition(ctx, "retreat", "Retreat", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.Retreat(ctx, sessionID)
	})
}

func (s *Service) JumpTo(ctx context.Context, sessionID string, step domain.Step) (*checkouttypes.SessionView, error) {
	return s.transition(ctx, "jump", "JumpTo", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.JumpTo(ctx, sessionID, step)
	}, attribute.Int("checkout.target_step", int(step)))
}

func (s *Service) Reset(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.transition(ctx, "reset", "Reset", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.Reset(ctx, sessionID)
	})
}

func (s *Service) Pay(ctx context.Context, sessionID string, input checkouttypes.PayInput) (*checkouttypes.SessionView, error) {
	result, err := s.observe(ctx, "pay", "Pay", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.Pay(ctx, sessionID, input)
	})
	s.metrics.recordPayment(ctx, err == nil)
	return result, err
}

func (s *Service) CheckoutStarted(ctx context.Context, sessionID string, token domain.PaymentToken) (*checkouttypes.SessionView, error) {
	return s.observe(ctx, "checkout_started", "CheckoutStarted", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.CheckoutStarted(ctx, sessionID, token)
	})
}

func (s *Service) PaymentSucceeded(ctx context.Context, sessionID string, confirmation domain.PaymentConfirmation) (*checkouttypes.SessionView, error) {
	result, err := s.observe(ctx, "payment_succeeded", "PaymentSucceeded", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.PaymentSucceeded(ctx, sessionID, confirmation)
	}, attribute.String("payment.id", confirmation.ID))
	if err == nil {
		s.metrics.recordPayment(ctx, true)
	}
	return result, err
}

func (s *Service) PaymentFailed(ctx context.Context, sessionID string, input checkouttypes.PaymentFailedInput) (*checkouttypes.SessionView, error) {
	result, err := s.observe(ctx, "payment_failed", "PaymentFailed", sessionID, func(ctx context.Context) (*checkouttypes.SessionView, error) {
		return s.inner.PaymentFailed(ctx, sessionID, input)
	})
	s.metrics.recordPayment(ctx, false)
	return result, err
}

func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CloseSession", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	s.logInfo(ctx, "closing checkout session", slog.String("session.id", sessionID))
	if err := s.inner.CloseSession(ctx, sessionID); err != nil {
		return s.handleError(ctx, span, "close", err, "failed to close checkout session", slog.String("session.id", sessionID))
	}
	s.logInfo(ctx, "checkout session closed", slog.String("session.id", sessionID))
	return nil
}

func (s *Service) PurgeAbandoned(ctx context.Context, before time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.PurgeAbandoned",
		trace.WithAttributes(attribute.String("purge.before", before.UTC().Format(time.RFC3339))))
	defer span.End()

	s.logInfo(ctx, "purging abandoned checkout sessions", slog.Time("before", before))
	purged, err := s.inner.PurgeAbandoned(ctx, before)
	span.SetAttributes(attribute.Int("purge.count", purged))
	if err != nil {
		return purged, s.handleError(ctx, span, "purge", err, "purge finished with errors", slog.Int("purged", purged))
	}
	s.logInfo(ctx, "abandoned checkout sessions purged", slog.Int("purged", purged))
	return purged, nil
}

// transition observes an operation that may move the wizard between steps.
func (s *Service) transition(ctx context.Context, op, name, sessionID string, fn func(context.Context) (*checkouttypes.SessionView, error), attrs ...attribute.KeyValue) (*checkouttypes.SessionView, error) {
	result, err := s.observe(ctx, op, name, sessionID, fn, attrs...)
	if err == nil {
		s.metrics.recordTransition(ctx, op, result.State.Step)
	}
	return result, err
}

func (s *Service) observe(ctx context.Context, op, name, sessionID string, fn func(context.Context) (*checkouttypes.SessionView, error), attrs ...attribute.KeyValue) (*checkouttypes.SessionView, error) {
	attrs = append(attrs, attribute.String("session.id", sessionID))
	ctx, span := s.tracer.Start(ctx, "CheckoutService."+name, trace.WithAttributes(attrs...))
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, op, err, "checkout operation failed",
			slog.String("operation", op), slog.String("session.id", sessionID))
	}
	span.SetAttributes(attribute.String("checkout.step", result.State.Step.String()), attribute.String("checkout.view", string(result.View.Kind)))
	s.logInfo(ctx, "checkout operation completed", append([]slog.Attr{slog.String("operation", op)}, sessionAttrs(result)...)...)
	return result, nil
}

func sessionAttrs(view *checkouttypes.SessionView) []slog.Attr {
	return []slog.Attr{
		slog.String("session.id", view.State.SessionID),
		slog.String("step", view.State.Step.String()),
		slog.String("view", string(view.View.Kind)),
		slog.Bool("paid", view.State.Paid),
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelError
	if isExpected(err) {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, op string, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	kind, _ := checkoutapp.KindOf(err)
	if kind != "" {
		attrs = append(attrs, slog.String("error.kind", string(kind)))
	}
	s.metrics.recordFailure(ctx, op, kind)
	s.logError(ctx, msg, err, attrs...)
	return err
}

// isExpected reports user-driven rejections that are not service faults.
func isExpected(err error) bool {
	return errors.Is(err, checkoutapp.ErrBusy) ||
		errors.Is(err, checkoutapp.ErrPaymentPending) ||
		errors.Is(err, checkoutapp.ErrInvalidInput) ||
		errors.Is(err, checkoutapp.ErrPaymentRequired) ||
		errors.Is(err, checkoutapp.ErrAlreadyPaid) ||
		errors.Is(err, checkoutapp.ErrInvalidStep) ||
		errors.Is(err, checkoutports.ErrSessionNotFound)
}

type serviceMetrics struct {
	transitions metric.Int64Counter
	failures    metric.Int64Counter
	payments    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	transitions, _ := m.Int64Counter("checkout.service.transitions", metric.WithDescription("Number of wizard step transitions"))
	failures, _ := m.Int64Counter("checkout.service.failures", metric.WithDescription("Number of failed checkout operations"))
	payments, _ := m.Int64Counter("checkout.service.payments", metric.WithDescription("Number of payment outcomes"))
	return serviceMetrics{transitions: transitions, failures: failures, payments: payments}
}

func (m serviceMetrics) recordTransition(ctx context.Context, op string, step domain.Step) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op), attribute.String("checkout.step", step.String())))
	}
}

func (m serviceMetrics) recordFailure(ctx context.Context, op string, kind domain.ErrorKind) {
	if m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op), attribute.String("error.kind", string(kind))))
	}
}

func (m serviceMetrics) recordPayment(ctx context.Context, succeeded bool) {
	if m.payments != nil {
		m.payments.Add(ctx, 1, metric.WithAttributes(attribute.Bool("payment.succeeded", succeeded)))
	}
}

var _ checkoutports.Service = (*Service)(nil)
