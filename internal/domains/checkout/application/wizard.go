package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// DefaultCurrency is charged when no currency option is given.
const DefaultCurrency = "usd"

// Dependencies are the collaborators a wizard talks to.
type Dependencies struct {
	Productions ports.ProductionGateway
	Payments    ports.PaymentGateway
	Navigator   ports.NavigationGateway
	Store       ports.StateStore
}

// Wizard owns one in-progress order and its step transitions.
//
// Gateway calls run with the lock released. While one is outstanding every
// mutating operation fails with ErrBusy, and results that arrive after Close
// are dropped by comparing the generation captured when the call started.
// Between CheckoutStarted and the processor's result only PaymentSucceeded
// and PaymentFailed are accepted.
type Wizard struct {
	mu         sync.Mutex
	state      domain.OrderState
	production *domain.Production
	inflight   bool
	closed     bool

	deps Dependencies
	settings
}

type settings struct {
	currency string
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func defaultSettings() settings {
	return settings{
		currency: DefaultCurrency,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Option configures a Wizard or a Service.
type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCurrency(currency string) Option {
	return func(s *settings) {
		if c := strings.TrimSpace(strings.ToLower(currency)); c != "" {
			s.currency = c
		}
	}
}

// WithIDGenerator overrides how new session ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func applyOptions(opts []Option) settings {
	cfg := defaultSettings()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// NewWizard builds a wizard for one session. Call Initialize before any transition.
func NewWizard(sessionID, productionID string, deps Dependencies, opts ...Option) *Wizard {
	return newWizard(sessionID, productionID, deps, applyOptions(opts))
}

func newWizard(sessionID, productionID string, deps Dependencies, cfg settings) *Wizard {
	if deps.Store == nil {
		deps.Store = ports.NoopStateStore
	}
	return &Wizard{
		state: domain.OrderState{
			SessionID:    sessionID,
			ProductionID: productionID,
			Step:         domain.StepQuantity,
		},
		deps:     deps,
		settings: cfg,
	}
}

// restore replaces the order with a saved snapshot before Initialize runs.
func (w *Wizard) restore(state domain.OrderState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state.Clone()
	w.state.Loading = w.state.PaymentPending
}

// Initialize merges the partial order and fetches the production.
func (w *Wizard) Initialize(ctx context.Context, partial *domain.OrderState) error {
	w.mu.Lock()
	if err := w.guardIdleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.state.Merge(partial)
	gen := w.beginLocked()
	productionID := w.state.ProductionID
	w.mu.Unlock()

	production, err := w.fetchProduction(ctx, productionID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.finishLocked(gen) {
		return ErrClosed
	}
	if err != nil {
		return w.failLocked(domain.ErrorKindFetchFailed, err)
	}
	w.production = production.Clone()
	w.state.LastError = nil
	return nil
}

func (w *Wizard) fetchProduction(ctx context.Context, id string) (*domain.Production, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrEmptyProductionID
	}
	if w.deps.Productions == nil {
		return nil, gatewayUnavailable("production")
	}
	production, err := w.deps.Productions.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	if production == nil {
		return nil, fmt.Errorf("production %s: empty response", id)
	}
	return production, nil
}

// SelectQuantity records the chosen pricing tier by id.
func (w *Wizard) SelectQuantity(quantityID string) error {
	return w.mutate(func(s *domain.OrderState) error {
		s.QuantityID = strings.TrimSpace(quantityID)
		return nil
	})
}

// SetOrderDetails replaces the free-form order configuration.
func (w *Wizard) SetOrderDetails(details domain.OrderDetails) error {
	return w.mutate(func(s *domain.OrderState) error {
		s.OrderDetails = details.Clone()
		return nil
	})
}

// SetField assigns a contact-info field by name. Values are not validated.
func (w *Wizard) SetField(name, value string) error {
	return w.mutate(func(s *domain.OrderState) error {
		switch canonicalField(name) {
		case "email":
			s.Email = value
		case "file_name":
			s.FileName = value
		case "upload_image_url":
			s.UploadImageURL = value
		case "has_image":
			hasImage, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("%w: has_image must be a boolean", ErrInvalidInput)
			}
			s.HasImage = hasImage
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		return nil
	})
}

func canonicalField(name string) string {
	switch strings.TrimSpace(name) {
	case "email":
		return "email"
	case "file_name", "fileName":
		return "file_name"
	case "upload_image_url", "uploadImageUrl":
		return "upload_image_url"
	case "has_image", "hasImage":
		return "has_image"
	default:
		return ""
	}
}

// Advance moves the wizard forward one step.
func (w *Wizard) Advance(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guardLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.production == nil {
		w.mu.Unlock()
		return ErrNotLoaded
	}
	switch {
	case w.state.Paid:
		w.state.Completed = true
		w.state.Generation++
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.persist(ctx, snap)
		w.navigate(ctx, domain.ListingNavigation(snap.SessionID))
		return nil
	case w.state.Step == domain.StepInfo:
		return w.createDraftLocked(ctx)
	case w.state.Step >= domain.LastStep:
		w.mu.Unlock()
		return ErrPaymentRequired
	default:
		w.state.Step++
		w.state.Generation++
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.persist(ctx, snap)
		w.enterStep(ctx, snap)
		return nil
	}
}

// createDraftLocked must be entered with w.mu held; it releases it.
func (w *Wizard) createDraftLocked(ctx context.Context) error {
	req := domain.HeadshotDraftRequest{
		Email:      w.state.Email,
		FileName:   w.state.FileName,
		QuantityID: w.state.QuantityID,
		Status:     domain.HeadshotStatusDraft,
	}
	gen := w.beginLocked()
	w.mu.Unlock()

	draft, err := w.createHeadshot(ctx, req)

	w.mu.Lock()
	if !w.finishLocked(gen) {
		w.mu.Unlock()
		if err == nil {
			w.discardLateDraft(ctx, draft.ID)
		}
		return ErrClosed
	}
	if err != nil {
		cerr := w.failLocked(domain.ErrorKindDraftCreateFailed, err)
		w.mu.Unlock()
		return cerr
	}
	if previous := w.state.Headshot; previous != nil && previous.ID != draft.ID {
		w.state.OrphanedDrafts = append(w.state.OrphanedDrafts, previous.ID)
	}
	stored := *draft
	w.state.Headshot = &stored
	w.state.Step++
	w.state.LastError = nil
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap)
	w.enterStep(ctx, snap)
	return nil
}

func (w *Wizard) createHeadshot(ctx context.Context, req domain.HeadshotDraftRequest) (*domain.DraftHeadshot, error) {
	if w.deps.Productions == nil {
		return nil, gatewayUnavailable("production")
	}
	draft, err := w.deps.Productions.CreateHeadshot(ctx, req)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.ID == "" {
		return nil, errors.New("create headshot: empty response")
	}
	return draft, nil
}

func (w *Wizard) discardLateDraft(ctx context.Context, id string) {
	w.logger.LogAttrs(ctx, slog.LevelWarn, "dropping draft created after session closed",
		slog.String("session.id", w.sessionID()), slog.String("headshot.id", id))
	if err := w.deps.Productions.DeleteHeadshot(ctx, id); err != nil {
		w.logger.LogAttrs(ctx, slog.LevelError, "failed to delete late draft",
			slog.String("headshot.id", id), slog.String("error", err.Error()))
	}
}

// Retreat moves the wizard back one step. Landing on the info step deletes the draft.
func (w *Wizard) Retreat(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guardLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.state.Step <= domain.StepQuantity {
		w.mu.Unlock()
		return nil
	}
	return w.stepBackLocked(ctx, w.state.Step-1)
}

// JumpTo returns to a step already visited, as the stepper does. Landing on or
// before the info step deletes the draft; landing on the gallery reopens it.
func (w *Wizard) JumpTo(ctx context.Context, target domain.Step) error {
	w.mu.Lock()
	if err := w.guardLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if target < domain.StepQuantity || target > w.state.Step {
		w.mu.Unlock()
		return fmt.Errorf("%w: cannot jump from %s to step %d", ErrInvalidStep, w.state.Step, int(target))
	}
	if target == w.state.Step {
		w.mu.Unlock()
		return nil
	}
	return w.stepBackLocked(ctx, target)
}

// stepBackLocked must be entered with w.mu held; it releases it.
func (w *Wizard) stepBackLocked(ctx context.Context, target domain.Step) error {
	if w.state.Paid {
		w.mu.Unlock()
		return ErrAlreadyPaid
	}
	w.state.Step = target
	w.state.Generation++
	if target > domain.StepInfo || w.state.Headshot == nil {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.persist(ctx, snap)
		w.enterStep(ctx, snap)
		return nil
	}

	draftID := w.state.Headshot.ID
	gen := w.beginLocked()
	w.mu.Unlock()

	err := w.deleteHeadshot(ctx, draftID)

	w.mu.Lock()
	if !w.finishLocked(gen) {
		w.mu.Unlock()
		return ErrClosed
	}
	w.state.Headshot = nil
	var result error
	if err != nil {
		w.state.OrphanedDrafts = append(w.state.OrphanedDrafts, draftID)
		result = w.failLocked(domain.ErrorKindDraftDeleteFailed, err)
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.persist(ctx, snap)
	return result
}

func (w *Wizard) deleteHeadshot(ctx context.Context, id string) error {
	if w.deps.Productions == nil {
		return gatewayUnavailable("production")
	}
	return w.deps.Productions.DeleteHeadshot(ctx, id)
}

// ResetToStart returns to the quantity step.
func (w *Wizard) ResetToStart(ctx context.Context) error {
	w.mu.Lock()
	if err := w.guardLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.state.Paid {
		w.mu.Unlock()
		return ErrAlreadyPaid
	}
	w.state.Step = domain.StepQuantity
	w.state.Generation++
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.persist(ctx, snap)
	return nil
}

// CheckoutStarted is the processor callback fired once the card is tokenized.
// The order is locked until PaymentSucceeded or PaymentFailed arrives.
func (w *Wizard) CheckoutStarted(ctx context.Context, token domain.PaymentToken) error {
	w.mu.Lock()
	if err := w.guardSettleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.state.PaymentPending {
		w.mu.Unlock()
		return nil
	}
	if w.state.Headshot == nil {
		w.mu.Unlock()
		return ErrMissingDraft
	}
	w.state.PaymentPending = true
	w.state.Loading = true
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.logger.LogAttrs(ctx, slog.LevelInfo, "checkout started",
		slog.String("session.id", snap.SessionID), slog.String("payment.token", token.ID))
	w.persist(ctx, snap)
	return nil
}

// PaymentSucceeded is the processor callback fired once the charge is confirmed.
func (w *Wizard) PaymentSucceeded(ctx context.Context, confirmation domain.PaymentConfirmation) error {
	w.mu.Lock()
	if err := w.guardSettleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.markPaidLocked(confirmation)
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.persist(ctx, snap)
	return nil
}

// PaymentFailed is the processor callback for a declined or aborted payment.
func (w *Wizard) PaymentFailed(ctx context.Context, reason string) error {
	w.mu.Lock()
	if err := w.guardSettleLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "payment failed"
	}
	w.state.PaymentPending = false
	w.state.Loading = false
	cerr := w.failLocked(domain.ErrorKindPaymentFailed, errors.New(reason))
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.persist(ctx, snap)
	return cerr
}

// Pay tokenizes the card source and confirms the charge for the draft headshot.
func (w *Wizard) Pay(ctx context.Context, source string) error {
	w.mu.Lock()
	if err := w.guardPaymentLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.state.Headshot == nil {
		w.mu.Unlock()
		return ErrMissingDraft
	}
	if w.deps.Payments == nil {
		w.mu.Unlock()
		return gatewayUnavailable("payment")
	}
	req := domain.PaymentRequest{
		SessionID:  w.state.SessionID,
		HeadshotID: w.state.Headshot.ID,
		Email:      w.state.Email,
		Amount:     w.state.Pricing(w.production).Price,
		Currency:   w.currency,
		Source:     source,
	}
	gen := w.beginLocked()
	w.mu.Unlock()

	token, err := w.deps.Payments.Tokenize(ctx, req)
	if err != nil {
		return w.failPayment(ctx, gen, err)
	}

	w.mu.Lock()
	if w.closed || w.state.Generation != gen {
		w.mu.Unlock()
		return ErrClosed
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.logger.LogAttrs(ctx, slog.LevelInfo, "checkout started",
		slog.String("session.id", snap.SessionID), slog.String("payment.token", token.ID))
	w.persist(ctx, snap)

	confirmation, err := w.deps.Payments.Confirm(ctx, token, req)
	if err == nil && (confirmation == nil || !confirmation.Paid) {
		status := "no confirmation"
		if confirmation != nil {
			status = confirmation.Status
		}
		err = fmt.Errorf("payment declined: %s", status)
	}
	if err != nil {
		return w.failPayment(ctx, gen, err)
	}

	w.mu.Lock()
	if !w.finishLocked(gen) {
		w.mu.Unlock()
		w.logger.LogAttrs(ctx, slog.LevelError, "payment confirmed after session closed",
			slog.String("session.id", req.SessionID), slog.String("payment.id", confirmation.ID))
		return ErrClosed
	}
	w.markPaidLocked(*confirmation)
	snap = w.snapshotLocked()
	w.mu.Unlock()
	w.persist(ctx, snap)
	return nil
}

func (w *Wizard) failPayment(ctx context.Context, gen uint64, err error) error {
	w.mu.Lock()
	if !w.finishLocked(gen) {
		w.mu.Unlock()
		return ErrClosed
	}
	cerr := w.failLocked(domain.ErrorKindPaymentFailed, err)
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.persist(ctx, snap)
	return cerr
}

func (w *Wizard) markPaidLocked(confirmation domain.PaymentConfirmation) {
	w.state.PaymentPending = false
	w.state.Loading = false
	w.state.Paid = true
	w.state.PaymentReference = confirmation.ID
	w.state.Step++
	w.state.Generation++
	w.state.LastError = nil
}

// Close detaches the wizard; results of calls still in flight are discarded.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.state.Generation++
}

// Snapshot returns a copy of the current order.
func (w *Wizard) Snapshot() domain.OrderState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}

// Loaded reports whether the production has been fetched.
func (w *Wizard) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.production != nil
}

// View renders the current step.
func (w *Wizard) View() checkouttypes.SessionView {
	w.mu.Lock()
	state := w.state.Clone()
	production := w.production.Clone()
	w.mu.Unlock()
	return checkouttypes.SessionView{State: state, View: Render(state, production)}
}

func (w *Wizard) mutate(fn func(*domain.OrderState) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.guardLocked(); err != nil {
		return err
	}
	next := w.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	w.state = next
	return nil
}

// guardIdleLocked rejects work on a closed wizard or while a gateway call is outstanding.
func (w *Wizard) guardIdleLocked() error {
	if w.closed {
		return ErrClosed
	}
	if w.inflight {
		return ErrBusy
	}
	return nil
}

// guardLocked additionally rejects mutations while the processor is charging.
func (w *Wizard) guardLocked() error {
	if err := w.guardIdleLocked(); err != nil {
		return err
	}
	if w.state.PaymentPending {
		return ErrPaymentPending
	}
	return nil
}

func (w *Wizard) guardPaymentLocked() error {
	if err := w.guardLocked(); err != nil {
		return err
	}
	return w.guardReviewLocked()
}

// guardSettleLocked admits the processor callbacks, which may arrive while a payment is pending.
func (w *Wizard) guardSettleLocked() error {
	if err := w.guardIdleLocked(); err != nil {
		return err
	}
	return w.guardReviewLocked()
}

func (w *Wizard) guardReviewLocked() error {
	if w.state.Paid {
		return ErrAlreadyPaid
	}
	if w.state.Step != domain.LastStep {
		return ErrInvalidStep
	}
	return nil
}

// beginLocked marks a gateway call outstanding and returns the generation it must match.
func (w *Wizard) beginLocked() uint64 {
	w.inflight = true
	w.state.Loading = true
	w.state.Generation++
	return w.state.Generation
}

// finishLocked ends the outstanding call. It reports false when the result is stale.
func (w *Wizard) finishLocked(gen uint64) bool {
	if w.closed || w.state.Generation != gen {
		return false
	}
	w.inflight = false
	w.state.Loading = w.state.PaymentPending
	return true
}

func (w *Wizard) failLocked(kind domain.ErrorKind, err error) *CheckoutError {
	w.state.LastError = &domain.ErrorInfo{Kind: kind, Message: err.Error(), OccurredAt: w.now()}
	return newCheckoutError(kind, w.state.SessionID, err)
}

func (w *Wizard) snapshotLocked() domain.OrderState {
	w.state.UpdatedAt = w.now()
	return w.state.Clone()
}

func (w *Wizard) sessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.SessionID
}

// enterStep runs the side effect attached to the step just entered.
func (w *Wizard) enterStep(ctx context.Context, snap domain.OrderState) {
	if snap.Step == domain.StepGallery {
		w.navigate(ctx, domain.GalleryNavigation(snap.SessionID, snap.ProductionID))
	}
}

func (w *Wizard) persist(ctx context.Context, snap domain.OrderState) {
	if err := w.deps.Store.Save(ctx, snap); err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "failed to persist checkout state",
			slog.String("session.id", snap.SessionID), slog.Int("step", int(snap.Step)), slog.String("error", err.Error()))
	}
}

func (w *Wizard) navigate(ctx context.Context, req domain.NavigationRequest) {
	if w.deps.Navigator == nil {
		return
	}
	if err := w.deps.Navigator.Navigate(ctx, req); err != nil {
		w.logger.LogAttrs(ctx, slog.LevelWarn, "failed to request navigation",
			slog.String("session.id", req.SessionID), slog.String("screen", req.Key), slog.String("error", err.Error()))
	}
}
