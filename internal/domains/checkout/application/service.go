package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	checkouttypes "github.com/Apurer/headshot-checkout/internal/domains/checkout/application/types"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// Service keeps the live wizards keyed by session id.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Wizard

	deps Dependencies
	settings
}

// NewService wires the checkout service with its gateways.
func NewService(deps Dependencies, opts ...Option) *Service {
	if deps.Store == nil {
		deps.Store = ports.NoopStateStore
	}
	return &Service{
		sessions: map[string]*Wizard{},
		deps:     deps,
		settings: applyOptions(opts),
	}
}

// StartSession opens a wizard for a production and loads it. A session whose
// production fetch failed is still saved; the returned CheckoutError carries its
// id so a later GetSession can retry, and the purger drops it once stale.
func (s *Service) StartSession(ctx context.Context, input checkouttypes.StartSessionInput) (*checkouttypes.SessionView, error) {
	productionID := strings.TrimSpace(input.ProductionID)
	if productionID == "" {
		return nil, mapError(domain.ErrEmptyProductionID)
	}
	sessionID := s.newID()
	if input.Partial != nil && strings.TrimSpace(input.Partial.SessionID) != "" {
		sessionID = strings.TrimSpace(input.Partial.SessionID)
	}
	wizard := newWizard(sessionID, productionID, s.deps, s.settings)

	s.mu.Lock()
	if existing, ok := s.sessions[sessionID]; ok {
		existing.Close()
	}
	s.sessions[sessionID] = wizard
	s.mu.Unlock()

	err := wizard.Initialize(ctx, input.Partial)
	if errors.Is(err, ErrClosed) {
		return nil, err
	}
	snap := wizard.Snapshot()
	snap.UpdatedAt = s.now()
	wizard.persist(ctx, snap)
	if err != nil {
		return nil, mapError(err)
	}
	return viewOf(wizard), nil
}

// GetSession renders the current step, rehydrating the wizard from the store when needed.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	wizard, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, mapError(err)
	}
	return viewOf(wizard), nil
}

func (s *Service) SelectQuantity(ctx context.Context, sessionID, quantityID string) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.SelectQuantity(quantityID)
	})
}

func (s *Service) SetOrderDetails(ctx context.Context, sessionID string, details domain.OrderDetails) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.SetOrderDetails(details)
	})
}

func (s *Service) SetField(ctx context.Context, sessionID string, input checkouttypes.SetFieldInput) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.SetField(input.Name, input.Value)
	})
}

func (s *Service) Advance(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.Advance(ctx)
	})
}

func (s *Service) Retreat(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.Retreat(ctx)
	})
}

// JumpTo returns the wizard to an already visited step.
func (s *Service) JumpTo(ctx context.Context, sessionID string, step domain.Step) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.JumpTo(ctx, step)
	})
}

func (s *Service) Reset(ctx context.Context, sessionID string) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.ResetToStart(ctx)
	})
}

func (s *Service) Pay(ctx context.Context, sessionID string, input checkouttypes.PayInput) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.Pay(ctx, input.Source)
	})
}

func (s *Service) CheckoutStarted(ctx context.Context, sessionID string, token domain.PaymentToken) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.CheckoutStarted(ctx, token)
	})
}

func (s *Service) PaymentSucceeded(ctx context.Context, sessionID string, confirmation domain.PaymentConfirmation) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.PaymentSucceeded(ctx, confirmation)
	})
}

func (s *Service) PaymentFailed(ctx context.Context, sessionID string, input checkouttypes.PaymentFailedInput) (*checkouttypes.SessionView, error) {
	return s.apply(ctx, sessionID, func(w *Wizard) error {
		return w.PaymentFailed(ctx, input.Reason)
	})
}

// CloseSession detaches the wizard and discards its snapshot. Unpaid drafts are
// deleted; if that fails the snapshot is kept for the purger. A session whose
// payment is being processed cannot be closed.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	wizard, err := s.lookup(ctx, sessionID)
	if err != nil {
		return mapError(err)
	}
	if wizard.Snapshot().PaymentPending {
		return ErrPaymentPending
	}
	s.detach(sessionID, wizard)
	state := wizard.Snapshot()
	if err := s.discard(ctx, state); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "checkout session closed with leftover drafts",
			slog.String("session.id", sessionID), slog.String("error", err.Error()))
	}
	return nil
}

// PurgeAbandoned removes unpaid sessions untouched since before, deleting their
// drafts first. Sessions whose drafts could not be deleted are kept for the next run.
func (s *Service) PurgeAbandoned(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.deps.Store.ListStale(ctx, before)
	if err != nil {
		return 0, err
	}
	purged := 0
	var errs []error
	for _, state := range stale {
		if state.Paid {
			continue
		}
		if state.PaymentPending {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "keeping stale session with a pending payment",
				slog.String("session.id", state.SessionID))
			continue
		}
		s.mu.Lock()
		if wizard, ok := s.sessions[state.SessionID]; ok {
			wizard.Close()
			delete(s.sessions, state.SessionID)
		}
		s.mu.Unlock()
		if err := s.discard(ctx, state); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", state.SessionID, err))
			continue
		}
		purged++
	}
	return purged, errors.Join(errs...)
}

// discard deletes every draft an unpaid order still references, then its snapshot.
func (s *Service) discard(ctx context.Context, state domain.OrderState) error {
	if !state.Paid {
		if err := s.deleteDrafts(ctx, draftIDs(state)); err != nil {
			return err
		}
	}
	if err := s.deps.Store.Delete(ctx, state.SessionID); err != nil && !errors.Is(err, ports.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *Service) deleteDrafts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if s.deps.Productions == nil {
		return gatewayUnavailable("production")
	}
	var errs []error
	for _, id := range ids {
		if err := s.deps.Productions.DeleteHeadshot(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete headshot %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func draftIDs(state domain.OrderState) []string {
	ids := append([]string(nil), state.OrphanedDrafts...)
	if state.Headshot != nil && state.Headshot.ID != "" {
		ids = append(ids, state.Headshot.ID)
	}
	return ids
}

func (s *Service) apply(ctx context.Context, sessionID string, fn func(*Wizard) error) (*checkouttypes.SessionView, error) {
	wizard, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := fn(wizard); err != nil {
		return nil, mapError(err)
	}
	return viewOf(wizard), nil
}

// lookup returns the live wizard for sessionID, rehydrating it from the store on a miss.
// A wizard whose production never loaded retries the fetch.
func (s *Service) lookup(ctx context.Context, sessionID string) (*Wizard, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ports.ErrSessionNotFound
	}
	s.mu.Lock()
	wizard, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		if !wizard.Loaded() {
			if err := wizard.Initialize(ctx, nil); err != nil {
				return nil, err
			}
		}
		return wizard, nil
	}

	projection, err := s.deps.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	saved := projection.Entity
	wizard = newWizard(sessionID, saved.ProductionID, s.deps, s.settings)
	wizard.restore(saved)

	s.mu.Lock()
	if existing, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[sessionID] = wizard
	s.mu.Unlock()

	if err := wizard.Initialize(ctx, nil); err != nil {
		return nil, err
	}
	return wizard, nil
}

func (s *Service) detach(sessionID string, wizard *Wizard) {
	s.mu.Lock()
	if current, ok := s.sessions[sessionID]; ok && current == wizard {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	wizard.Close()
}

func viewOf(w *Wizard) *checkouttypes.SessionView {
	view := w.View()
	return &view
}

var _ ports.Service = (*Service)(nil)
