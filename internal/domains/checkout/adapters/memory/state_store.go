package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/headshot-checkout/internal/shared/projection"
)

var _ ports.StateStore = (*StateStore)(nil)

// StateStore keeps order snapshots in process memory.
type StateStore struct {
	mu      sync.RWMutex
	records map[string]stateRecord
	now     func() time.Time
}

type stateRecord struct {
	state     domain.OrderState
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*StateStore)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *StateStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStateStore(opts ...Option) *StateStore {
	s := &StateStore{records: map[string]stateRecord{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *StateStore) Save(_ context.Context, state domain.OrderState) error {
	id := strings.TrimSpace(state.SessionID)
	if id == "" {
		return errors.New("session id is required")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		rec.createdAt = now
	}
	rec.state = state.Clone()
	rec.updatedAt = now
	s.records[id] = rec
	return nil
}

func (s *StateStore) Load(_ context.Context, sessionID string) (*projection.Projection[domain.OrderState], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return projection.New(rec.state.Clone(), rec.createdAt, rec.updatedAt), nil
}

func (s *StateStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[sessionID]; !ok {
		return ports.ErrSessionNotFound
	}
	delete(s.records, sessionID)
	return nil
}

// ListStale returns unpaid snapshots saved before the cutoff, oldest first.
func (s *StateStore) ListStale(_ context.Context, before time.Time) ([]domain.OrderState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []stateRecord
	for _, rec := range s.records {
		if !rec.state.Paid && rec.updatedAt.Before(before) {
			stale = append(stale, rec)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].updatedAt.Before(stale[j].updatedAt) })
	out := make([]domain.OrderState, 0, len(stale))
	for _, rec := range stale {
		out = append(out, rec.state.Clone())
	}
	return out, nil
}
