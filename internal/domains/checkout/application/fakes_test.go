package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/headshot-checkout/internal/shared/projection"
)

var errGateway = errors.New("gateway unavailable")

func sampleProduction() *domain.Production {
	return &domain.Production{
		ID:            "p1",
		Title:         "Studio Headshots",
		OverviewImage: "https://img.example/p1.jpg",
		Quantities: []domain.ProductionQuantity{
			{ID: "q1", Amount: 8, PlusPrice: "20.00"},
			{ID: "q2", Amount: 16, PlusPrice: "35.50"},
		},
	}
}

type fakeProductions struct {
	mu         sync.Mutex
	production *domain.Production
	fetchErr   error
	createErr  error
	deleteErr  error
	// block, when set, holds CreateHeadshot until it is closed.
	block   chan struct{}
	started chan struct{}

	fetches  int
	creates  []domain.HeadshotDraftRequest
	deletes  []string
	nextID   int
	draftURL string
}

func newFakeProductions() *fakeProductions {
	return &fakeProductions{production: sampleProduction(), draftURL: "https://cdn.example/h.jpg"}
}

func (f *fakeProductions) GetProduction(_ context.Context, id string) (*domain.Production, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.production == nil || f.production.ID != id {
		return nil, errors.New("production not found")
	}
	return f.production.Clone(), nil
}

func (f *fakeProductions) CreateHeadshot(_ context.Context, req domain.HeadshotDraftRequest) (*domain.DraftHeadshot, error) {
	f.mu.Lock()
	f.creates = append(f.creates, req)
	block, started := f.block, f.started
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	return &domain.DraftHeadshot{
		ID:       "h" + string(rune('0'+f.nextID)),
		FileName: req.FileName,
		ImageURL: f.draftURL,
		Status:   req.Status,
	}, nil
}

func (f *fakeProductions) DeleteHeadshot(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeProductions) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeProductions) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

type fakePayments struct {
	tokenizeErr  error
	confirmErr   error
	confirmation *domain.PaymentConfirmation

	requests []domain.PaymentRequest
	tokens   []domain.PaymentToken
}

func newFakePayments() *fakePayments {
	return &fakePayments{confirmation: &domain.PaymentConfirmation{ID: "ch_1", Status: "succeeded", Paid: true}}
}

func (f *fakePayments) Tokenize(_ context.Context, req domain.PaymentRequest) (domain.PaymentToken, error) {
	f.requests = append(f.requests, req)
	if f.tokenizeErr != nil {
		return domain.PaymentToken{}, f.tokenizeErr
	}
	return domain.PaymentToken{ID: fmt.Sprintf("tok_%d", len(f.requests))}, nil
}

func (f *fakePayments) Confirm(_ context.Context, token domain.PaymentToken, _ domain.PaymentRequest) (*domain.PaymentConfirmation, error) {
	f.tokens = append(f.tokens, token)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmation, nil
}

type fakeNavigator struct {
	mu       sync.Mutex
	requests []domain.NavigationRequest
}

func (f *fakeNavigator) Navigate(_ context.Context, req domain.NavigationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeNavigator) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		keys = append(keys, r.Key)
	}
	return keys
}

type fakeStore struct {
	mu     sync.Mutex
	states map[string]domain.OrderState
	saves  []domain.OrderState
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]domain.OrderState{}}
}

func (f *fakeStore) Save(_ context.Context, state domain.OrderState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state.SessionID] = state.Clone()
	f.saves = append(f.saves, state.Clone())
	return nil
}

func (f *fakeStore) Load(_ context.Context, sessionID string) (*projection.Projection[domain.OrderState], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return projection.New(state.Clone(), state.UpdatedAt, state.UpdatedAt), nil
}

func (f *fakeStore) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.states[sessionID]; !ok {
		return ports.ErrSessionNotFound
	}
	delete(f.states, sessionID)
	return nil
}

func (f *fakeStore) ListStale(_ context.Context, before time.Time) ([]domain.OrderState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.OrderState
	for _, state := range f.states {
		if !state.Paid && state.UpdatedAt.Before(before) {
			out = append(out, state.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type harness struct {
	productions *fakeProductions
	payments    *fakePayments
	navigator   *fakeNavigator
	store       *fakeStore
}

func newHarness() *harness {
	return &harness{
		productions: newFakeProductions(),
		payments:    newFakePayments(),
		navigator:   &fakeNavigator{},
		store:       newFakeStore(),
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Productions: h.productions,
		Payments:    h.payments,
		Navigator:   h.navigator,
		Store:       h.store,
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
