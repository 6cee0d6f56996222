package memory

import (
	"context"
	"sync"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

var _ ports.NavigationGateway = (*Recorder)(nil)

// Recorder keeps the latest navigation request per session for hosts that poll.
type Recorder struct {
	mu      sync.RWMutex
	pending map[string]domain.NavigationRequest
	history []domain.NavigationRequest
}

func NewRecorder() *Recorder {
	return &Recorder{pending: map[string]domain.NavigationRequest{}}
}

func (r *Recorder) Navigate(_ context.Context, req domain.NavigationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[req.SessionID] = req
	r.history = append(r.history, req)
	return nil
}

// Take returns and clears the pending request for a session.
func (r *Recorder) Take(sessionID string) (domain.NavigationRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[sessionID]
	if ok {
		delete(r.pending, sessionID)
	}
	return req, ok
}

func (r *Recorder) History() []domain.NavigationRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.NavigationRequest(nil), r.history...)
}
