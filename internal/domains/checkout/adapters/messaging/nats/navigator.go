package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
)

// SubjectPrefix is followed by the session id.
const SubjectPrefix = "checkout.navigation"

// Message is the JSON payload published for each navigation request.
type Message struct {
	SessionID    string    `json:"session_id"`
	Key          string    `json:"key"`
	ProductionID string    `json:"production_id,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// Navigator publishes navigation requests for the host application to act on.
type Navigator struct {
	conn *nats.Conn
	now  func() time.Time
}

func NewNavigator(conn *nats.Conn) *Navigator {
	return &Navigator{conn: conn, now: time.Now}
}

// Subject returns the subject a host listens on for one session.
func Subject(sessionID string) string {
	return SubjectPrefix + "." + sessionID
}

func (n *Navigator) Navigate(ctx context.Context, req domain.NavigationRequest) error {
	if n == nil || n.conn == nil {
		return errors.New("nats navigator not configured")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return errors.New("navigation session id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Message{
		SessionID:    req.SessionID,
		Key:          req.Key,
		ProductionID: req.ProductionID,
		RequestedAt:  n.now().UTC(),
	})
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(req.SessionID))
	msg.Data = payload
	msg.Header.Set("Content-Type", "application/json")
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish navigation: %w", err)
	}
	return nil
}

var _ ports.NavigationGateway = (*Navigator)(nil)
