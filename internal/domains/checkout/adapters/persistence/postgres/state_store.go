package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	"github.com/Apurer/headshot-checkout/internal/shared/projection"
)

var _ ports.StateStore = (*StateStore)(nil)

// StateStore persists order snapshots in PostgreSQL using GORM.
type StateStore struct {
	db *gorm.DB
}

// NewStateStore wires a PostgreSQL-backed state store. Caller manages DB lifecycle;
// the schema is applied by platform/migrations.
func NewStateStore(db *gorm.DB) *StateStore {
	return &StateStore{db: db}
}

// sessionRecord maps an order snapshot to a relational row.
type sessionRecord struct {
	SessionID        string            `gorm:"primaryKey;column:session_id;size:64"`
	ProductionID     string            `gorm:"column:production_id;index"`
	Step             int               `gorm:"column:step"`
	QuantityID       string            `gorm:"column:quantity_id"`
	OrderDetails     map[string]string `gorm:"column:order_details;serializer:json"`
	Email            string            `gorm:"column:email"`
	FileName         string            `gorm:"column:file_name"`
	UploadImageURL   string            `gorm:"column:upload_image_url"`
	HasImage         bool              `gorm:"column:has_image"`
	HeadshotID       string            `gorm:"column:headshot_id;index"`
	HeadshotFileName string            `gorm:"column:headshot_file_name"`
	HeadshotImageURL string            `gorm:"column:headshot_image_url"`
	HeadshotStatus   string            `gorm:"column:headshot_status;type:varchar(32)"`
	Paid             bool              `gorm:"column:paid;index:idx_checkout_sessions_stale"`
	PaymentReference string            `gorm:"column:payment_reference"`
	PaymentPending   bool              `gorm:"column:payment_pending"`
	Loading          bool              `gorm:"column:loading"`
	Completed        bool              `gorm:"column:completed"`
	Generation       int64             `gorm:"column:generation"`
	OrphanedDrafts   pq.StringArray    `gorm:"column:orphaned_drafts;type:text[]"`
	LastErrorKind    string            `gorm:"column:last_error_kind;type:varchar(32)"`
	LastErrorMessage string            `gorm:"column:last_error_message"`
	LastErrorAt      *time.Time        `gorm:"column:last_error_at"`
	CreatedAt        time.Time         `gorm:"column:created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;index:idx_checkout_sessions_stale"`
}

func (sessionRecord) TableName() string { return "checkout_sessions" }

// Save upserts the snapshot keyed by session id.
func (s *StateStore) Save(ctx context.Context, state domain.OrderState) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(state.SessionID) == "" {
		return errors.New("session id is required")
	}
	rec := toRecord(state)
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"production_id", "step", "quantity_id", "order_details", "email", "file_name",
				"upload_image_url", "has_image", "headshot_id", "headshot_file_name", "headshot_image_url",
				"headshot_status", "paid", "payment_reference", "payment_pending", "loading", "completed", "generation",
				"orphaned_drafts", "last_error_kind", "last_error_message", "last_error_at", "updated_at",
			}),
		}).
		Create(&rec).Error
}

// Load fetches the latest snapshot for a session.
func (s *StateStore) Load(ctx context.Context, sessionID string) (*projection.Projection[domain.OrderState], error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, err
	}
	return projection.New(rec.toDomain(), rec.CreatedAt, rec.UpdatedAt), nil
}

// Delete removes a snapshot.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Delete(&sessionRecord{}, "session_id = ?", sessionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrSessionNotFound
	}
	return nil
}

// ListStale returns unpaid snapshots last updated before the cutoff, oldest first.
func (s *StateStore) ListStale(ctx context.Context, before time.Time) ([]domain.OrderState, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []sessionRecord
	if err := s.db.WithContext(ctx).
		Where("paid = ? AND updated_at < ?", false, before).
		Order("updated_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	states := make([]domain.OrderState, 0, len(records))
	for i := range records {
		states = append(states, records[i].toDomain())
	}
	return states, nil
}

func (s *StateStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres checkout state store not configured")
	}
	return nil
}

func toRecord(state domain.OrderState) sessionRecord {
	rec := sessionRecord{
		SessionID:        state.SessionID,
		ProductionID:     state.ProductionID,
		Step:             int(state.Step),
		QuantityID:       state.QuantityID,
		OrderDetails:     state.OrderDetails.Clone(),
		Email:            state.Email,
		FileName:         state.FileName,
		UploadImageURL:   state.UploadImageURL,
		HasImage:         state.HasImage,
		Paid:             state.Paid,
		PaymentReference: state.PaymentReference,
		PaymentPending:   state.PaymentPending,
		Loading:          state.Loading,
		Completed:        state.Completed,
		Generation:       int64(state.Generation),
		OrphanedDrafts:   pq.StringArray(append([]string{}, state.OrphanedDrafts...)),
		UpdatedAt:        state.UpdatedAt,
	}
	if h := state.Headshot; h != nil {
		rec.HeadshotID = h.ID
		rec.HeadshotFileName = h.FileName
		rec.HeadshotImageURL = h.ImageURL
		rec.HeadshotStatus = string(h.Status)
	}
	if e := state.LastError; e != nil {
		at := e.OccurredAt
		rec.LastErrorKind = string(e.Kind)
		rec.LastErrorMessage = e.Message
		rec.LastErrorAt = &at
	}
	return rec
}

func (r sessionRecord) toDomain() domain.OrderState {
	state := domain.OrderState{
		SessionID:        r.SessionID,
		ProductionID:     r.ProductionID,
		Step:             domain.Step(r.Step),
		QuantityID:       r.QuantityID,
		OrderDetails:     domain.OrderDetails(r.OrderDetails).Clone(),
		Email:            r.Email,
		FileName:         r.FileName,
		UploadImageURL:   r.UploadImageURL,
		HasImage:         r.HasImage,
		Paid:             r.Paid,
		PaymentReference: r.PaymentReference,
		PaymentPending:   r.PaymentPending,
		Loading:          r.Loading,
		Completed:        r.Completed,
		Generation:       uint64(r.Generation),
		UpdatedAt:        r.UpdatedAt,
	}
	if len(r.OrphanedDrafts) > 0 {
		state.OrphanedDrafts = append([]string(nil), r.OrphanedDrafts...)
	}
	if r.HeadshotID != "" {
		state.Headshot = &domain.DraftHeadshot{
			ID:       r.HeadshotID,
			FileName: r.HeadshotFileName,
			ImageURL: r.HeadshotImageURL,
			Status:   domain.HeadshotStatus(r.HeadshotStatus),
		}
	}
	if r.LastErrorKind != "" {
		info := &domain.ErrorInfo{Kind: domain.ErrorKind(r.LastErrorKind), Message: r.LastErrorMessage}
		if r.LastErrorAt != nil {
			info.OccurredAt = *r.LastErrorAt
		}
		state.LastError = info
	}
	return state
}
