package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the checkout schema. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&checkoutSessionRecord{},
	)
}

// Checkout session schema mirrors the checkout Postgres state store.
type checkoutSessionRecord struct {
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

func (checkoutSessionRecord) TableName() string { return "checkout_sessions" }
