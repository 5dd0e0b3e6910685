package pos

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSessionOpened = "session_opened"
	EventSessionClosed = "session_closed"
	EventOrderPlaced   = "order_placed"
)

// Event is one point-of-sale fact mirrored from the ERP, kept per branch
// for the live dashboards. ExternalRef dedupes redelivered events; nothing
// downstream hangs off these rows.
type Event struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID    uuid.UUID `gorm:"column:branch_id;type:uuid;not null;index"`
	Type        string    `gorm:"column:type;type:varchar(30);not null"`
	ExternalRef string    `gorm:"column:external_ref;type:varchar(160);not null;uniqueIndex"`
	SessionRef  string    `gorm:"column:session_ref;type:varchar(120);index"`
	Amount      *float64  `gorm:"column:amount"`
	Currency    *string   `gorm:"column:currency;type:varchar(10)"`
	OccurredAt  time.Time `gorm:"column:occurred_at;type:timestamptz;not null"`
	Details     []byte    `gorm:"column:details;type:jsonb"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (Event) TableName() string {
	return "pos_events"
}
