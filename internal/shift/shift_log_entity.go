package shift

import (
	"time"

	"github.com/google/uuid"
)

const (
	LogCheckIn               = "check_in"
	LogCheckOut              = "check_out"
	LogShiftUpdated          = "shift_updated"
	LogAuthorizationResolved = "authorization_resolved"
)

// ShiftLog is the append-only activity trail. Rows are never updated or
// deleted; deferred jobs and authorizations join back to a log row by id.
// ExternalRef holds the ERP punch id and dedupes redelivered events.
type ShiftLog struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID     *uuid.UUID `gorm:"column:shift_id;type:uuid;index"`
	BranchID    uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;index"`
	EmployeeID  *uuid.UUID `gorm:"column:employee_id;type:uuid;index"`
	Type        string     `gorm:"column:type;type:varchar(40);not null"`
	OccurredAt  time.Time  `gorm:"column:occurred_at;type:timestamptz;not null"`
	ExternalRef *string    `gorm:"column:external_ref;type:varchar(120);uniqueIndex"`
	Details     []byte     `gorm:"column:details;type:jsonb"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (ShiftLog) TableName() string {
	return "shift_logs"
}
