package authorization

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeEarlyCheckIn  = "early_check_in"
	TypeTardiness     = "tardiness"
	TypeEarlyCheckOut = "early_check_out"
	TypeLateCheckOut  = "late_check_out"
	TypeOvertime      = "overtime"
)

const (
	StatusPending          = "pending"
	StatusNoApprovalNeeded = "no_approval_needed"
	StatusApproved         = "approved"
	StatusRejected         = "rejected"
)

const (
	OvertimePaid          = "paid"
	OvertimeTimeOffInLieu = "time_off_in_lieu"
)

// ShiftAuthorization is the durable decision record derived from one
// attendance event. The (shift_log_id, type) pair is unique so redelivered
// events and rerun deferred jobs converge on a single row. Branch and
// employee ids are denormalized from the shift for queue listing and
// notification without a join.
type ShiftAuthorization struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ShiftID             uuid.UUID  `gorm:"column:shift_id;type:uuid;not null;index"`
	ShiftLogID          uuid.UUID  `gorm:"column:shift_log_id;type:uuid;not null;uniqueIndex:uq_authorization_log_type"`
	BranchID            uuid.UUID  `gorm:"column:branch_id;type:uuid;not null;index"`
	EmployeeID          *uuid.UUID `gorm:"column:employee_id;type:uuid;index"`
	Type                string     `gorm:"column:type;type:varchar(30);not null;uniqueIndex:uq_authorization_log_type"`
	Minutes             int        `gorm:"column:minutes;not null;default:0"`
	Status              string     `gorm:"column:status;type:varchar(30);not null;default:pending"`
	NeedsEmployeeReason bool       `gorm:"column:needs_employee_reason;not null;default:false"`
	EmployeeReason      *string    `gorm:"column:employee_reason;type:text"`
	OvertimeSubtype     *string    `gorm:"column:overtime_subtype;type:varchar(30)"`
	ResolvedBy          *uuid.UUID `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt          *time.Time `gorm:"column:resolved_at;type:timestamptz"`
	RejectionReason     *string    `gorm:"column:rejection_reason;type:text"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (ShiftAuthorization) TableName() string {
	return "shift_authorizations"
}

// IsResolved reports whether the record reached a terminal status. Only
// pending records accept reason, approve and reject operations.
func (a *ShiftAuthorization) IsResolved() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

func IsValidOvertimeSubtype(v string) bool {
	return v == OvertimePaid || v == OvertimeTimeOffInLieu
}
