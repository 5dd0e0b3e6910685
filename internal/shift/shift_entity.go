package shift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusOpen   = "open"
	StatusActive = "active"
	StatusEnded  = "ended"
)

const (
	CheckInNone       = "none"
	CheckInCheckedIn  = "checked_in"
	CheckInCheckedOut = "checked_out"
)

// Shift is one scheduled block of work. ERPSlotID ties the row to the
// planning slot the ERP manages; ingestion keys upserts on it.
type Shift struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID         uuid.UUID      `gorm:"column:branch_id;type:uuid;not null;index"`
	EmployeeID       *uuid.UUID     `gorm:"column:employee_id;type:uuid;index"`
	StartsAt         time.Time      `gorm:"column:starts_at;type:timestamptz;not null;index"`
	EndsAt           time.Time      `gorm:"column:ends_at;type:timestamptz;not null"`
	AllocatedHours   float64        `gorm:"column:allocated_hours;not null;default:0"`
	WorkedHours      *float64       `gorm:"column:worked_hours"`
	Status           string         `gorm:"column:status;type:varchar(20);not null;default:open"`
	CheckInStatus    string         `gorm:"column:check_in_status;type:varchar(20);not null;default:none"`
	PendingApprovals int            `gorm:"column:pending_approvals;not null;default:0"`
	ERPSlotID        *string        `gorm:"column:erp_slot_id;type:varchar(100);uniqueIndex"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Shift) TableName() string {
	return "shifts"
}

func IsAllowedStatusTransition(from, to string) bool {
	switch from {
	case StatusOpen:
		return to == StatusActive || to == StatusEnded
	case StatusActive:
		return to == StatusEnded
	default:
		return false
	}
}

func IsAllowedCheckInTransition(from, to string) bool {
	switch from {
	case CheckInNone:
		return to == CheckInCheckedIn
	case CheckInCheckedIn:
		return to == CheckInCheckedOut
	default:
		return false
	}
}

// FieldChange records one tracked field moving between values.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// TrackedChanges diffs the fields the scheduler owns. An empty map means
// the inbound shift payload carries nothing new and the upsert is a no-op.
func TrackedChanges(existing, incoming *Shift) map[string]FieldChange {
	changes := make(map[string]FieldChange)

	if !existing.StartsAt.Equal(incoming.StartsAt) {
		changes["starts_at"] = FieldChange{From: existing.StartsAt, To: incoming.StartsAt}
	}
	if !existing.EndsAt.Equal(incoming.EndsAt) {
		changes["ends_at"] = FieldChange{From: existing.EndsAt, To: incoming.EndsAt}
	}
	if existing.BranchID != incoming.BranchID {
		changes["branch_id"] = FieldChange{From: existing.BranchID.String(), To: incoming.BranchID.String()}
	}
	if existing.AllocatedHours != incoming.AllocatedHours {
		changes["allocated_hours"] = FieldChange{From: existing.AllocatedHours, To: incoming.AllocatedHours}
	}
	if uuidPtrString(existing.EmployeeID) != uuidPtrString(incoming.EmployeeID) {
		changes["employee_id"] = FieldChange{From: uuidPtrString(existing.EmployeeID), To: uuidPtrString(incoming.EmployeeID)}
	}

	return changes
}

func uuidPtrString(v *uuid.UUID) string {
	if v == nil {
		return ""
	}
	return v.String()
}
