package erpsync

import "time"

const (
	PunchIn  = "in"
	PunchOut = "out"
)

// AttendancePayload is one punch as the ERP reports it. PlanningSlotID is
// optional: a punch without a slot link is valid and produces a log entry
// but no authorization. CumulativeMinutes is the source system's running
// worked-minutes figure, only present on check-out.
type AttendancePayload struct {
	PunchID           string    `json:"punch_id" binding:"required"`
	Type              string    `json:"type" binding:"required,oneof=in out"`
	ERPBranchID       int       `json:"erp_branch_id" binding:"required"`
	UserKey           string    `json:"user_key" binding:"required"`
	PlanningSlotID    *string   `json:"planning_slot_id"`
	OccurredAt        time.Time `json:"occurred_at" binding:"required"`
	CumulativeMinutes *int      `json:"cumulative_minutes"`
}

type ShiftPayload struct {
	SlotID      string    `json:"slot_id" binding:"required"`
	ERPBranchID int       `json:"erp_branch_id" binding:"required"`
	UserKey     *string   `json:"user_key"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
}

type ShiftDeletePayload struct {
	SlotID string `json:"slot_id" binding:"required"`
}

type POSSessionPayload struct {
	SessionID   string    `json:"session_id" binding:"required"`
	ERPBranchID int       `json:"erp_branch_id" binding:"required"`
	State       string    `json:"state" binding:"required,oneof=opened closed"`
	OccurredAt  time.Time `json:"occurred_at" binding:"required"`
	CashierKey  *string   `json:"cashier_key"`
}

type POSOrderPayload struct {
	OrderID     string    `json:"order_id" binding:"required"`
	SessionID   string    `json:"session_id" binding:"required"`
	ERPBranchID int       `json:"erp_branch_id" binding:"required"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at" binding:"required"`
}

type AttendanceResult struct {
	LogID     string  `json:"log_id"`
	ShiftID   *string `json:"shift_id,omitempty"`
	Duplicate bool    `json:"duplicate"`
}

type ShiftSyncResult struct {
	ShiftID string `json:"shift_id"`
	Created bool   `json:"created"`
	Changed bool   `json:"changed"`
}
