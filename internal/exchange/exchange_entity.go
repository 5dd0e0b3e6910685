package exchange

import (
	"time"

	"go-workforce/internal/employee"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	StageAwaitingEmployee = "awaiting_employee"
	StageAwaitingHR       = "awaiting_hr"
	StageResolved         = "resolved"
)

// Approver mode is recomputed on every read and action, never stored on the
// request, because role membership can change between stages.
const (
	ApproverModeHR         = "HR"
	ApproverModeManagement = "MANAGEMENT"
)

// Party pins one side of an exchange to a tenant-scoped shift at propose
// time. CompanyID plus the ids is the only link between the two stores,
// there is no cross-database foreign key.
type Party struct {
	CompanyID  string    `gorm:"type:uuid;not null;index"`
	ShiftID    uuid.UUID `gorm:"type:uuid;not null"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null"`
	UserKey    string    `gorm:"type:varchar(80);not null;index"`
	BranchID   uuid.UUID `gorm:"type:uuid;not null"`
}

// ExchangeRequest lives in the master store since it spans two tenants.
// Status is the outcome, ApprovalStage the phase: Status stays pending for
// exactly as long as ApprovalStage has not reached resolved.
type ExchangeRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Reference string    `gorm:"type:varchar(20);not null;uniqueIndex"`

	Requester Party `gorm:"embedded;embeddedPrefix:requester_"`
	Acceptor  Party `gorm:"embedded;embeddedPrefix:acceptor_"`

	Status        string `gorm:"type:varchar(20);not null;default:pending;index"`
	ApprovalStage string `gorm:"column:approval_stage;type:varchar(30);not null;default:awaiting_employee;index"`

	EmployeeRespondedAt *time.Time `gorm:"column:employee_responded_at;type:timestamptz"`
	ResolvedAt          *time.Time `gorm:"column:resolved_at;type:timestamptz"`
	ResolvedByUserKey   *string    `gorm:"column:resolved_by_user_key;type:varchar(80)"`
	RejectionReason     *string    `gorm:"column:rejection_reason;type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ExchangeRequest) TableName() string {
	return "shift_exchange_requests"
}

func (r *ExchangeRequest) IsResolved() bool {
	return r.ApprovalStage == StageResolved
}

// IsCrossTenant reports whether the two shifts live in different company
// stores, which is what triggers the mutual branch-designation checks.
func (r *ExchangeRequest) IsCrossTenant() bool {
	return r.Requester.CompanyID != r.Acceptor.CompanyID
}

// CompanyIDs returns the distinct companies the request spans.
func (r *ExchangeRequest) CompanyIDs() []string {
	if !r.IsCrossTenant() {
		return []string{r.Requester.CompanyID}
	}
	return []string{r.Requester.CompanyID, r.Acceptor.CompanyID}
}

func stageRank(stage string) int {
	switch stage {
	case StageAwaitingEmployee:
		return 0
	case StageAwaitingHR:
		return 1
	case StageResolved:
		return 2
	default:
		return -1
	}
}

// IsForwardStageTransition enforces stage monotonicity: the stage only ever
// advances and nothing moves once resolved.
func IsForwardStageTransition(from, to string) bool {
	f, t := stageRank(from), stageRank(to)
	if f < 0 || t < 0 || from == StageResolved {
		return false
	}
	return t > f
}

// RoleForApproverMode maps the recomputed approver mode to the employee
// role an acting user must hold.
func RoleForApproverMode(mode string) string {
	if mode == ApproverModeHR {
		return employee.RoleHR
	}
	return employee.RoleManager
}
