package employee

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleHR       = "HR"
)

// Employee is a person employed by the tenant. UserKey is the identity the
// ERP and the auth token share across companies, one person working for two
// tenants has one UserKey and two Employee rows.
type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FullName     string     `gorm:"column:full_name"`
	Email        string     `gorm:"uniqueIndex"`
	UserKey      string     `gorm:"column:user_key;type:varchar(80);not null;uniqueIndex:uq_employee_user_key"`
	Role         string     `gorm:"type:varchar(20);not null;default:EMPLOYEE"`
	HomeBranchID *uuid.UUID `gorm:"column:home_branch_id;type:uuid"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsSuspended  bool       `gorm:"column:is_suspended;not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Employee) TableName() string {
	return "employees"
}

// BranchAssignment designates an employee to a branch. The home branch
// assignment is permanent; the rest are rewritten by check-in activity.
type BranchAssignment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_employee_branch,priority:1"`
	BranchID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignment_employee_branch,priority:2"`
	IsHome     bool      `gorm:"column:is_home;not null;default:false"`
	CreatedAt  time.Time
}

func (BranchAssignment) TableName() string {
	return "branch_assignments"
}
