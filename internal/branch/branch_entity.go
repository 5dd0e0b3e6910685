package branch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical work location inside a tenant. ERPBranchID keys the
// branch to the ERP, every inbound event references branches by that id.
type Branch struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string         `gorm:"column:name;type:varchar(150);not null"`
	ERPBranchID int            `gorm:"column:erp_branch_id;not null;uniqueIndex"`
	Timezone    string         `gorm:"column:timezone;type:varchar(60);not null;default:UTC"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Branch) TableName() string {
	return "branches"
}
