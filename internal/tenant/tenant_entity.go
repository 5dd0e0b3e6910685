package tenant

import (
	"time"
)

// Info is a row in the master-scoped tenants table. Each active tenant owns
// a dedicated database reachable through DSN; ERPCompanyID is the numeric
// company identifier the ERP uses for the same tenant.
type Info struct {
	CompanyID    string    `gorm:"column:company_id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;type:varchar(150);not null"`
	DSN          string    `gorm:"column:dsn;type:text;not null"`
	ERPCompanyID int       `gorm:"column:erp_company_id;not null"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (Info) TableName() string {
	return "tenants"
}
