package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index"`
	Title      string     `gorm:"column:title;type:varchar(200);not null"`
	Message    string     `gorm:"column:message;type:text;not null"`
	Severity   string     `gorm:"column:severity;type:varchar(20);not null;default:info"`
	Link       string     `gorm:"column:link;type:varchar(300)"`
	ReadAt     *time.Time `gorm:"column:read_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
