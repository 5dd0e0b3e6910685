// Package tenanttest builds tenant handles over sqlmock for service tests.
package tenanttest

import (
	"testing"

	"go-workforce/internal/tenant"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewHandle returns a tenant handle whose gorm DB runs on a sqlmock
// connection. Transaction expectations (ExpectBegin/ExpectCommit/
// ExpectRollback) work against gorm's Transaction helper.
func NewHandle(t *testing.T, companyID string) (*tenant.Handle, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	return &tenant.Handle{
		CompanyID:    companyID,
		Name:         "test",
		ERPCompanyID: 1,
		DB:           gormDB,
		SQL:          db,
	}, mock
}
