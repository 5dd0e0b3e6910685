package branch

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=branch_repo.go -destination=mock/branch_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*Branch, error)
	FindByERPID(ctx context.Context, erpBranchID int) (*Branch, error)
	ListActive(ctx context.Context) ([]Branch, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Branch, error) {
	var b Branch
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&b).Error
	return &b, err
}

func (r *repository) FindByERPID(ctx context.Context, erpBranchID int) (*Branch, error) {
	var b Branch
	err := r.db.WithContext(ctx).
		Where("erp_branch_id = ?", erpBranchID).
		First(&b).Error
	return &b, err
}

func (r *repository) ListActive(ctx context.Context) ([]Branch, error) {
	var rows []Branch
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}
