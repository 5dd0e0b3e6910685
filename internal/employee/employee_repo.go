package employee

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByUserKey(ctx context.Context, userKey string) (*Employee, error)
	ListActiveByRole(ctx context.Context, role string) ([]Employee, error)
	ListAssignments(ctx context.Context, employeeID string) ([]BranchAssignment, error)
	HasAssignment(ctx context.Context, employeeID, branchID string) (bool, error)
	CreateAssignment(ctx context.Context, a *BranchAssignment) error
	DeleteAssignments(ctx context.Context, ids []string) error
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

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&e).Error
	return &e, err
}

func (r *repository) FindByUserKey(ctx context.Context, userKey string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Where("user_key = ?", userKey).
		First(&e).Error
	return &e, err
}

func (r *repository) ListActiveByRole(ctx context.Context, role string) ([]Employee, error) {
	var rows []Employee
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Where("is_active = ?", true).
		Where("is_suspended = ?", false).
		Order("full_name ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAssignments(ctx context.Context, employeeID string) ([]BranchAssignment, error) {
	var rows []BranchAssignment
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) HasAssignment(ctx context.Context, employeeID, branchID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&BranchAssignment{}).
		Where("employee_id = ?", employeeID).
		Where("branch_id = ?", branchID).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateAssignment(ctx context.Context, a *BranchAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) DeleteAssignments(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&BranchAssignment{}).Error
}
