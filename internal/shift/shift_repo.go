package shift

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=shift_repo.go -destination=mock/shift_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, s *Shift) error
	Update(ctx context.Context, s *Shift) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Shift, error)
	FindByERPSlot(ctx context.Context, slotID string) (*Shift, error)
	ListOpenByEmployee(ctx context.Context, employeeID string) ([]Shift, error)
	ListUpcomingAssigned(ctx context.Context, after time.Time) ([]Shift, error)
	// IncrementPendingApprovals atomically moves the pending counter by
	// delta, clamped at zero.
	IncrementPendingApprovals(ctx context.Context, id string, delta int) error
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

func (r *repository) Create(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) Update(ctx context.Context, s *Shift) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Shift{}).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	return &s, err
}

func (r *repository) FindByERPSlot(ctx context.Context, slotID string) (*Shift, error) {
	var s Shift
	err := r.db.WithContext(ctx).
		Where("erp_slot_id = ?", slotID).
		First(&s).Error
	return &s, err
}

func (r *repository) ListOpenByEmployee(ctx context.Context, employeeID string) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusOpen).
		Order("starts_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListUpcomingAssigned(ctx context.Context, after time.Time) ([]Shift, error) {
	var rows []Shift
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusOpen).
		Where("employee_id IS NOT NULL").
		Where("starts_at > ?", after).
		Order("starts_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) IncrementPendingApprovals(ctx context.Context, id string, delta int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE shifts
		SET pending_approvals = GREATEST(pending_approvals + ?, 0), updated_at = now()
		WHERE id = ?
	`, delta, id).Error
}
