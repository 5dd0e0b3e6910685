package pos

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=pos_repo.go -destination=mock/pos_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ev *Event) error
	FindByExternalRef(ctx context.Context, ref string) (*Event, error)
	ListByBranch(ctx context.Context, branchID string, limit int) ([]Event, error)
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

func (r *repository) Create(ctx context.Context, ev *Event) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *repository) FindByExternalRef(ctx context.Context, ref string) (*Event, error) {
	var ev Event
	err := r.db.WithContext(ctx).
		Where("external_ref = ?", ref).
		First(&ev).Error
	return &ev, err
}

func (r *repository) ListByBranch(ctx context.Context, branchID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Event
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
