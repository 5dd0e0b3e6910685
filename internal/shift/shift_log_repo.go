package shift

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=shift_log_repo.go -destination=mock/shift_log_repo_mock.go -package=mock
type LogRepository interface {
	WithTx(tx *gorm.DB) LogRepository
	Create(ctx context.Context, l *ShiftLog) error
	FindByID(ctx context.Context, id string) (*ShiftLog, error)
	FindByExternalRef(ctx context.Context, ref string) (*ShiftLog, error)
	ListByShift(ctx context.Context, shiftID string) ([]ShiftLog, error)
}

type logRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) WithTx(tx *gorm.DB) LogRepository {
	return &logRepository{db: tx}
}

func (r *logRepository) Create(ctx context.Context, l *ShiftLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *logRepository) FindByID(ctx context.Context, id string) (*ShiftLog, error) {
	var l ShiftLog
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&l).Error
	return &l, err
}

func (r *logRepository) FindByExternalRef(ctx context.Context, ref string) (*ShiftLog, error) {
	var l ShiftLog
	err := r.db.WithContext(ctx).
		Where("external_ref = ?", ref).
		First(&l).Error
	return &l, err
}

func (r *logRepository) ListByShift(ctx context.Context, shiftID string) ([]ShiftLog, error) {
	var rows []ShiftLog
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("occurred_at ASC").
		Find(&rows).Error
	return rows, err
}
