package authorization

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=authorization_repo.go -destination=mock/authorization_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, a *ShiftAuthorization) error
	Update(ctx context.Context, a *ShiftAuthorization) error
	FindByID(ctx context.Context, id string) (*ShiftAuthorization, error)
	FindByShiftLogAndType(ctx context.Context, shiftLogID, authType string) (*ShiftAuthorization, error)
	ListByShift(ctx context.Context, shiftID string) ([]ShiftAuthorization, error)
	ListPendingByBranch(ctx context.Context, branchID string) ([]ShiftAuthorization, error)
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

func (r *repository) Create(ctx context.Context, a *ShiftAuthorization) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) Update(ctx context.Context, a *ShiftAuthorization) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*ShiftAuthorization, error) {
	var a ShiftAuthorization
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error
	return &a, err
}

func (r *repository) FindByShiftLogAndType(ctx context.Context, shiftLogID, authType string) (*ShiftAuthorization, error) {
	var a ShiftAuthorization
	err := r.db.WithContext(ctx).
		Where("shift_log_id = ? AND type = ?", shiftLogID, authType).
		First(&a).Error
	return &a, err
}

func (r *repository) ListByShift(ctx context.Context, shiftID string) ([]ShiftAuthorization, error) {
	var rows []ShiftAuthorization
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPendingByBranch(ctx context.Context, branchID string) ([]ShiftAuthorization, error) {
	var rows []ShiftAuthorization
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branchID, StatusPending).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// IsUniqueViolation reports whether err is the unique-index rejection two
// concurrent deliveries of the same event race into.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
