package exchange

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=exchange_repo.go -destination=mock/exchange_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, r *ExchangeRequest) error
	Update(ctx context.Context, r *ExchangeRequest) error
	FindByID(ctx context.Context, id string) (*ExchangeRequest, error)
	// HasPendingForShift reports whether the shift already sits on either
	// side of a pending exchange.
	HasPendingForShift(ctx context.Context, companyID, shiftID string) (bool, error)
	// ListPendingShiftIDs returns every shift id the company has locked in
	// a pending exchange, on either side.
	ListPendingShiftIDs(ctx context.Context, companyID string) ([]string, error)
	ListByStage(ctx context.Context, stage string) ([]ExchangeRequest, error)
	ListForUserKey(ctx context.Context, userKey string) ([]ExchangeRequest, error)
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

func (r *repository) Create(ctx context.Context, req *ExchangeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) Update(ctx context.Context, req *ExchangeRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*ExchangeRequest, error) {
	var req ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	return &req, err
}

func (r *repository) HasPendingForShift(ctx context.Context, companyID, shiftID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ExchangeRequest{}).
		Where("status = ?", StatusPending).
		Where(
			"(requester_company_id = ? AND requester_shift_id = ?) OR (acceptor_company_id = ? AND acceptor_shift_id = ?)",
			companyID, shiftID, companyID, shiftID,
		).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListPendingShiftIDs(ctx context.Context, companyID string) ([]string, error) {
	var rows []ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Where("requester_company_id = ? OR acceptor_company_id = ?", companyID, companyID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Requester.CompanyID == companyID {
			ids = append(ids, row.Requester.ShiftID.String())
		}
		if row.Acceptor.CompanyID == companyID {
			ids = append(ids, row.Acceptor.ShiftID.String())
		}
	}
	return ids, nil
}

func (r *repository) ListByStage(ctx context.Context, stage string) ([]ExchangeRequest, error) {
	var rows []ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("approval_stage = ?", stage).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListForUserKey(ctx context.Context, userKey string) ([]ExchangeRequest, error) {
	var rows []ExchangeRequest
	err := r.db.WithContext(ctx).
		Where("requester_user_key = ? OR acceptor_user_key = ?", userKey, userKey).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
