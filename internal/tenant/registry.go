package tenant

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/connection"
	tenanterrors "go-workforce/internal/tenant/errors"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Handle is an open connection set for one tenant. Shift data lives in the
// tenant database; the master database keeps the registry itself plus the
// exchange and job queue tables.
type Handle struct {
	CompanyID    string
	Name         string
	ERPCompanyID int
	DB           *gorm.DB
	SQL          *sql.DB
}

// Connector opens a tenant database from its DSN. Swapped out in tests.
type Connector func(dsn string) (*gorm.DB, error)

//go:generate mockgen -source=registry.go -destination=mock/registry_mock.go -package=mock
type Registry interface {
	// Resolve returns the handle for an active tenant, connecting and
	// caching it on first use.
	Resolve(ctx context.Context, companyID string) (*Handle, error)
	// Exists reports whether companyID is a registered active tenant
	// without forcing a connection.
	Exists(ctx context.Context, companyID string) (bool, error)
	// List resolves every active tenant. Tenants whose database cannot be
	// reached are skipped with a warning so one bad tenant does not take
	// down batch workers.
	List(ctx context.Context) ([]*Handle, error)
	// Master returns the handle of the master database.
	Master() *Handle
	// Evict closes and forgets a cached tenant connection.
	Evict(companyID string)
}

type registry struct {
	master  *Handle
	cache   *cache.Cache
	group   singleflight.Group
	connect Connector
	logger  *zap.Logger
}

func NewRegistry(masterDB *gorm.DB, logger ...*zap.Logger) (Registry, error) {
	return NewRegistryWithConnector(masterDB, func(dsn string) (*gorm.DB, error) {
		return connection.ConnectGORMDSNWithRetry(dsn, 3)
	}, logger...)
}

func NewRegistryWithConnector(masterDB *gorm.DB, connect Connector, logger ...*zap.Logger) (Registry, error) {
	l := zap.L().Named("tenant.registry")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("tenant.registry")
	}

	masterSQL, err := masterDB.DB()
	if err != nil {
		return nil, err
	}

	return &registry{
		master: &Handle{
			CompanyID: "master",
			Name:      "master",
			DB:        masterDB,
			SQL:       masterSQL,
		},
		cache:   cache.New(cache.NoExpiration, 0),
		connect: connect,
		logger:  l,
	}, nil
}

func (r *registry) Master() *Handle {
	return r.master
}

func (r *registry) Resolve(ctx context.Context, companyID string) (*Handle, error) {
	if companyID == "" {
		return nil, tenanterrors.ErrUnknownTenant
	}

	if cached, ok := r.cache.Get(companyID); ok {
		return cached.(*Handle), nil
	}

	// Collapse concurrent first-time resolutions of the same tenant into a
	// single connect.
	v, err, _ := r.group.Do(companyID, func() (interface{}, error) {
		if cached, ok := r.cache.Get(companyID); ok {
			return cached, nil
		}

		info, err := r.loadInfo(ctx, companyID)
		if err != nil {
			return nil, err
		}

		db, err := r.connect(info.DSN)
		if err != nil {
			r.logger.Error("tenant connect failed",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			return nil, apperror.Wrap(err, apperror.CodeServiceUnavailable, "Tenant database is unreachable", http.StatusServiceUnavailable)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInternalError, "Failed to unwrap tenant connection", http.StatusInternalServerError)
		}

		handle := &Handle{
			CompanyID:    info.CompanyID,
			Name:         info.Name,
			ERPCompanyID: info.ERPCompanyID,
			DB:           db,
			SQL:          sqlDB,
		}
		r.cache.Set(companyID, handle, cache.NoExpiration)

		r.logger.Info("tenant connected",
			zap.String("company_id", info.CompanyID),
			zap.String("name", info.Name),
		)

		return handle, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Handle), nil
}

func (r *registry) Exists(ctx context.Context, companyID string) (bool, error) {
	if companyID == "" {
		return false, nil
	}

	if _, ok := r.cache.Get(companyID); ok {
		return true, nil
	}

	var count int64
	err := r.master.DB.WithContext(ctx).
		Model(&Info{}).
		Where("company_id = ?", companyID).
		Where("is_active = ?", true).
		Count(&count).Error
	if err != nil {
		return false, apperror.Wrap(err, apperror.CodeInternalError, "Failed to check tenant", http.StatusInternalServerError)
	}

	return count > 0, nil
}

func (r *registry) List(ctx context.Context) ([]*Handle, error) {
	var infos []Info
	err := r.master.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&infos).Error
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "Failed to list tenants", http.StatusInternalServerError)
	}

	handles := make([]*Handle, 0, len(infos))
	for _, info := range infos {
		h, err := r.Resolve(ctx, info.CompanyID)
		if err != nil {
			r.logger.Warn("skipping unreachable tenant",
				zap.String("company_id", info.CompanyID),
				zap.Error(err),
			)
			continue
		}
		handles = append(handles, h)
	}

	return handles, nil
}

func (r *registry) Evict(companyID string) {
	if cached, ok := r.cache.Get(companyID); ok {
		handle := cached.(*Handle)
		if handle.SQL != nil {
			_ = handle.SQL.Close()
		}
	}
	r.cache.Delete(companyID)
	r.logger.Info("tenant evicted", zap.String("company_id", companyID))
}

func (r *registry) loadInfo(ctx context.Context, companyID string) (*Info, error) {
	var info Info
	err := r.master.DB.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, tenanterrors.ErrUnknownTenant
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "Failed to load tenant", http.StatusInternalServerError)
	}
	if !info.IsActive {
		return nil, tenanterrors.ErrTenantInactive
	}

	return &info, nil
}
