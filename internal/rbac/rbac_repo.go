package rbac

import (
	"context"
	"errors"

	"go-workforce/internal/employee"
	"go-workforce/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock

// Repository answers which role an employee currently acts under in a
// company. An empty role means the subject cannot act at all.
type Repository interface {
	GetEmployeeRole(ctx context.Context, companyID, employeeID string) (string, error)
}

type repository struct {
	registry        tenant.Registry
	employeeRepoFor func(h *tenant.Handle) employee.Repository
}

func NewRepository(registry tenant.Registry) Repository {
	return &repository{
		registry:        registry,
		employeeRepoFor: func(h *tenant.Handle) employee.Repository { return employee.NewRepository(h.DB) },
	}
}

func (r *repository) GetEmployeeRole(ctx context.Context, companyID, employeeID string) (string, error) {
	h, err := r.registry.Resolve(ctx, companyID)
	if err != nil {
		return "", err
	}

	emp, err := r.employeeRepoFor(h).FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if !emp.IsActive || emp.IsSuspended {
		return "", nil
	}
	return emp.Role, nil
}
