package rbac

import (
	"context"
	"sync"

	rbacerrors "go-workforce/internal/rbac/errors"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(ctx context.Context, companyID, employeeID, resource, action string) (bool, error)
	PermissionsFor(ctx context.Context, companyID, employeeID string) (PermissionsResponse, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &service{
		repo:     repo,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) Enforce(ctx context.Context, companyID, employeeID, resource, action string) (bool, error) {
	role, err := s.repo.GetEmployeeRole(ctx, companyID, employeeID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadPolicyUnlocked(companyID, employeeID, role); err != nil {
		return false, err
	}
	allowed, err := s.enforcer.Enforce(employeeID, companyID, resource, action)
	if err != nil {
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("role", role),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

// loadPolicyUnlocked rebuilds the enforcer for one subject in one company.
// The matrix is static, only the subject grouping changes per request.
func (s *service) loadPolicyUnlocked(companyID, employeeID, role string) error {
	s.enforcer.ClearPolicy()

	if _, err := s.enforcer.AddGroupingPolicy(employeeID, role, companyID); err != nil {
		return err
	}
	for _, link := range roleInheritance {
		if _, err := s.enforcer.AddGroupingPolicy(link.Role, link.Inherits, companyID); err != nil {
			return err
		}
	}
	for _, rule := range rolePolicies {
		if _, err := s.enforcer.AddPolicy(rule.Role, companyID, rule.Resource, rule.Action); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) PermissionsFor(ctx context.Context, companyID, employeeID string) (PermissionsResponse, error) {
	role, err := s.repo.GetEmployeeRole(ctx, companyID, employeeID)
	if err != nil {
		return PermissionsResponse{}, err
	}
	if role == "" {
		return PermissionsResponse{}, rbacerrors.ErrNoActingRole
	}
	return mapToPermissionsResponse(role, grantsFor(role)), nil
}
