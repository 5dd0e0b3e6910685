package employee

import (
	"context"
	"errors"

	employeeerrors "go-workforce/internal/employee/errors"
	"go-workforce/internal/realtime"
	"go-workforce/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RepoFunc builds the employee repository for a tenant handle. Tests swap
// in fakes here.
type RepoFunc func(h *tenant.Handle) Repository

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	GetByUserKey(ctx context.Context, h *tenant.Handle, userKey string) (EmployeeResponse, error)
	// ReassignWorkBranches rewrites the employee's branch designations after
	// a check-in: every non-home assignment to another branch is dropped and
	// the checked-in branch is added when missing. Runs in one transaction;
	// the rewritten set is pushed to the employee's live session afterwards.
	ReassignWorkBranches(ctx context.Context, h *tenant.Handle, employeeID, branchID string) ([]string, error)
}

type service struct {
	repoFor  RepoFunc
	sessions SessionStore
	rt       realtime.Publisher
	logger   *zap.Logger
}

func NewService(sessions SessionStore, rt realtime.Publisher, logger ...*zap.Logger) Service {
	return NewServiceWithRepos(func(h *tenant.Handle) Repository {
		return NewRepository(h.DB)
	}, sessions, rt, logger...)
}

func NewServiceWithRepos(repoFor RepoFunc, sessions SessionStore, rt realtime.Publisher, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		repoFor:  repoFor,
		sessions: sessions,
		rt:       rt,
		logger:   l,
	}
}

func (s *service) GetByUserKey(ctx context.Context, h *tenant.Handle, userKey string) (EmployeeResponse, error) {
	emp, err := s.repoFor(h).FindByUserKey(ctx, userKey)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*emp), nil
}

func (s *service) ReassignWorkBranches(ctx context.Context, h *tenant.Handle, employeeID, branchID string) ([]string, error) {
	s.logger.Debug("reassign work branches requested",
		zap.String("company_id", h.CompanyID),
		zap.String("employee_id", employeeID),
		zap.String("branch_id", branchID),
	)

	branchUUID, err := uuid.Parse(branchID)
	if err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}

	var finalBranches []string

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repoFor(h).WithTx(tx)

		emp, err := repo.FindByID(ctx, employeeID)
		if err != nil {
			return mapRepositoryError(err)
		}

		assignments, err := repo.ListAssignments(ctx, employeeID)
		if err != nil {
			return err
		}

		var toRemove []string
		hasCheckedInBranch := false
		for _, a := range assignments {
			if a.BranchID.String() == branchID {
				hasCheckedInBranch = true
				continue
			}
			if !a.IsHome {
				toRemove = append(toRemove, a.ID.String())
			}
		}

		if err := repo.DeleteAssignments(ctx, toRemove); err != nil {
			return err
		}

		if !hasCheckedInBranch {
			if err := repo.CreateAssignment(ctx, &BranchAssignment{
				ID:         uuid.New(),
				EmployeeID: emp.ID,
				BranchID:   branchUUID,
				IsHome:     false,
			}); err != nil {
				return err
			}
		}

		removed := make(map[string]bool, len(toRemove))
		for _, id := range toRemove {
			removed[id] = true
		}

		finalBranches = finalBranches[:0]
		for _, a := range assignments {
			if removed[a.ID.String()] {
				continue
			}
			finalBranches = append(finalBranches, a.BranchID.String())
		}
		if !hasCheckedInBranch {
			finalBranches = append(finalBranches, branchID)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("reassign work branches failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return nil, err
	}

	// Session push is best effort, the rewritten rows are already committed.
	if s.sessions != nil {
		if err := s.sessions.SetWorkBranches(ctx, h.CompanyID, employeeID, finalBranches); err != nil {
			s.logger.Warn("push work branches to session failed",
				zap.String("employee_id", employeeID),
				zap.Error(err),
			)
		}
	}
	if s.rt != nil {
		_ = s.rt.Publish(ctx, h.CompanyID, realtime.UserRoom(employeeID), "work_branches_updated", WorkBranchesResponse{
			EmployeeID: employeeID,
			BranchIDs:  finalBranches,
		})
	}

	s.logger.Info("work branches reassigned",
		zap.String("company_id", h.CompanyID),
		zap.String("employee_id", employeeID),
		zap.Int("branch_count", len(finalBranches)),
	)

	return finalBranches, nil
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}
	return err
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:          e.ID.String(),
		FullName:    e.FullName,
		Email:       e.Email,
		UserKey:     e.UserKey,
		Role:        e.Role,
		IsActive:    e.IsActive,
		IsSuspended: e.IsSuspended,
	}
	if e.HomeBranchID != nil {
		resp.HomeBranchID = e.HomeBranchID.String()
	}
	return resp
}
