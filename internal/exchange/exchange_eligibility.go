package exchange

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-workforce/internal/employee"
	exchangeerrors "go-workforce/internal/exchange/errors"
	"go-workforce/internal/shift"
	"go-workforce/internal/tenant"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// tenantContext caches resolved handles for the duration of one workflow
// operation so cross-tenant reads running concurrently share a resolution.
type tenantContext struct {
	registry tenant.Registry

	mu      sync.Mutex
	handles map[string]*tenant.Handle
}

func newTenantContext(registry tenant.Registry) *tenantContext {
	return &tenantContext{
		registry: registry,
		handles:  make(map[string]*tenant.Handle),
	}
}

func (tc *tenantContext) handle(ctx context.Context, companyID string) (*tenant.Handle, error) {
	tc.mu.Lock()
	if h, ok := tc.handles[companyID]; ok {
		tc.mu.Unlock()
		return h, nil
	}
	tc.mu.Unlock()

	h, err := tc.registry.Resolve(ctx, companyID)
	if err != nil {
		return nil, err
	}

	tc.mu.Lock()
	tc.handles[companyID] = h
	tc.mu.Unlock()
	return h, nil
}

// requesterSide is the validated half an eligibility listing or a propose
// call starts from.
type requesterSide struct {
	h   *tenant.Handle
	sh  *shift.Shift
	emp *employee.Employee
}

func (s *service) validateRequesterSide(ctx context.Context, tc *tenantContext, actor Actor, shiftID string) (*requesterSide, error) {
	h, err := tc.handle(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}

	sh, err := s.shiftRepoFor(h).FindByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, exchangeerrors.ErrShiftNotFound
		}
		return nil, err
	}
	if sh.Status != shift.StatusOpen {
		return nil, exchangeerrors.ErrShiftNotOpen
	}
	if sh.EmployeeID == nil || sh.EmployeeID.String() != actor.EmployeeID {
		return nil, exchangeerrors.ErrShiftNotOwned
	}
	if sh.ERPSlotID == nil || *sh.ERPSlotID == "" {
		return nil, exchangeerrors.ErrShiftNotLinked
	}

	emp, err := s.employeeRepoFor(h).FindByID(ctx, actor.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, exchangeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	if !emp.IsActive || emp.IsSuspended {
		return nil, exchangeerrors.ErrEmployeeInactive
	}
	if emp.UserKey == "" {
		return nil, exchangeerrors.ErrMissingUserKey
	}

	locked, err := s.repoFor(s.registry.Master()).HasPendingForShift(ctx, actor.CompanyID, shiftID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, exchangeerrors.ErrShiftAlreadyInExchange
	}

	return &requesterSide{h: h, sh: sh, emp: emp}, nil
}

func (s *service) listEligibleTargets(ctx context.Context, side *requesterSide) ([]EligibleTarget, error) {
	handles, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	var targets []EligibleTarget
	for _, h := range handles {
		h := h
		g.Go(func() error {
			batch, err := s.eligibleInTenant(gctx, side, h)
			if err != nil {
				return err
			}
			mu.Lock()
			targets = append(targets, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].CompanyID != targets[j].CompanyID {
			return targets[i].CompanyID < targets[j].CompanyID
		}
		if !targets[i].StartsAt.Equal(targets[j].StartsAt) {
			return targets[i].StartsAt.Before(targets[j].StartsAt)
		}
		return targets[i].ShiftID < targets[j].ShiftID
	})
	return targets, nil
}

// eligibleInTenant collects the swap candidates one tenant offers against
// the requester's shift. Cross-tenant candidates additionally need the
// mutual branch designations; a missing mapping excludes the candidate,
// it never default-allows.
func (s *service) eligibleInTenant(ctx context.Context, side *requesterSide, h *tenant.Handle) ([]EligibleTarget, error) {
	crossTenant := h.CompanyID != side.h.CompanyID

	var requesterThere *employee.Employee
	if crossTenant {
		row, err := s.employeeRepoFor(h).FindByUserKey(ctx, side.emp.UserKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		if !row.IsActive || row.IsSuspended {
			return nil, nil
		}
		requesterThere = row
	}

	candidates, err := s.shiftRepoFor(h).ListUpcomingAssigned(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	lockedIDs, err := s.repoFor(s.registry.Master()).ListPendingShiftIDs(ctx, h.CompanyID)
	if err != nil {
		return nil, err
	}
	locked := make(map[string]struct{}, len(lockedIDs))
	for _, id := range lockedIDs {
		locked[id] = struct{}{}
	}

	empCache := make(map[string]*employee.Employee)
	designatedHere := make(map[string]bool)

	var targets []EligibleTarget
	for i := range candidates {
		cand := &candidates[i]
		if cand.EmployeeID == nil || cand.ERPSlotID == nil || *cand.ERPSlotID == "" {
			continue
		}
		if !crossTenant && (cand.ID == side.sh.ID || *cand.EmployeeID == side.emp.ID) {
			continue
		}
		if _, isLocked := locked[cand.ID.String()]; isLocked {
			continue
		}

		candEmp, ok := empCache[cand.EmployeeID.String()]
		if !ok {
			candEmp, err = s.employeeRepoFor(h).FindByID(ctx, cand.EmployeeID.String())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					empCache[cand.EmployeeID.String()] = nil
					continue
				}
				return nil, err
			}
			empCache[cand.EmployeeID.String()] = candEmp
		}
		if candEmp == nil || !candEmp.IsActive || candEmp.IsSuspended || candEmp.UserKey == "" {
			continue
		}
		if crossTenant && candEmp.UserKey == side.emp.UserKey {
			continue
		}

		if crossTenant {
			ok, err := s.employeeRepoFor(h).HasAssignment(ctx, requesterThere.ID.String(), cand.BranchID.String())
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			designated, seen := designatedHere[candEmp.UserKey]
			if !seen {
				designated, err = s.candidateDesignatedToRequesterBranch(ctx, side, candEmp.UserKey)
				if err != nil {
					return nil, err
				}
				designatedHere[candEmp.UserKey] = designated
			}
			if !designated {
				continue
			}
		}

		targets = append(targets, EligibleTarget{
			CompanyID:    h.CompanyID,
			CompanyName:  h.Name,
			ShiftID:      cand.ID.String(),
			BranchID:     cand.BranchID.String(),
			EmployeeID:   cand.EmployeeID.String(),
			EmployeeName: candEmp.FullName,
			StartsAt:     cand.StartsAt,
			EndsAt:       cand.EndsAt,
			CrossTenant:  crossTenant,
		})
	}
	return targets, nil
}

// candidateDesignatedToRequesterBranch checks the other half of the mutual
// designation: the candidate must hold an employee row in the requester's
// company with an assignment covering the requester's branch.
func (s *service) candidateDesignatedToRequesterBranch(ctx context.Context, side *requesterSide, candUserKey string) (bool, error) {
	repo := s.employeeRepoFor(side.h)
	row, err := repo.FindByUserKey(ctx, candUserKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !row.IsActive || row.IsSuspended {
		return false, nil
	}
	return repo.HasAssignment(ctx, row.ID.String(), side.sh.BranchID.String())
}
