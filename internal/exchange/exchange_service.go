package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-workforce/internal/employee"
	"go-workforce/internal/erp"
	"go-workforce/internal/events"
	exchangeerrors "go-workforce/internal/exchange/errors"
	"go-workforce/internal/messaging/kafka"
	"go-workforce/internal/notification"
	"go-workforce/internal/shared/contextutil"
	"go-workforce/internal/shared/counter"
	"go-workforce/internal/shift"
	"go-workforce/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type RepoFunc func(h *tenant.Handle) Repository

type ShiftRepoFunc func(h *tenant.Handle) shift.Repository

type EmployeeRepoFunc func(h *tenant.Handle) employee.Repository

type OutboxFunc func(h *tenant.Handle) kafka.OutboxRepository

type CounterFunc func(h *tenant.Handle) counter.Repository

// Service drives the cross-tenant shift exchange workflow. Requests live in
// the master store; every shift or employee read goes through the owning
// tenant's handle. The stage only moves forward, and the ERP swap commits
// before any local state changes so an external failure leaves the request
// exactly where it was.
//
//go:generate mockgen -source=exchange_service.go -destination=mock/exchange_service_mock.go -package=mock
type Service interface {
	ListEligibleTargets(ctx context.Context, actor Actor, shiftID string) ([]EligibleTarget, error)
	Propose(ctx context.Context, actor Actor, in ProposeRequest) (ExchangeResponse, error)
	RespondAsEmployee(ctx context.Context, actor Actor, id string, in EmployeeRespondRequest) (ExchangeResponse, error)
	Approve(ctx context.Context, actor Actor, id string) (ExchangeResponse, error)
	RejectByApprover(ctx context.Context, actor Actor, id, reason string) (ExchangeResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (ExchangeResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]ExchangeResponse, error)
	// ListApprovalQueue returns the awaiting_hr requests the actor is
	// allowed to decide, with the approver mode recomputed per request.
	ListApprovalQueue(ctx context.Context, actor Actor) ([]ExchangeResponse, error)
}

type service struct {
	registry        tenant.Registry
	planning        erp.PlanningClient
	notifier        notification.Service
	repoFor         RepoFunc
	shiftRepoFor    ShiftRepoFunc
	employeeRepoFor EmployeeRepoFunc
	outboxFor       OutboxFunc
	countersFor     CounterFunc
	scans           singleflight.Group
	logger          *zap.Logger
}

func NewService(
	registry tenant.Registry,
	planning erp.PlanningClient,
	notifier notification.Service,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithRepos(
		registry, planning, notifier,
		func(h *tenant.Handle) Repository { return NewRepository(h.DB) },
		func(h *tenant.Handle) shift.Repository { return shift.NewRepository(h.DB) },
		func(h *tenant.Handle) employee.Repository { return employee.NewRepository(h.DB) },
		func(h *tenant.Handle) kafka.OutboxRepository { return kafka.NewOutboxRepository(h.DB) },
		func(h *tenant.Handle) counter.Repository { return counter.NewRepository(h.DB) },
		logger...,
	)
}

func NewServiceWithRepos(
	registry tenant.Registry,
	planning erp.PlanningClient,
	notifier notification.Service,
	repoFor RepoFunc,
	shiftRepoFor ShiftRepoFunc,
	employeeRepoFor EmployeeRepoFunc,
	outboxFor OutboxFunc,
	countersFor CounterFunc,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("exchange.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("exchange.service")
	}
	return &service{
		registry:        registry,
		planning:        planning,
		notifier:        notifier,
		repoFor:         repoFor,
		shiftRepoFor:    shiftRepoFor,
		employeeRepoFor: employeeRepoFor,
		outboxFor:       outboxFor,
		countersFor:     countersFor,
		logger:          l,
	}
}

func (s *service) ListEligibleTargets(ctx context.Context, actor Actor, shiftID string) ([]EligibleTarget, error) {
	if _, err := uuid.Parse(shiftID); err != nil {
		return nil, exchangeerrors.ErrInvalidShiftID
	}

	// Identical concurrent scans collapse to a single pass over the tenants.
	key := actor.CompanyID + ":" + actor.EmployeeID + ":" + shiftID
	v, err, _ := s.scans.Do(key, func() (any, error) {
		tc := newTenantContext(s.registry)
		side, err := s.validateRequesterSide(ctx, tc, actor, shiftID)
		if err != nil {
			return nil, err
		}
		return s.listEligibleTargets(ctx, side)
	})
	if err != nil {
		return nil, err
	}
	return v.([]EligibleTarget), nil
}

func (s *service) Propose(ctx context.Context, actor Actor, in ProposeRequest) (ExchangeResponse, error) {
	tc := newTenantContext(s.registry)

	side, err := s.validateRequesterSide(ctx, tc, actor, in.ShiftID)
	if err != nil {
		return ExchangeResponse{}, err
	}

	// Eligibility is recomputed here for the submitted pair instead of
	// trusting whatever listing the client last saw.
	th, target, targetEmp, err := s.validateTargetSide(ctx, tc, side, in.TargetCompanyID, in.TargetShiftID)
	if err != nil {
		return ExchangeResponse{}, err
	}

	master := s.registry.Master()
	seq, err := s.countersFor(master).GetNextValue(ctx, "master", "exchange_request")
	if err != nil {
		return ExchangeResponse{}, err
	}

	row := &ExchangeRequest{
		ID:        uuid.New(),
		Reference: fmt.Sprintf("EXR-%06d", seq),
		Requester: Party{
			CompanyID:  side.h.CompanyID,
			ShiftID:    side.sh.ID,
			EmployeeID: side.emp.ID,
			UserKey:    side.emp.UserKey,
			BranchID:   side.sh.BranchID,
		},
		Acceptor: Party{
			CompanyID:  th.CompanyID,
			ShiftID:    target.ID,
			EmployeeID: targetEmp.ID,
			UserKey:    targetEmp.UserKey,
			BranchID:   target.BranchID,
		},
		Status:        StatusPending,
		ApprovalStage: StageAwaitingEmployee,
	}

	err = master.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repoFor(master).WithTx(tx).Create(ctx, row); err != nil {
			return err
		}
		return s.outboxFor(master).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, row, events.ExchangeProposed))
	})
	if err != nil {
		s.logger.Error("exchange propose persist failed",
			zap.String("reference", row.Reference),
			zap.Error(err),
		)
		return ExchangeResponse{}, err
	}

	s.logger.Info("exchange proposed",
		zap.String("exchange_id", row.ID.String()),
		zap.String("reference", row.Reference),
		zap.String("requester_company_id", row.Requester.CompanyID),
		zap.String("acceptor_company_id", row.Acceptor.CompanyID),
		zap.Bool("cross_tenant", row.IsCrossTenant()),
	)
	s.notifyParty(ctx, tc, row.Acceptor, notification.Input{
		Title:    "Shift exchange proposed",
		Message:  "A colleague proposed taking over one of your shifts. Review exchange " + row.Reference + ".",
		Severity: notification.SeverityInfo,
		Link:     "/exchanges/" + row.ID.String(),
	})
	return mapToResponse(*row, ""), nil
}

func (s *service) validateTargetSide(
	ctx context.Context,
	tc *tenantContext,
	side *requesterSide,
	targetCompanyID, targetShiftID string,
) (*tenant.Handle, *shift.Shift, *employee.Employee, error) {
	th, err := tc.handle(ctx, targetCompanyID)
	if err != nil {
		return nil, nil, nil, err
	}
	crossTenant := th.CompanyID != side.h.CompanyID

	target, err := s.shiftRepoFor(th).FindByID(ctx, targetShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, exchangeerrors.ErrShiftNotFound
		}
		return nil, nil, nil, err
	}
	if !crossTenant && target.ID == side.sh.ID {
		return nil, nil, nil, exchangeerrors.ErrSelfExchange
	}
	if target.Status != shift.StatusOpen {
		return nil, nil, nil, exchangeerrors.ErrShiftNotOpen
	}
	if target.EmployeeID == nil {
		return nil, nil, nil, exchangeerrors.ErrShiftUnassigned
	}
	if target.ERPSlotID == nil || *target.ERPSlotID == "" {
		return nil, nil, nil, exchangeerrors.ErrShiftNotLinked
	}

	locked, err := s.repoFor(s.registry.Master()).HasPendingForShift(ctx, th.CompanyID, target.ID.String())
	if err != nil {
		return nil, nil, nil, err
	}
	if locked {
		return nil, nil, nil, exchangeerrors.ErrShiftAlreadyInExchange
	}

	targetEmp, err := s.employeeRepoFor(th).FindByID(ctx, target.EmployeeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, exchangeerrors.ErrEmployeeNotFound
		}
		return nil, nil, nil, err
	}
	if !targetEmp.IsActive || targetEmp.IsSuspended {
		return nil, nil, nil, exchangeerrors.ErrEmployeeInactive
	}
	if targetEmp.UserKey == "" {
		return nil, nil, nil, exchangeerrors.ErrMissingUserKey
	}
	if !crossTenant && targetEmp.ID == side.emp.ID {
		return nil, nil, nil, exchangeerrors.ErrSelfExchange
	}
	if crossTenant && targetEmp.UserKey == side.emp.UserKey {
		return nil, nil, nil, exchangeerrors.ErrSelfExchange
	}

	if crossTenant {
		requesterThere, err := s.employeeRepoFor(th).FindByUserKey(ctx, side.emp.UserKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, nil, exchangeerrors.ErrTargetNotEligible
			}
			return nil, nil, nil, err
		}
		if !requesterThere.IsActive || requesterThere.IsSuspended {
			return nil, nil, nil, exchangeerrors.ErrTargetNotEligible
		}
		designated, err := s.employeeRepoFor(th).HasAssignment(ctx, requesterThere.ID.String(), target.BranchID.String())
		if err != nil {
			return nil, nil, nil, err
		}
		if !designated {
			return nil, nil, nil, exchangeerrors.ErrTargetNotEligible
		}

		designated, err = s.candidateDesignatedToRequesterBranch(ctx, side, targetEmp.UserKey)
		if err != nil {
			return nil, nil, nil, err
		}
		if !designated {
			return nil, nil, nil, exchangeerrors.ErrTargetNotEligible
		}
	}

	return th, target, targetEmp, nil
}

func (s *service) RespondAsEmployee(ctx context.Context, actor Actor, id string, in EmployeeRespondRequest) (ExchangeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ExchangeResponse{}, exchangeerrors.ErrInvalidRequestID
	}

	master := s.registry.Master()
	req, err := s.repoFor(master).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExchangeResponse{}, exchangeerrors.ErrRequestNotFound
		}
		return ExchangeResponse{}, err
	}
	if req.ApprovalStage != StageAwaitingEmployee {
		return ExchangeResponse{}, exchangeerrors.ErrStaleStage
	}
	if req.Acceptor.UserKey != actor.UserKey {
		return ExchangeResponse{}, exchangeerrors.ErrNotRequestActor
	}
	if !in.Accept && (in.Reason == nil || *in.Reason == "") {
		return ExchangeResponse{}, exchangeerrors.ErrRejectionReasonRequired
	}

	now := time.Now().UTC()
	eventType := events.ExchangeEmployeeAccepted
	if !in.Accept {
		eventType = events.ExchangeEmployeeRejected
	}

	var out *ExchangeRequest
	err = master.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repoFor(master).WithTx(tx)
		fresh, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh.ApprovalStage != StageAwaitingEmployee {
			return exchangeerrors.ErrStaleStage
		}

		fresh.EmployeeRespondedAt = &now
		if in.Accept {
			fresh.ApprovalStage = StageAwaitingHR
		} else {
			fresh.Status = StatusRejected
			fresh.ApprovalStage = StageResolved
			fresh.RejectionReason = in.Reason
			fresh.ResolvedAt = &now
			fresh.ResolvedByUserKey = &actor.UserKey
		}
		if err := repo.Update(ctx, fresh); err != nil {
			return err
		}
		out = fresh
		return s.outboxFor(master).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, fresh, eventType))
	})
	if err != nil {
		return ExchangeResponse{}, err
	}

	tc := newTenantContext(s.registry)
	if !in.Accept {
		s.logger.Info("exchange rejected by employee",
			zap.String("exchange_id", out.ID.String()),
			zap.String("reference", out.Reference),
		)
		s.notifyParty(ctx, tc, out.Requester, notification.Input{
			Title:    "Shift exchange declined",
			Message:  "Exchange " + out.Reference + " was declined by the other employee.",
			Severity: notification.SeverityWarning,
			Link:     "/exchanges/" + out.ID.String(),
		})
		return mapToResponse(*out, ""), nil
	}

	s.logger.Info("exchange accepted by employee",
		zap.String("exchange_id", out.ID.String()),
		zap.String("reference", out.Reference),
	)
	mode := s.notifyApprovers(ctx, tc, out)
	return mapToResponse(*out, mode), nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id string) (ExchangeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ExchangeResponse{}, exchangeerrors.ErrInvalidRequestID
	}

	master := s.registry.Master()
	req, err := s.repoFor(master).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExchangeResponse{}, exchangeerrors.ErrRequestNotFound
		}
		return ExchangeResponse{}, err
	}
	if req.ApprovalStage != StageAwaitingHR {
		return ExchangeResponse{}, exchangeerrors.ErrStaleStage
	}

	tc := newTenantContext(s.registry)
	mode, err := s.authorizeApprover(ctx, tc, req, actor)
	if err != nil {
		return ExchangeResponse{}, err
	}

	plan, err := s.revalidateForCommit(ctx, tc, req)
	if err != nil {
		return ExchangeResponse{}, err
	}

	// The ERP swap runs before any local write. A failure anywhere in the
	// sequence aborts here and the request stays untouched in awaiting_hr,
	// ready for another approval attempt.
	if err := s.commitSwapToERP(ctx, plan); err != nil {
		s.logger.Error("exchange erp commit aborted",
			zap.String("exchange_id", req.ID.String()),
			zap.String("reference", req.Reference),
			zap.Error(err),
		)
		return ExchangeResponse{}, err
	}

	now := time.Now().UTC()
	var out *ExchangeRequest
	err = master.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repoFor(master).WithTx(tx)
		fresh, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh.ApprovalStage != StageAwaitingHR {
			return exchangeerrors.ErrStaleStage
		}

		fresh.Status = StatusApproved
		fresh.ApprovalStage = StageResolved
		fresh.ResolvedAt = &now
		fresh.ResolvedByUserKey = &actor.UserKey
		if err := repo.Update(ctx, fresh); err != nil {
			return err
		}
		out = fresh
		return s.outboxFor(master).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, fresh, events.ExchangeApproved))
	})
	if err != nil {
		return ExchangeResponse{}, err
	}

	s.logger.Info("exchange approved",
		zap.String("exchange_id", out.ID.String()),
		zap.String("reference", out.Reference),
		zap.String("resolved_by", actor.UserKey),
		zap.String("approver_mode", mode),
	)
	s.notifyBothParties(ctx, tc, out, notification.Input{
		Title:    "Shift exchange approved",
		Message:  "Exchange " + out.Reference + " was approved. Your schedules have been swapped.",
		Severity: notification.SeverityInfo,
		Link:     "/exchanges/" + out.ID.String(),
	})
	return mapToResponse(*out, mode), nil
}

func (s *service) RejectByApprover(ctx context.Context, actor Actor, id, reason string) (ExchangeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ExchangeResponse{}, exchangeerrors.ErrInvalidRequestID
	}
	if reason == "" {
		return ExchangeResponse{}, exchangeerrors.ErrRejectionReasonRequired
	}

	master := s.registry.Master()
	req, err := s.repoFor(master).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExchangeResponse{}, exchangeerrors.ErrRequestNotFound
		}
		return ExchangeResponse{}, err
	}
	if req.ApprovalStage != StageAwaitingHR {
		return ExchangeResponse{}, exchangeerrors.ErrStaleStage
	}

	tc := newTenantContext(s.registry)
	mode, err := s.authorizeApprover(ctx, tc, req, actor)
	if err != nil {
		return ExchangeResponse{}, err
	}

	now := time.Now().UTC()
	var out *ExchangeRequest
	err = master.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repoFor(master).WithTx(tx)
		fresh, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh.ApprovalStage != StageAwaitingHR {
			return exchangeerrors.ErrStaleStage
		}

		fresh.Status = StatusRejected
		fresh.ApprovalStage = StageResolved
		fresh.RejectionReason = &reason
		fresh.ResolvedAt = &now
		fresh.ResolvedByUserKey = &actor.UserKey
		if err := repo.Update(ctx, fresh); err != nil {
			return err
		}
		out = fresh
		return s.outboxFor(master).WithTx(tx).Create(ctx, s.lifecycleEvent(ctx, fresh, events.ExchangeRejected))
	})
	if err != nil {
		return ExchangeResponse{}, err
	}

	s.logger.Info("exchange rejected by approver",
		zap.String("exchange_id", out.ID.String()),
		zap.String("reference", out.Reference),
		zap.String("resolved_by", actor.UserKey),
	)
	s.notifyBothParties(ctx, tc, out, notification.Input{
		Title:    "Shift exchange rejected",
		Message:  "Exchange " + out.Reference + " was rejected: " + reason,
		Severity: notification.SeverityWarning,
		Link:     "/exchanges/" + out.ID.String(),
	})
	return mapToResponse(*out, mode), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (ExchangeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ExchangeResponse{}, exchangeerrors.ErrInvalidRequestID
	}

	req, err := s.repoFor(s.registry.Master()).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ExchangeResponse{}, exchangeerrors.ErrRequestNotFound
		}
		return ExchangeResponse{}, err
	}

	tc := newTenantContext(s.registry)
	isParty := actor.UserKey == req.Requester.UserKey || actor.UserKey == req.Acceptor.UserKey

	mode := ""
	if req.ApprovalStage == StageAwaitingHR {
		if isParty {
			mode, err = s.resolveApproverMode(ctx, tc, req)
			if err != nil {
				return ExchangeResponse{}, err
			}
		} else {
			mode, err = s.authorizeApprover(ctx, tc, req, actor)
			if err != nil {
				return ExchangeResponse{}, err
			}
		}
	} else if !isParty {
		if _, err := s.authorizeApprover(ctx, tc, req, actor); err != nil {
			return ExchangeResponse{}, err
		}
	}

	return mapToResponse(*req, mode), nil
}

func (s *service) ListMine(ctx context.Context, actor Actor) ([]ExchangeResponse, error) {
	rows, err := s.repoFor(s.registry.Master()).ListForUserKey(ctx, actor.UserKey)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) ListApprovalQueue(ctx context.Context, actor Actor) ([]ExchangeResponse, error) {
	rows, err := s.repoFor(s.registry.Master()).ListByStage(ctx, StageAwaitingHR)
	if err != nil {
		return nil, err
	}

	tc := newTenantContext(s.registry)
	facts := make(map[string]*companyFacts)

	out := make([]ExchangeResponse, 0)
	for i := range rows {
		req := &rows[i]

		accessible := true
		hrExists := false
		roleMatched := false
		for _, companyID := range req.CompanyIDs() {
			f, err := s.companyFactsFor(ctx, tc, facts, companyID, actor.UserKey)
			if err != nil {
				return nil, err
			}
			if f.unreachable || f.actorRow == nil {
				accessible = false
				break
			}
			hrExists = hrExists || f.hrExists
		}
		if !accessible {
			continue
		}

		mode := ApproverModeManagement
		if hrExists {
			mode = ApproverModeHR
		}
		role := RoleForApproverMode(mode)
		for _, companyID := range req.CompanyIDs() {
			if facts[companyID].actorRow.Role == role {
				roleMatched = true
			}
		}
		if !roleMatched {
			continue
		}

		out = append(out, mapToResponse(*req, mode))
	}
	return out, nil
}

// companyFacts memoizes per-company lookups while filtering the approval
// queue so n requests over the same two companies cost one round of reads.
type companyFacts struct {
	unreachable bool
	hrExists    bool
	actorRow    *employee.Employee
}

func (s *service) companyFactsFor(
	ctx context.Context,
	tc *tenantContext,
	facts map[string]*companyFacts,
	companyID, userKey string,
) (*companyFacts, error) {
	if f, ok := facts[companyID]; ok {
		return f, nil
	}

	f := &companyFacts{}
	facts[companyID] = f

	h, err := tc.handle(ctx, companyID)
	if err != nil {
		s.logger.Warn("approval queue skips unreachable company",
			zap.String("company_id", companyID),
			zap.Error(err),
		)
		f.unreachable = true
		return f, nil
	}

	hrRows, err := s.employeeRepoFor(h).ListActiveByRole(ctx, employee.RoleHR)
	if err != nil {
		return nil, err
	}
	f.hrExists = len(hrRows) > 0

	row, err := s.employeeRepoFor(h).FindByUserKey(ctx, userKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return f, nil
		}
		return nil, err
	}
	if row.IsActive && !row.IsSuspended {
		f.actorRow = row
	}
	return f, nil
}

// resolveApproverMode picks HR when any active HR-designated employee
// exists in either company and falls back to management otherwise. It is
// recomputed per action, never persisted.
func (s *service) resolveApproverMode(ctx context.Context, tc *tenantContext, req *ExchangeRequest) (string, error) {
	for _, companyID := range req.CompanyIDs() {
		h, err := tc.handle(ctx, companyID)
		if err != nil {
			return "", err
		}
		rows, err := s.employeeRepoFor(h).ListActiveByRole(ctx, employee.RoleHR)
		if err != nil {
			return "", err
		}
		if len(rows) > 0 {
			return ApproverModeHR, nil
		}
	}
	return ApproverModeManagement, nil
}

// authorizeApprover requires an active, unsuspended employee row for the
// actor in every company the request spans, holding the resolved approver
// role in at least one of them.
func (s *service) authorizeApprover(ctx context.Context, tc *tenantContext, req *ExchangeRequest, actor Actor) (string, error) {
	mode, err := s.resolveApproverMode(ctx, tc, req)
	if err != nil {
		return "", err
	}

	role := RoleForApproverMode(mode)
	roleMatched := false
	for _, companyID := range req.CompanyIDs() {
		h, err := tc.handle(ctx, companyID)
		if err != nil {
			return "", err
		}
		row, err := s.employeeRepoFor(h).FindByUserKey(ctx, actor.UserKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", exchangeerrors.ErrApproverAccessDenied
			}
			return "", err
		}
		if !row.IsActive || row.IsSuspended {
			return "", exchangeerrors.ErrApproverAccessDenied
		}
		if row.Role == role {
			roleMatched = true
		}
	}
	if !roleMatched {
		return "", exchangeerrors.ErrApproverRoleMismatch
	}
	return mode, nil
}

type commitSide struct {
	h   *tenant.Handle
	sh  *shift.Shift
	emp *employee.Employee
}

type commitPlan struct {
	requester commitSide
	acceptor  commitSide
}

// revalidateForCommit reloads both sides concurrently and re-checks every
// precondition the swap depends on, since anything can have changed while
// the request sat in the approval queue.
func (s *service) revalidateForCommit(ctx context.Context, tc *tenantContext, req *ExchangeRequest) (*commitPlan, error) {
	plan := &commitPlan{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		side, err := s.loadCommitSide(gctx, tc, req.Requester)
		if err != nil {
			return err
		}
		plan.requester = side
		return nil
	})
	g.Go(func() error {
		side, err := s.loadCommitSide(gctx, tc, req.Acceptor)
		if err != nil {
			return err
		}
		plan.acceptor = side
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *service) loadCommitSide(ctx context.Context, tc *tenantContext, p Party) (commitSide, error) {
	h, err := tc.handle(ctx, p.CompanyID)
	if err != nil {
		return commitSide{}, err
	}
	if h.ERPCompanyID == 0 {
		return commitSide{}, exchangeerrors.ErrCompanyNotMapped
	}

	sh, err := s.shiftRepoFor(h).FindByID(ctx, p.ShiftID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return commitSide{}, exchangeerrors.ErrShiftNotFound
		}
		return commitSide{}, err
	}
	if sh.Status != shift.StatusOpen {
		return commitSide{}, exchangeerrors.ErrShiftNotOpen
	}
	if sh.EmployeeID == nil || *sh.EmployeeID != p.EmployeeID {
		return commitSide{}, exchangeerrors.ErrShiftReassigned
	}
	if sh.ERPSlotID == nil || *sh.ERPSlotID == "" {
		return commitSide{}, exchangeerrors.ErrShiftNotLinked
	}

	emp, err := s.employeeRepoFor(h).FindByID(ctx, p.EmployeeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return commitSide{}, exchangeerrors.ErrEmployeeNotFound
		}
		return commitSide{}, err
	}
	if !emp.IsActive || emp.IsSuspended {
		return commitSide{}, exchangeerrors.ErrEmployeeInactive
	}
	if emp.UserKey == "" {
		return commitSide{}, exchangeerrors.ErrMissingUserKey
	}

	return commitSide{h: h, sh: sh, emp: emp}, nil
}

// commitSwapToERP swaps the two planning slots in four stages: draft both
// slots, resolve each employee's resource id inside the other company,
// cross-assign the resources, publish both slots. The first failing call
// aborts the rest; there is no compensating rollback, the draft and
// publish calls are idempotent on the ERP side and a retry rides the same
// sequence again.
func (s *service) commitSwapToERP(ctx context.Context, plan *commitPlan) error {
	reqSide, accSide := plan.requester, plan.acceptor
	reqSlot := *reqSide.sh.ERPSlotID
	accSlot := *accSide.sh.ERPSlotID

	if err := s.planning.SetPlanningSlotState(ctx, reqSide.h.ERPCompanyID, reqSlot, erp.SlotStateDraft); err != nil {
		return err
	}
	if err := s.planning.SetPlanningSlotState(ctx, accSide.h.ERPCompanyID, accSlot, erp.SlotStateDraft); err != nil {
		return err
	}

	requesterResource, err := s.planning.ResolveResourceID(ctx, accSide.h.ERPCompanyID, reqSide.emp.UserKey)
	if err != nil {
		return err
	}
	acceptorResource, err := s.planning.ResolveResourceID(ctx, reqSide.h.ERPCompanyID, accSide.emp.UserKey)
	if err != nil {
		return err
	}

	if err := s.planning.SetPlanningSlotResource(ctx, reqSide.h.ERPCompanyID, reqSlot, acceptorResource); err != nil {
		return err
	}
	if err := s.planning.SetPlanningSlotResource(ctx, accSide.h.ERPCompanyID, accSlot, requesterResource); err != nil {
		return err
	}

	if err := s.planning.SetPlanningSlotState(ctx, reqSide.h.ERPCompanyID, reqSlot, erp.SlotStatePublished); err != nil {
		return err
	}
	return s.planning.SetPlanningSlotState(ctx, accSide.h.ERPCompanyID, accSlot, erp.SlotStatePublished)
}

// notifyApprovers resolves the approver pool and notifies each member,
// excluding the two employees. Returns the resolved mode.
func (s *service) notifyApprovers(ctx context.Context, tc *tenantContext, req *ExchangeRequest) string {
	mode, err := s.resolveApproverMode(ctx, tc, req)
	if err != nil {
		s.logger.Warn("approver pool resolution failed",
			zap.String("exchange_id", req.ID.String()),
			zap.Error(err),
		)
		return ""
	}

	role := RoleForApproverMode(mode)
	in := notification.Input{
		Title:    "Shift exchange awaiting approval",
		Message:  "Exchange " + req.Reference + " was accepted by both employees and needs a decision.",
		Severity: notification.SeverityInfo,
		Link:     "/exchanges/" + req.ID.String(),
	}
	for _, companyID := range req.CompanyIDs() {
		h, err := tc.handle(ctx, companyID)
		if err != nil {
			s.logger.Warn("approver notification skipped unreachable company",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			continue
		}
		rows, err := s.employeeRepoFor(h).ListActiveByRole(ctx, role)
		if err != nil {
			s.logger.Warn("approver listing failed",
				zap.String("company_id", companyID),
				zap.Error(err),
			)
			continue
		}
		for _, row := range rows {
			if row.UserKey == req.Requester.UserKey || row.UserKey == req.Acceptor.UserKey {
				continue
			}
			s.notifier.Notify(ctx, h, row.ID.String(), in)
		}
	}
	return mode
}

func (s *service) notifyBothParties(ctx context.Context, tc *tenantContext, req *ExchangeRequest, in notification.Input) {
	s.notifyParty(ctx, tc, req.Requester, in)
	s.notifyParty(ctx, tc, req.Acceptor, in)
}

func (s *service) notifyParty(ctx context.Context, tc *tenantContext, p Party, in notification.Input) {
	h, err := tc.handle(ctx, p.CompanyID)
	if err != nil {
		s.logger.Warn("party notification skipped unreachable company",
			zap.String("company_id", p.CompanyID),
			zap.Error(err),
		)
		return
	}
	s.notifier.Notify(ctx, h, p.EmployeeID.String(), in)
}

func (s *service) lifecycleEvent(ctx context.Context, r *ExchangeRequest, eventType string) kafka.OutboxEvent {
	payload, _ := json.Marshal(events.ExchangeLifecycleEvent{
		EventType:          eventType,
		RequestID:          r.ID.String(),
		Reference:          r.Reference,
		RequesterCompanyID: r.Requester.CompanyID,
		AcceptorCompanyID:  r.Acceptor.CompanyID,
		Status:             r.Status,
		ApprovalStage:      r.ApprovalStage,
		OccurredAt:         time.Now().UTC(),
	})
	return kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "shift_exchange_request",
		AggregateID:   r.ID.String(),
		EventType:     eventType,
		Topic:         events.ExchangeLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}
}
