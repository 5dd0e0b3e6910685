package erpsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-workforce/internal/authorization"
	"go-workforce/internal/branch"
	"go-workforce/internal/employee"
	erpsyncerrors "go-workforce/internal/erpsync/errors"
	"go-workforce/internal/pos"
	"go-workforce/internal/realtime"
	"go-workforce/internal/shift"
	"go-workforce/internal/tenant"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BranchRepoFunc func(h *tenant.Handle) branch.Repository

type EmployeeRepoFunc func(h *tenant.Handle) employee.Repository

type ShiftRepoFunc func(h *tenant.Handle) shift.Repository

type ShiftLogRepoFunc func(h *tenant.Handle) shift.LogRepository

// Service normalizes raw ERP events into tenant records. Each operation is
// safe under at-least-once delivery: attendance dedupes on the punch id and
// then reruns the idempotent tail, shift upserts diff tracked fields and
// no-op when nothing changed, deletes tolerate an absent row.
//
//go:generate mockgen -source=erpsync_service.go -destination=mock/erpsync_service_mock.go -package=mock
type Service interface {
	IngestAttendance(ctx context.Context, h *tenant.Handle, p AttendancePayload) (AttendanceResult, error)
	IngestShift(ctx context.Context, h *tenant.Handle, p ShiftPayload) (ShiftSyncResult, error)
	IngestShiftDelete(ctx context.Context, h *tenant.Handle, p ShiftDeletePayload) error
	IngestPOSSession(ctx context.Context, h *tenant.Handle, p POSSessionPayload) (bool, error)
	IngestPOSOrder(ctx context.Context, h *tenant.Handle, p POSOrderPayload) (bool, error)
}

type service struct {
	branchRepoFor   BranchRepoFunc
	employeeRepoFor EmployeeRepoFunc
	shiftRepoFor    ShiftRepoFunc
	logRepoFor      ShiftLogRepoFunc
	employees       employee.Service
	authz           authorization.Service
	posEvents       pos.Service
	rt              realtime.Publisher
	logger          *zap.Logger
}

func NewService(
	employees employee.Service,
	authz authorization.Service,
	posEvents pos.Service,
	rt realtime.Publisher,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithRepos(
		func(h *tenant.Handle) branch.Repository { return branch.NewRepository(h.DB) },
		func(h *tenant.Handle) employee.Repository { return employee.NewRepository(h.DB) },
		func(h *tenant.Handle) shift.Repository { return shift.NewRepository(h.DB) },
		func(h *tenant.Handle) shift.LogRepository { return shift.NewLogRepository(h.DB) },
		employees, authz, posEvents, rt,
		logger...,
	)
}

func NewServiceWithRepos(
	branchRepoFor BranchRepoFunc,
	employeeRepoFor EmployeeRepoFunc,
	shiftRepoFor ShiftRepoFunc,
	logRepoFor ShiftLogRepoFunc,
	employees employee.Service,
	authz authorization.Service,
	posEvents pos.Service,
	rt realtime.Publisher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("erpsync.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("erpsync.service")
	}
	return &service{
		branchRepoFor:   branchRepoFor,
		employeeRepoFor: employeeRepoFor,
		shiftRepoFor:    shiftRepoFor,
		logRepoFor:      logRepoFor,
		employees:       employees,
		authz:           authz,
		posEvents:       posEvents,
		rt:              rt,
		logger:          l,
	}
}

func (s *service) IngestAttendance(ctx context.Context, h *tenant.Handle, p AttendancePayload) (AttendanceResult, error) {
	if p.Type != PunchIn && p.Type != PunchOut {
		return AttendanceResult{}, erpsyncerrors.ErrInvalidPunchType
	}
	logType := shift.LogCheckIn
	if p.Type == PunchOut {
		logType = shift.LogCheckOut
	}

	br, err := s.resolveBranch(ctx, h, p.ERPBranchID)
	if err != nil {
		return AttendanceResult{}, err
	}

	emp, err := s.employeeRepoFor(h).FindByUserKey(ctx, p.UserKey)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResult{}, err
		}
		s.logger.Warn("attendance punch for unknown user key",
			zap.String("company_id", h.CompanyID),
			zap.String("user_key", p.UserKey),
			zap.String("punch_id", p.PunchID),
		)
		emp = nil
	}

	var sh *shift.Shift
	if p.PlanningSlotID != nil {
		sh, err = s.shiftRepoFor(h).FindByERPSlot(ctx, *p.PlanningSlotID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return AttendanceResult{}, err
			}
			s.logger.Warn("attendance punch references an unknown planning slot",
				zap.String("company_id", h.CompanyID),
				zap.String("planning_slot_id", *p.PlanningSlotID),
			)
			sh = nil
		}
	}

	ref := "punch:" + p.PunchID
	lg, duplicate, err := s.recordPunch(ctx, h, br, emp, sh, logType, ref, p)
	if err != nil {
		return AttendanceResult{}, err
	}

	// Everything past the log insert is idempotent, so a redelivered punch
	// reruns the tail against the already-stored log.
	if logType == shift.LogCheckIn && emp != nil {
		if _, err := s.employees.ReassignWorkBranches(ctx, h, emp.ID.String(), br.ID.String()); err != nil {
			return AttendanceResult{}, err
		}
	}

	if sh != nil {
		if logType == shift.LogCheckIn {
			err = s.authz.ApplyCheckIn(ctx, h, sh, lg)
		} else {
			err = s.authz.ApplyCheckOut(ctx, h, sh, lg, p.CumulativeMinutes)
		}
		if err != nil {
			return AttendanceResult{}, err
		}
	}

	s.publishRoom(ctx, h, br.ID.String(), "log_created", map[string]any{
		"log_id":      lg.ID.String(),
		"type":        lg.Type,
		"occurred_at": lg.OccurredAt,
	})

	res := AttendanceResult{LogID: lg.ID.String(), Duplicate: duplicate}
	if sh != nil {
		id := sh.ID.String()
		res.ShiftID = &id
	}
	return res, nil
}

// recordPunch inserts the log entry and applies the shift state change in
// one transaction. A redelivered punch returns the stored log instead.
func (s *service) recordPunch(
	ctx context.Context,
	h *tenant.Handle,
	br *branch.Branch,
	emp *employee.Employee,
	sh *shift.Shift,
	logType, ref string,
	p AttendancePayload,
) (*shift.ShiftLog, bool, error) {
	existing, err := s.logRepoFor(h).FindByExternalRef(ctx, ref)
	if err == nil {
		s.logger.Info("attendance punch already ingested",
			zap.String("company_id", h.CompanyID),
			zap.String("punch_id", p.PunchID),
		)
		return existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	var empID, shiftID *uuid.UUID
	if emp != nil {
		empID = &emp.ID
	}
	if sh != nil {
		shiftID = &sh.ID
	}
	details, _ := json.Marshal(map[string]any{
		"punch_id":      p.PunchID,
		"user_key":      p.UserKey,
		"erp_branch_id": p.ERPBranchID,
	})
	lg := &shift.ShiftLog{
		ID:          uuid.New(),
		ShiftID:     shiftID,
		BranchID:    br.ID,
		EmployeeID:  empID,
		Type:        logType,
		OccurredAt:  p.OccurredAt,
		ExternalRef: &ref,
		Details:     details,
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.logRepoFor(h).WithTx(tx).Create(ctx, lg); err != nil {
			return err
		}
		if sh == nil {
			return nil
		}
		if logType == shift.LogCheckIn && shift.IsAllowedCheckInTransition(sh.CheckInStatus, shift.CheckInCheckedIn) {
			sh.CheckInStatus = shift.CheckInCheckedIn
			if shift.IsAllowedStatusTransition(sh.Status, shift.StatusActive) {
				sh.Status = shift.StatusActive
			}
			return s.shiftRepoFor(h).WithTx(tx).Update(ctx, sh)
		}
		if logType == shift.LogCheckOut && shift.IsAllowedCheckInTransition(sh.CheckInStatus, shift.CheckInCheckedOut) {
			sh.CheckInStatus = shift.CheckInCheckedOut
			if shift.IsAllowedStatusTransition(sh.Status, shift.StatusEnded) {
				sh.Status = shift.StatusEnded
			}
			if p.CumulativeMinutes != nil {
				worked := float64(*p.CumulativeMinutes) / 60
				sh.WorkedHours = &worked
			}
			return s.shiftRepoFor(h).WithTx(tx).Update(ctx, sh)
		}
		return nil
	})
	if err != nil {
		if authorization.IsUniqueViolation(err) {
			stored, ferr := s.logRepoFor(h).FindByExternalRef(ctx, ref)
			if ferr != nil {
				return nil, false, ferr
			}
			return stored, true, nil
		}
		s.logger.Error("attendance punch persist failed",
			zap.String("company_id", h.CompanyID),
			zap.String("punch_id", p.PunchID),
			zap.Error(err),
		)
		return nil, false, err
	}

	s.logger.Info("attendance punch ingested",
		zap.String("company_id", h.CompanyID),
		zap.String("punch_id", p.PunchID),
		zap.String("type", logType),
		zap.String("branch_id", br.ID.String()),
	)
	return lg, false, nil
}

func (s *service) IngestShift(ctx context.Context, h *tenant.Handle, p ShiftPayload) (ShiftSyncResult, error) {
	if !p.EndsAt.After(p.StartsAt) {
		return ShiftSyncResult{}, erpsyncerrors.ErrInvalidShiftWindow
	}

	br, err := s.resolveBranch(ctx, h, p.ERPBranchID)
	if err != nil {
		return ShiftSyncResult{}, err
	}

	var empID *uuid.UUID
	if p.UserKey != nil && *p.UserKey != "" {
		emp, err := s.employeeRepoFor(h).FindByUserKey(ctx, *p.UserKey)
		if err == nil {
			empID = &emp.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return ShiftSyncResult{}, err
		} else {
			s.logger.Warn("shift payload references an unknown user key",
				zap.String("company_id", h.CompanyID),
				zap.String("user_key", *p.UserKey),
			)
		}
	}

	existing, err := s.shiftRepoFor(h).FindByERPSlot(ctx, p.SlotID)
	if err == nil {
		return s.applyShiftUpdate(ctx, h, existing, br, empID, p)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ShiftSyncResult{}, err
	}

	slotID := p.SlotID
	created := &shift.Shift{
		ID:             uuid.New(),
		BranchID:       br.ID,
		EmployeeID:     empID,
		StartsAt:       p.StartsAt,
		EndsAt:         p.EndsAt,
		AllocatedHours: p.EndsAt.Sub(p.StartsAt).Hours(),
		Status:         shift.StatusOpen,
		CheckInStatus:  shift.CheckInNone,
		ERPSlotID:      &slotID,
	}
	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.shiftRepoFor(h).WithTx(tx).Create(ctx, created)
	})
	if err != nil {
		if authorization.IsUniqueViolation(err) {
			stored, ferr := s.shiftRepoFor(h).FindByERPSlot(ctx, p.SlotID)
			if ferr != nil {
				return ShiftSyncResult{}, ferr
			}
			return s.applyShiftUpdate(ctx, h, stored, br, empID, p)
		}
		return ShiftSyncResult{}, err
	}

	s.logger.Info("shift created from erp slot",
		zap.String("company_id", h.CompanyID),
		zap.String("shift_id", created.ID.String()),
		zap.String("slot_id", p.SlotID),
	)
	s.publishRoom(ctx, h, br.ID.String(), "shift_changed", map[string]any{
		"shift_id": created.ID.String(),
		"action":   "created",
	})
	return ShiftSyncResult{ShiftID: created.ID.String(), Created: true}, nil
}

func (s *service) applyShiftUpdate(ctx context.Context, h *tenant.Handle, existing *shift.Shift, br *branch.Branch, empID *uuid.UUID, p ShiftPayload) (ShiftSyncResult, error) {
	incoming := &shift.Shift{
		BranchID:       br.ID,
		EmployeeID:     empID,
		StartsAt:       p.StartsAt,
		EndsAt:         p.EndsAt,
		AllocatedHours: p.EndsAt.Sub(p.StartsAt).Hours(),
	}
	changes := shift.TrackedChanges(existing, incoming)
	if len(changes) == 0 {
		s.logger.Info("shift upsert carried no tracked change",
			zap.String("company_id", h.CompanyID),
			zap.String("shift_id", existing.ID.String()),
			zap.String("slot_id", p.SlotID),
		)
		return ShiftSyncResult{ShiftID: existing.ID.String()}, nil
	}

	existing.BranchID = incoming.BranchID
	existing.EmployeeID = incoming.EmployeeID
	existing.StartsAt = incoming.StartsAt
	existing.EndsAt = incoming.EndsAt
	existing.AllocatedHours = incoming.AllocatedHours

	details, _ := json.Marshal(changes)
	entry := &shift.ShiftLog{
		ID:         uuid.New(),
		ShiftID:    &existing.ID,
		BranchID:   existing.BranchID,
		EmployeeID: existing.EmployeeID,
		Type:       shift.LogShiftUpdated,
		OccurredAt: time.Now().UTC(),
		Details:    details,
	}
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.shiftRepoFor(h).WithTx(tx).Update(ctx, existing); err != nil {
			return err
		}
		return s.logRepoFor(h).WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return ShiftSyncResult{}, err
	}

	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	s.logger.Info("shift updated from erp slot",
		zap.String("company_id", h.CompanyID),
		zap.String("shift_id", existing.ID.String()),
		zap.Strings("changed_fields", fields),
	)
	s.publishRoom(ctx, h, existing.BranchID.String(), "shift_changed", map[string]any{
		"shift_id": existing.ID.String(),
		"action":   "updated",
		"changes":  changes,
	})
	return ShiftSyncResult{ShiftID: existing.ID.String(), Changed: true}, nil
}

func (s *service) IngestShiftDelete(ctx context.Context, h *tenant.Handle, p ShiftDeletePayload) error {
	existing, err := s.shiftRepoFor(h).FindByERPSlot(ctx, p.SlotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("shift delete for an already absent slot",
				zap.String("company_id", h.CompanyID),
				zap.String("slot_id", p.SlotID),
			)
			return nil
		}
		return err
	}

	err = h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.shiftRepoFor(h).WithTx(tx).Delete(ctx, existing.ID.String())
	})
	if err != nil {
		return err
	}

	s.logger.Info("shift deleted from erp slot",
		zap.String("company_id", h.CompanyID),
		zap.String("shift_id", existing.ID.String()),
		zap.String("slot_id", p.SlotID),
	)
	s.publishRoom(ctx, h, existing.BranchID.String(), "shift_changed", map[string]any{
		"shift_id": existing.ID.String(),
		"action":   "deleted",
	})
	return nil
}

func (s *service) IngestPOSSession(ctx context.Context, h *tenant.Handle, p POSSessionPayload) (bool, error) {
	br, err := s.resolveBranch(ctx, h, p.ERPBranchID)
	if err != nil {
		return false, err
	}
	return s.posEvents.RecordSession(ctx, h, pos.SessionInput{
		SessionID:  p.SessionID,
		State:      p.State,
		BranchID:   br.ID,
		OccurredAt: p.OccurredAt,
		CashierKey: p.CashierKey,
	})
}

func (s *service) IngestPOSOrder(ctx context.Context, h *tenant.Handle, p POSOrderPayload) (bool, error) {
	br, err := s.resolveBranch(ctx, h, p.ERPBranchID)
	if err != nil {
		return false, err
	}
	return s.posEvents.RecordOrder(ctx, h, pos.OrderInput{
		OrderID:    p.OrderID,
		SessionID:  p.SessionID,
		BranchID:   br.ID,
		Amount:     p.TotalAmount,
		Currency:   p.Currency,
		OccurredAt: p.OccurredAt,
	})
}

func (s *service) resolveBranch(ctx context.Context, h *tenant.Handle, erpBranchID int) (*branch.Branch, error) {
	br, err := s.branchRepoFor(h).FindByERPID(ctx, erpBranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("erp branch id is not mapped",
				zap.String("company_id", h.CompanyID),
				zap.Int("erp_branch_id", erpBranchID),
			)
			return nil, erpsyncerrors.ErrBranchNotMapped
		}
		return nil, err
	}
	return br, nil
}

func (s *service) publishRoom(ctx context.Context, h *tenant.Handle, branchID, event string, payload map[string]any) {
	if err := s.rt.Publish(ctx, h.CompanyID, realtime.BranchRoom(branchID), event, payload); err != nil {
		s.logger.Warn("branch room push failed",
			zap.String("company_id", h.CompanyID),
			zap.String("branch_id", branchID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
