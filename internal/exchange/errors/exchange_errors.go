package exchangeerrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"exchange request not found",
		http.StatusNotFound,
	)
	ErrShiftNotFound = apperror.New(
		apperror.CodeNotFound,
		"shift not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrShiftNotOwned = apperror.New(
		apperror.CodeForbidden,
		"shift does not belong to the requesting employee",
		http.StatusForbidden,
	)
	ErrNotRequestActor = apperror.New(
		apperror.CodeForbidden,
		"only the accepting employee may respond to this request",
		http.StatusForbidden,
	)
	ErrApproverAccessDenied = apperror.New(
		apperror.CodeForbidden,
		"active access to both companies is required to act on this request",
		http.StatusForbidden,
	)
	ErrApproverRoleMismatch = apperror.New(
		apperror.CodeForbidden,
		"acting user does not hold the resolved approver role",
		http.StatusForbidden,
	)
	ErrShiftNotOpen = apperror.New(
		apperror.CodeConflict,
		"shift is no longer open",
		http.StatusConflict,
	)
	ErrShiftAlreadyInExchange = apperror.New(
		apperror.CodeConflict,
		"shift is already part of a pending exchange",
		http.StatusConflict,
	)
	ErrStaleStage = apperror.New(
		apperror.CodeConflict,
		"exchange request is not in the required approval stage",
		http.StatusConflict,
	)
	ErrShiftReassigned = apperror.New(
		apperror.CodeConflict,
		"shift assignment changed since the exchange was proposed",
		http.StatusConflict,
	)
	ErrEmployeeInactive = apperror.New(
		apperror.CodeConflict,
		"employee is inactive or suspended",
		http.StatusConflict,
	)
	ErrTargetNotEligible = apperror.New(
		apperror.CodeConflict,
		"target shift is not eligible for exchange with the supplied shift",
		http.StatusConflict,
	)
	ErrSelfExchange = apperror.New(
		apperror.CodeConflict,
		"cannot propose an exchange against your own shift",
		http.StatusConflict,
	)
	ErrShiftUnassigned = apperror.New(
		apperror.CodeConflict,
		"target shift has no assigned employee",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection reason is required",
		http.StatusBadRequest,
	)
	ErrShiftNotLinked = apperror.New(
		apperror.CodeInvalidInput,
		"shift is not linked to an ERP planning slot",
		http.StatusBadRequest,
	)
	ErrMissingUserKey = apperror.New(
		apperror.CodeInvalidInput,
		"employee has no cross-company user key",
		http.StatusBadRequest,
	)
	ErrCompanyNotMapped = apperror.New(
		apperror.CodeInvalidInput,
		"company has no numeric ERP mapping",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid exchange request id",
		http.StatusBadRequest,
	)
	ErrInvalidShiftID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid shift id",
		http.StatusBadRequest,
	)
)
