package authorizationerrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrAuthorizationNotFound = apperror.New(
		apperror.CodeNotFound,
		"authorization not found",
		http.StatusNotFound,
	)
	ErrAuthorizationNotPending = apperror.New(
		apperror.CodeConflict,
		"authorization is not pending",
		http.StatusConflict,
	)
	ErrEmployeeReasonRequired = apperror.New(
		apperror.CodeInvalidState,
		"employee reason must be supplied before this authorization can be resolved",
		http.StatusConflict,
	)
	ErrReasonNotExpected = apperror.New(
		apperror.CodeInvalidState,
		"this authorization does not take an employee reason",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection reason is required",
		http.StatusBadRequest,
	)
	ErrOvertimeSubtypeRequired = apperror.New(
		apperror.CodeInvalidInput,
		"overtime subtype is required when approving an overtime authorization",
		http.StatusBadRequest,
	)
	ErrInvalidOvertimeSubtype = apperror.New(
		apperror.CodeInvalidInput,
		"overtime subtype must be paid or time_off_in_lieu",
		http.StatusBadRequest,
	)
	ErrInvalidAuthorizationID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid authorization id",
		http.StatusBadRequest,
	)
	ErrInvalidBranchID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid branch id",
		http.StatusBadRequest,
	)
	ErrInvalidResolverID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid resolver id",
		http.StatusBadRequest,
	)
)
