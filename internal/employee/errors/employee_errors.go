package employeeerrors

import (
	"go-workforce/internal/shared/apperror"
	"net/http"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeInactive = apperror.New(
		apperror.CodeConflict,
		"Employee is not active",
		http.StatusConflict,
	)
	ErrEmployeeSuspended = apperror.New(
		apperror.CodeConflict,
		"Employee is suspended",
		http.StatusConflict,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrAssignmentAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee is already assigned to this branch",
		http.StatusConflict,
	)
)
