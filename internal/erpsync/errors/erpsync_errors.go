package erpsyncerrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrBranchNotMapped = apperror.New(
		apperror.CodeNotFound,
		"no branch is mapped to this erp branch id",
		http.StatusNotFound,
	)
	ErrInvalidPunchType = apperror.New(
		apperror.CodeInvalidInput,
		"attendance type must be in or out",
		http.StatusBadRequest,
	)
	ErrInvalidShiftWindow = apperror.New(
		apperror.CodeInvalidInput,
		"ends_at must be after starts_at",
		http.StatusBadRequest,
	)
)
