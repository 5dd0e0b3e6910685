package rbacerrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var ErrNoActingRole = apperror.New(
	apperror.CodeForbidden,
	"Employee has no acting role in this company",
	http.StatusForbidden,
)
