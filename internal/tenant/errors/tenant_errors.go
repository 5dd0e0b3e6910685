package tenanterrors

import (
	"net/http"

	"go-workforce/internal/shared/apperror"
)

var (
	ErrUnknownTenant = apperror.New(
		apperror.CodeNotFound,
		"Tenant is not registered",
		http.StatusNotFound,
	)

	ErrTenantInactive = apperror.New(
		apperror.CodeConflict,
		"Tenant is deactivated",
		http.StatusConflict,
	)

	ErrTenantUnreachable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Tenant database is unreachable",
		http.StatusServiceUnavailable,
	)
)
