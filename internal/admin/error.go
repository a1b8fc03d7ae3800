package admin

import "couture-be/internal/apperror"

var (
	ErrAdminOnly    = apperror.Forbidden("admin access required")
	ErrInvalidRange = apperror.Validation("dateFrom must not be after dateTo")
)
