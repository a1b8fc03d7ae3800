package audit

import (
	"couture-be/internal/apperror"
)

var (
	ErrMissingOrderID = apperror.Validation("audit: order id is required")
	ErrMissingField   = apperror.Validation("audit: field is required")
)
