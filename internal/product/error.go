package product

import (
	"fmt"

	"couture-be/internal/apperror"
)

var (
	ErrProductNotFound = fmt.Errorf("%w: product not found", apperror.ErrNotFound)
	ErrInvalidID       = apperror.Validation("product id is required")
)
