package customorder

import (
	"fmt"

	"couture-be/internal/apperror"
)

var (
	ErrCustomOrderNotFound = fmt.Errorf("%w: custom order not found", apperror.ErrNotFound)

	ErrTitleRequired      = apperror.Validation("title is required")
	ErrInvalidBudget      = apperror.Validation("budget must be non-negative")
	ErrInvalidAction      = apperror.Validation("action must be accept or reject")
	ErrQuoteRequired      = apperror.Validation("accepting requires quoteCents and estimatedDeliveryDays")
	ErrInvalidQuote       = apperror.Validation("quote and delivery estimate must be positive")
	ErrInvalidDeposit     = apperror.Validation("deposit must be between 0 and the quote")
	ErrNotRespondable     = apperror.Validation("custom order can no longer be responded to")
	ErrInvalidStatus      = apperror.Validation("unknown custom order status")
	ErrInvalidProgress    = apperror.Validation("unknown progress step")
	ErrInvalidPayment     = apperror.Validation("unknown payment status")
	ErrInvalidURL         = apperror.Validation("urls must be absolute http(s) links")
	ErrNoAssets           = apperror.Validation("at least one image url is required")
	ErrInvalidMeasure     = apperror.Validation("measurements must be a JSON object")
	ErrNotAuthenticated   = apperror.Forbidden("authentication required")
	ErrCustomersOnly      = apperror.Forbidden("only customers can request custom orders")
	ErrDesignersOnly      = apperror.Forbidden("only designers can respond")
	ErrAlreadyClaimed     = apperror.Forbidden("custom order is assigned to another designer")
	ErrAccessDenied       = apperror.Forbidden("not allowed to access this custom order")
	ErrNotAssignedOrAdmin = apperror.Forbidden("only the assigned designer or an admin may update status")
)
