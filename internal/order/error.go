package order

import (
	"errors"
	"fmt"

	"couture-be/internal/apperror"
)

var (
	ErrOrderNotFound              = fmt.Errorf("%w: order not found", apperror.ErrNotFound)
	ErrStatusTransitionNotAllowed = apperror.Validation("Status transition not allowed")
	ErrEmptyCart                  = apperror.Validation("cart is empty")
	ErrCartClosed                 = apperror.Validation("cart is no longer open")
	ErrCartChanged                = apperror.Validation("cart changed during checkout, please retry")
	ErrInvalidQuantity            = apperror.Validation(fmt.Sprintf("quantity must be between 1 and %d", MaxItemQuantity))
	ErrUnsupportedCurrency        = apperror.Validation("currency is not supported")
	ErrMixedCurrency              = apperror.Validation("cart items must share one currency")
	ErrNegativeAmount             = apperror.Validation("money amounts must be non-negative")
	ErrUnknownStatus              = apperror.Validation("unknown order status")
	ErrInvalidAddress             = apperror.Validation("shipping address must be a JSON value")
	ErrCommissionNotQuoted        = apperror.Validation("custom order has no quote yet")
	ErrLinkedOrderItems           = apperror.Validation("items cannot change on an order priced by a custom order quote")
	ErrNotAuthenticated           = apperror.Forbidden("authentication required")
	ErrNotCartOwner               = apperror.Forbidden("only customers have carts")
	ErrOrderAccessDenied          = apperror.Forbidden("not allowed to access this order")
	ErrCommandNotAllowed          = apperror.Forbidden("not allowed to change this field")

	// errCartExists is returned by Create when the customer already has an open cart.
	errCartExists = errors.New("cart already exists")
)
