package usecase

import "errors"

var (
	ErrInvalidItems       = errors.New("order must contain at least one item with quantity >= 1")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrMissingAddress     = errors.New("please provide a delivery address or add one to your profile")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrOrderNotFound      = errors.New("order not found")
	ErrMissingOrderRef    = errors.New("missing external order reference")
	ErrDuplicate          = errors.New("duplicate idempotency key")
)
