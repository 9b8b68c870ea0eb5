package service

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to order")
	ErrMissingCustomer   = errors.New("customer id is required")
	ErrInvalidCustomer   = errors.New("customer id must be positive")
	ErrInvalidProduct    = errors.New("product id must be positive")
	ErrIllegalTransition = errors.New("illegal transition of submission state")
)

// ValidationError wraps a precondition failure detected before any backend call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &ValidationError{Err: err}
}
