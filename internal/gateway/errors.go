package gateway

import (
	"errors"
	"fmt"
)

const (
	ServiceInventory    = "inventory"
	ServiceOrders       = "orders"
	ServiceCustomers    = "customers"
	ServiceOrderHistory = "order-history"
)

// ServiceError means the backend answered with a status the call does not accept,
// or explicitly reported failure in its body.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s service returned status %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s service returned status %d", e.Service, e.StatusCode)
}

// ParseError means the response body does not match the expected JSON shape.
type ParseError struct {
	Service string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s service response malformed: %v", e.Service, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError covers connection failures, timeouts and an open circuit breaker.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s service unreachable: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind classifies err into one of the gateway failure kinds, or "" if it is none of them.
func Kind(err error) string {
	var se *ServiceError
	var pe *ParseError
	var te *TransportError
	switch {
	case errors.As(err, &se):
		return "service_error"
	case errors.As(err, &pe):
		return "parse_error"
	case errors.As(err, &te):
		return "transport_error"
	default:
		return ""
	}
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}
