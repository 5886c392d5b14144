package application

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is an orchestration-level failure carrying the HTTP status the
// edge should answer with.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeBadGateway     = "BAD_GATEWAY"
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT"
	ErrCodeUpstreamFault  = "UPSTREAM_FAULT"
)

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewBadGatewayError wraps a transport-level failure talking to an upstream.
// These are the only errors eligible for caller-side retry.
func NewBadGatewayError(upstream string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeBadGateway,
		Message:    fmt.Sprintf("upstream %s unavailable", upstream),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewGatewayTimeoutError(upstream string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayTimeout,
		Message:    fmt.Sprintf("upstream %s timed out", upstream),
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

// NewUpstreamFaultError surfaces a business fault reported by the payment
// node, keeping the fault category visible for caller-side UX. Never retried.
func NewUpstreamFaultError(faultCode, category string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUpstreamFault,
		Message:    fmt.Sprintf("payment node fault %s (%s)", faultCode, category),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
