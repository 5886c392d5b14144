package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAlreadyProcessed        = "ALREADY_PROCESSED"
	ErrCodeTransactionNotFound     = "TRANSACTION_NOT_FOUND"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
	ErrCodeInvalidUpstreamResponse = "INVALID_UPSTREAM_RESPONSE"
	ErrCodeNoGatewayMatched        = "NO_GATEWAY_MATCHED"
)

// NewAlreadyProcessedError signals a command that is illegal for the current
// transaction state: a replay, a double submit, or a race lost to a concurrent
// writer whose event is already in the stream.
func NewAlreadyProcessedError(rptID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAlreadyProcessed,
		Message: fmt.Sprintf("transaction for RPT id %s was already processed", rptID),
	}
}

func NewTransactionNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransactionNotFound,
		Message: fmt.Sprintf("transaction %s not found", id),
	}
}

func NewInvalidRequestError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidRequest,
		Message: reason,
	}
}

// NewInvalidUpstreamResponseError marks a syntactically valid upstream
// response that is missing a required field. This is a protocol violation,
// not a business fault, and is never retried.
func NewInvalidUpstreamResponseError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidUpstreamResponse,
		Message: reason,
	}
}

func NewNoGatewayMatchedError(paymentTypeCode string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNoGatewayMatched,
		Message: fmt.Sprintf("no payment gateway matched payment type %s", paymentTypeCode),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
