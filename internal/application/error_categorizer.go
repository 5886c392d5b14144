package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
	"github.com/pagopay/transactions-service/internal/infrastructure/persistence/postgres"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryConflict       ErrorCategory = "CONFLICT"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryUpstreamFault  ErrorCategory = "UPSTREAM_FAULT"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes.
// Domain errors and node faults are never transient: retry is reserved for
// transport failures so that business rejections cannot trip the breaker.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed) {
		return CategoryConflict
	}
	if domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound) ||
		domain.IsErrorCode(err, domain.ErrCodeInvalidRequest) ||
		domain.IsErrorCode(err, domain.ErrCodeNoGatewayMatched) {
		return CategoryClientError
	}
	if domain.IsErrorCode(err, domain.ErrCodeInvalidUpstreamResponse) {
		return CategoryUpstreamFault
	}

	if _, ok := nodo.IsFaultError(err); ok {
		return CategoryUpstreamFault
	}

	if gwErr, ok := gateway.IsGatewayError(err); ok {
		if gwErr.IsRetryable() {
			return CategoryTransient
		}
		return CategoryUpstreamFault
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeBadGateway, ErrCodeGatewayTimeout:
			return CategoryTransient
		case ErrCodeUpstreamFault:
			return CategoryUpstreamFault
		default:
			return CategoryInfrastructure
		}
	}

	return CategoryInfrastructure
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	return CategorizeError(err) == CategoryTransient
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed):
		return http.StatusConflict
	case domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound):
		return http.StatusNotFound
	case domain.IsErrorCode(err, domain.ErrCodeInvalidRequest),
		domain.IsErrorCode(err, domain.ErrCodeNoGatewayMatched):
		return http.StatusBadRequest
	case domain.IsErrorCode(err, domain.ErrCodeInvalidUpstreamResponse):
		return http.StatusBadGateway
	case errors.Is(err, postgres.ErrTransactionViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if _, ok := nodo.IsFaultError(err); ok {
		return http.StatusBadGateway
	}

	if gwErr, ok := gateway.IsGatewayError(err); ok {
		if gwErr.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		return gwErr.StatusCode
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	if faultErr, ok := nodo.IsFaultError(err); ok {
		return faultErr.FaultCode
	}

	if errors.Is(err, postgres.ErrTransactionViewNotFound) {
		return domain.ErrCodeTransactionNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return ErrCodeInternal
}
