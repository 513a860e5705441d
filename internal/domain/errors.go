package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeInvalidAmount       ErrorCode = "VALIDATION_INVALID_AMOUNT"
	ErrorCodeUnsupportedCurrency ErrorCode = "VALIDATION_UNSUPPORTED_CURRENCY"
	ErrorCodeMissingField        ErrorCode = "VALIDATION_MISSING_FIELD"

	// Message Authentication Errors (SIGNATURE_*)
	ErrorCodeInvalidSignature ErrorCode = "SIGNATURE_INVALID"

	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodePaymentIDMismatch ErrorCode = "ORDER_PAYMENT_ID_MISMATCH"
	ErrorCodeOrderInvalidState ErrorCode = "ORDER_INVALID_STATE"

	// Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayRejected    ErrorCode = "GATEWAY_REJECTED"
	ErrorCodeGatewayUnreachable ErrorCode = "GATEWAY_UNREACHABLE"
	ErrorCodeInvalidResponse    ErrorCode = "GATEWAY_INVALID_RESPONSE"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsValidationError checks if an error is a pre-flight validation error,
// surfaced to the initiating caller before any network call
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeInvalidAmount ||
		code == ErrorCodeUnsupportedCurrency ||
		code == ErrorCodeMissingField
}

// IsSecurityError checks if an error must never mutate order state and is
// reported externally with a generic message only
func IsSecurityError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeInvalidSignature ||
		code == ErrorCodePaymentIDMismatch
}

// IsRetryable checks if the caller may safely retry the operation.
// GatewayUnreachable does not imply the payment failed on the gateway side;
// the correct follow-up is a payment query, not a blind re-initiate.
func IsRetryable(err error) bool {
	return GetErrorCode(err) == ErrorCodeGatewayUnreachable
}

var (
	ErrInvalidAmount       = NewDomainError(ErrorCodeInvalidAmount, "invalid amount")
	ErrUnsupportedCurrency = NewDomainError(ErrorCodeUnsupportedCurrency, "unsupported currency")
	ErrMissingField        = NewDomainError(ErrorCodeMissingField, "required field missing")
	ErrInvalidSignature    = NewDomainError(ErrorCodeInvalidSignature, "message verifier mismatch")
	ErrOrderNotFound       = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrPaymentIDMismatch   = NewDomainError(ErrorCodePaymentIDMismatch, "payment id does not match order")
	ErrOrderInvalidState   = NewDomainError(ErrorCodeOrderInvalidState, "order is in invalid state for this operation")
	ErrGatewayRejected     = NewDomainError(ErrorCodeGatewayRejected, "request rejected by gateway")
	ErrGatewayUnreachable  = NewDomainError(ErrorCodeGatewayUnreachable, "gateway unreachable")
	ErrInvalidResponse     = NewDomainError(ErrorCodeInvalidResponse, "malformed gateway response")
	ErrInternalError       = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError       = NewDomainError(ErrorCodeDatabaseError, "database error")
)
