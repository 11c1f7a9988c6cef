package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the operator lacks a capability
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when a guarded update loses a race
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInsufficientStock is used when a deduction exceeds batch stock
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodePriceOutOfRange is used when a price violates a pricing control
	ErrCodePriceOutOfRange = "ERR_PRICE_OUT_OF_RANGE"
	// ErrCodeDiscountNotApplicable is used when a discount's window or minimums are unmet
	ErrCodeDiscountNotApplicable = "ERR_DISCOUNT_NOT_APPLICABLE"
	// ErrCodeApprovalRequired is used when an action is blocked pending authorization
	ErrCodeApprovalRequired = "ERR_APPROVAL_REQUIRED"
	// ErrCodeUnauthorizedApprover is used when the actor cannot resolve a request
	ErrCodeUnauthorizedApprover = "ERR_UNAUTHORIZED_APPROVER"
	// ErrCodeExpiredRequest is used when an override request is past its deadline
	ErrCodeExpiredRequest = "ERR_EXPIRED_REQUEST"
)

// Reporting error codes
const (
	// ErrCodeReportUnavailable is used when a reporting read fails on a collaborator
	ErrCodeReportUnavailable = "ERR_REPORT_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation and input errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInsufficientStock:     http.StatusUnprocessableEntity,
	ErrCodePriceOutOfRange:       http.StatusUnprocessableEntity,
	ErrCodeDiscountNotApplicable: http.StatusUnprocessableEntity,
	ErrCodeApprovalRequired:      http.StatusUnprocessableEntity,
	ErrCodeUnauthorizedApprover:  http.StatusForbidden,
	ErrCodeExpiredRequest:        http.StatusUnprocessableEntity,

	// Reporting errors -> 503 Service Unavailable
	ErrCodeReportUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"VALIDATION":              ErrCodeValidation,
	"NOT_FOUND":               ErrCodeNotFound,
	"INSUFFICIENT_STOCK":      ErrCodeInsufficientStock,
	"PRICE_OUT_OF_RANGE":      ErrCodePriceOutOfRange,
	"DISCOUNT_NOT_APPLICABLE": ErrCodeDiscountNotApplicable,
	"APPROVAL_REQUIRED":       ErrCodeApprovalRequired,
	"UNAUTHORIZED_APPROVER":   ErrCodeUnauthorizedApprover,
	"EXPIRED_REQUEST":         ErrCodeExpiredRequest,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"REPORT_UNAVAILABLE":      ErrCodeReportUnavailable,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
