package shared

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a business-level outcome that the caller is
// expected to handle. It is returned, never used as control flow.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the pricing engine taxonomy.
const (
	CodeValidation            = "VALIDATION"
	CodeNotFound              = "NOT_FOUND"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodePriceOutOfRange       = "PRICE_OUT_OF_RANGE"
	CodeDiscountNotApplicable = "DISCOUNT_NOT_APPLICABLE"
	CodeApprovalRequired      = "APPROVAL_REQUIRED"
	CodeUnauthorizedApprover  = "UNAUTHORIZED_APPROVER"
	CodeExpiredRequest        = "EXPIRED_REQUEST"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeReportUnavailable     = "REPORT_UNAVAILABLE"
)

// Common domain errors
var (
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput         = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict  = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorizedApprover = NewDomainError(CodeUnauthorizedApprover, "Actor lacks authority to resolve this request")
	ErrApprovalRequired     = NewDomainError(CodeApprovalRequired, "Action is blocked pending authorization")
	ErrExpiredRequest       = NewDomainError(CodeExpiredRequest, "Request has expired and can no longer be resolved")
)

// NewValidationError creates a VALIDATION error with a specific reason
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewInsufficientStockError reports a deduction that exceeds the available
// quantity. The numeric boundary is part of the message so the caller can
// explain the rejection.
func NewInsufficientStockError(requested, available decimal.Decimal) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("requested quantity %s exceeds available %s", requested.String(), available.String()))
}

// NewPriceOutOfRangeError reports a price that violates a policy bound
func NewPriceOutOfRangeError(price, limit decimal.Decimal, bound string) *DomainError {
	return NewDomainError(CodePriceOutOfRange,
		fmt.Sprintf("price %s violates %s bound %s", price.String(), bound, limit.String()))
}

// NewDiscountNotApplicableError reports a discount whose validity window or
// minimums are unmet
func NewDiscountNotApplicableError(reason string) *DomainError {
	return NewDomainError(CodeDiscountNotApplicable, reason)
}

// ReportUnavailableError signals that a reporting read failed because of a
// collaborator failure, as opposed to the report legitimately having no data.
// Callers must log it distinctly and must not flatten it into zeroed stats.
type ReportUnavailableError struct {
	Report string
	Err    error
}

// Error implements the error interface
func (e *ReportUnavailableError) Error() string {
	return fmt.Sprintf("report %q unavailable: %v", e.Report, e.Err)
}

// Unwrap exposes the underlying collaborator failure
func (e *ReportUnavailableError) Unwrap() error {
	return e.Err
}

// NewReportUnavailableError wraps a collaborator failure for a named report
func NewReportUnavailableError(report string, err error) *ReportUnavailableError {
	return &ReportUnavailableError{Report: report, Err: err}
}
