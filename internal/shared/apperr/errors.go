package apperr

import (
	"errors"
	"fmt"
)

// Kind groups error codes by how a caller is expected to react.
type Kind string

const (
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindConflict         Kind = "CONFLICT"
	KindAuthorization    Kind = "AUTHORIZATION"
	KindState            Kind = "STATE"
	KindReferral         Kind = "REFERRAL"
	KindCredit           Kind = "CREDIT"
	KindNotFound         Kind = "NOT_FOUND"
	KindValidation       Kind = "VALIDATION"
)

type Code string

const (
	// Capacity
	CodeTierSoldOutOfBounds        Code = "TierSoldOutOfBounds"
	CodeInsufficientBundleQuantity Code = "InsufficientBundleQuantity"
	CodeInsufficientTierQuantity   Code = "InsufficientTierQuantity"

	// Conflict
	CodeSeatAlreadyReserved  Code = "SeatAlreadyReserved"
	CodeSeatConflict         Code = "SeatConflict"
	CodeCompletionInProgress Code = "CompletionInProgress"

	// Authorization
	CodeForbidden Code = "Forbidden"

	// State
	CodeTierHasSales          Code = "TierHasSales"
	CodeTierQuantityBelowSold Code = "TierQuantityBelowSold"
	CodeTierInactive          Code = "TierInactive"
	CodeBundleInactive        Code = "BundleInactive"
	CodeSaleNotStarted        Code = "SaleNotStarted"
	CodeSaleEnded             Code = "SaleEnded"
	CodeEventNotOnSale        Code = "EventNotOnSale"
	CodeOrderNotPending       Code = "OrderNotPending"
	CodeOrderNotCompleted     Code = "OrderNotCompleted"
	CodeTicketAlreadyScanned  Code = "TicketAlreadyScanned"
	CodeTicketNotActive       Code = "TicketNotActive"
	CodeChartHasReservations  Code = "ChartHasReservations"
	CodePurchaseNotPending    Code = "PurchaseNotPending"
	CodeStaffSaleExists       Code = "StaffSaleExists"

	// Referral
	CodeInvalidReferralCode   Code = "InvalidReferralCode"
	CodeStaffInactive         Code = "StaffInactive"
	CodeReferralEventMismatch Code = "ReferralEventMismatch"

	// Credit
	CodeInsufficientCredits Code = "InsufficientCredits"

	CodeNotFound          Code = "NotFound"
	CodeInvalidInput      Code = "InvalidInput"
	CodeSeatNotFound      Code = "SeatNotFound"
	CodeSeatBlocked       Code = "SeatBlocked"
	CodeSeatCountMismatch Code = "SeatCountMismatch"
)

// Error is the categorical error returned by every ledger operation.
type Error struct {
	Kind    Kind           `json:"kind"`
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code, so sentinels work with errors.Is regardless of message or details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of e carrying an extra detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Details: details}
}

func newError(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func CapacityExceeded(code Code, format string, args ...any) *Error {
	return newError(KindCapacityExceeded, code, format, args...)
}

func Conflict(code Code, format string, args ...any) *Error {
	return newError(KindConflict, code, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(KindAuthorization, CodeForbidden, format, args...)
}

func State(code Code, format string, args ...any) *Error {
	return newError(KindState, code, format, args...)
}

func Referral(code Code, format string, args ...any) *Error {
	return newError(KindReferral, code, format, args...)
}

func Credit(code Code, format string, args ...any) *Error {
	return newError(KindCredit, code, format, args...)
}

func NotFound(resource string, id any) *Error {
	return newError(KindNotFound, CodeNotFound, "%s %v not found", resource, id).WithDetail("resource", resource)
}

func Validation(code Code, format string, args ...any) *Error {
	return newError(KindValidation, code, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return newError(KindValidation, CodeInvalidInput, format, args...)
}

// Sentinels for errors.Is checks.
var (
	ErrTierSoldOutOfBounds        = &Error{Kind: KindCapacityExceeded, Code: CodeTierSoldOutOfBounds}
	ErrInsufficientBundleQuantity = &Error{Kind: KindCapacityExceeded, Code: CodeInsufficientBundleQuantity}
	ErrInsufficientTierQuantity   = &Error{Kind: KindCapacityExceeded, Code: CodeInsufficientTierQuantity}
	ErrSeatAlreadyReserved        = &Error{Kind: KindConflict, Code: CodeSeatAlreadyReserved}
	ErrSeatConflict               = &Error{Kind: KindConflict, Code: CodeSeatConflict}
	ErrCompletionInProgress       = &Error{Kind: KindConflict, Code: CodeCompletionInProgress}
	ErrForbidden                  = &Error{Kind: KindAuthorization, Code: CodeForbidden}
	ErrTierHasSales               = &Error{Kind: KindState, Code: CodeTierHasSales}
	ErrTierQuantityBelowSold      = &Error{Kind: KindState, Code: CodeTierQuantityBelowSold}
	ErrOrderNotPending            = &Error{Kind: KindState, Code: CodeOrderNotPending}
	ErrOrderNotCompleted          = &Error{Kind: KindState, Code: CodeOrderNotCompleted}
	ErrTicketAlreadyScanned       = &Error{Kind: KindState, Code: CodeTicketAlreadyScanned}
	ErrTicketNotActive            = &Error{Kind: KindState, Code: CodeTicketNotActive}
	ErrChartHasReservations       = &Error{Kind: KindState, Code: CodeChartHasReservations}
	ErrPurchaseNotPending         = &Error{Kind: KindState, Code: CodePurchaseNotPending}
	ErrInvalidReferralCode        = &Error{Kind: KindReferral, Code: CodeInvalidReferralCode}
	ErrStaffInactive              = &Error{Kind: KindReferral, Code: CodeStaffInactive}
	ErrReferralEventMismatch      = &Error{Kind: KindReferral, Code: CodeReferralEventMismatch}
	ErrInsufficientCredits        = &Error{Kind: KindCredit, Code: CodeInsufficientCredits}
	ErrNotFound                   = &Error{Kind: KindNotFound, Code: CodeNotFound}
	ErrEventNotOnSale             = &Error{Kind: KindState, Code: CodeEventNotOnSale}
	ErrStaffSaleExists            = &Error{Kind: KindState, Code: CodeStaffSaleExists}
	ErrSeatCountMismatch          = &Error{Kind: KindValidation, Code: CodeSeatCountMismatch}
	ErrSeatNotFound               = &Error{Kind: KindValidation, Code: CodeSeatNotFound}
	ErrSeatBlocked                = &Error{Kind: KindValidation, Code: CodeSeatBlocked}
	ErrInvalidInput               = &Error{Kind: KindValidation, Code: CodeInvalidInput}
)

// As extracts the categorical error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries a categorical error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
