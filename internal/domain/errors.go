package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it.
type Kind string

const (
	KindDomain              Kind = "DOMAIN"
	KindNotFound            Kind = "NOT_FOUND"
	KindUnsupportedProvider Kind = "UNSUPPORTED_PROVIDER"
	KindExternalSource      Kind = "EXTERNAL_SOURCE"
	KindInternal            Kind = "INTERNAL"
	KindUnauthorized        Kind = "UNAUTHORIZED"
)

// Error is a classified business error with a machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so wrapped sentinels compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Ledger entry errors
var (
	ErrInvalidAmount           = newError(KindDomain, "INVALID_AMOUNT", "amount must be positive")
	ErrAmountScale             = newError(KindDomain, "INVALID_AMOUNT_SCALE", "amount has more than 8 decimal places")
	ErrSameAccount             = newError(KindDomain, "SAME_ACCOUNT", "source and destination accounts must differ")
	ErrMissingSourceAccount    = newError(KindDomain, "MISSING_SOURCE_ACCOUNT", "source account is required")
	ErrMissingDestination      = newError(KindDomain, "MISSING_DESTINATION_ACCOUNT", "destination account is required")
	ErrInvalidEntryType        = newError(KindDomain, "INVALID_ENTRY_TYPE", "unknown ledger entry type")
	ErrInvalidEntryStatus      = newError(KindDomain, "INVALID_ENTRY_STATUS", "unknown ledger entry status")
	ErrInvalidStatusTransition = newError(KindDomain, "INVALID_STATUS_TRANSITION", "ledger entry is not pending")
	ErrMissingTenant           = newError(KindDomain, "MISSING_TENANT", "tenant id is required")
	ErrMissingActor            = newError(KindDomain, "MISSING_ACTOR", "acting user id is required")
	ErrTenantMismatch          = newError(KindDomain, "TENANT_MISMATCH", "account belongs to another tenant")
	ErrLedgerEntryNotFound     = newError(KindNotFound, "LEDGER_ENTRY_NOT_FOUND", "ledger entry not found")
	ErrInvalidDateRange        = newError(KindDomain, "INVALID_DATE_RANGE", "dateFrom must not be after dateTo")
)

// Account errors
var (
	ErrInsufficientBalance = newError(KindDomain, "INSUFFICIENT_BALANCE", "insufficient balance")
	ErrAccountNotFound     = newError(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrInvalidAccountName  = newError(KindDomain, "INVALID_ACCOUNT_NAME", "invalid account name")
)

// Payment errors
var (
	ErrUnsupportedProvider     = newError(KindUnsupportedProvider, "UNSUPPORTED_PROVIDER", "unsupported payment provider")
	ErrInvalidPaymentMethod    = newError(KindDomain, "INVALID_PAYMENT_METHOD", "unsupported payment method")
	ErrRefundNotSuccessful     = newError(KindDomain, "REFUND_NOT_SUCCESSFUL", "provider did not confirm the refund")
	ErrRefundLedgerFailed      = newError(KindDomain, "REFUND_LEDGER_FAILED", "refund succeeded but the ledger entry could not be recorded")
	ErrPaymentLedgerFailed     = newError(KindDomain, "PAYMENT_LEDGER_FAILED", "payment succeeded but the ledger entry could not be recorded")
	ErrInvalidWebhookEvent     = newError(KindDomain, "INVALID_WEBHOOK_EVENT", "webhook event could not be parsed")
	ErrMissingExternalInvoice  = newError(KindDomain, "MISSING_EXTERNAL_INVOICE", "external invoice id is required")
	ErrWebhookInvoiceMismatch  = newError(KindDomain, "WEBHOOK_INVOICE_MISMATCH", "webhook event does not match an invoice issued to this tenant")
	ErrInvalidRecipient        = newError(KindDomain, "INVALID_RECIPIENT", "recipient is invalid")
	ErrTransactionRequired     = newError(KindInternal, "TRANSACTION_REQUIRED", "balance mutation requires an open transaction")
	ErrExternalSourceFailure   = newError(KindExternalSource, "EXTERNAL_SOURCE", "payment provider failure")
	ErrInternal                = newError(KindInternal, "INTERNAL", "internal error")
)

// Auth errors
var (
	ErrUnauthorized = newError(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrInvalidToken = newError(KindUnauthorized, "INVALID_TOKEN", "invalid token")
	ErrExpiredToken = newError(KindUnauthorized, "EXPIRED_TOKEN", "token has expired")
)

// NewExternalSourceError wraps a provider failure, keeping the cause.
func NewExternalSourceError(message string, cause error) *Error {
	return &Error{
		Kind:    KindExternalSource,
		Code:    ErrExternalSourceFailure.Code,
		Message: message,
		Err:     cause,
	}
}

// NewInternalError wraps an unexpected failure, keeping the cause.
func NewInternalError(message string, cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    ErrInternal.Code,
		Message: message,
		Err:     cause,
	}
}

// Wrap returns a copy of a sentinel with cause attached.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     cause,
	}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the outermost classified error in the chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}
