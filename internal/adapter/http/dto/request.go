package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name      string  `json:"name"`
	ProfileID *string `json:"profile_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(s domain.Session) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		TenantID:  s.TenantID,
		Name:      r.Name,
		ProfileID: r.ProfileID,
		CreatedBy: s.UserID,
	}
}

// CreateLedgerEntryRequest represents a request to record a ledger movement.
type CreateLedgerEntryRequest struct {
	Type          domain.LedgerEntryType `json:"type"`
	FromAccountID *string                `json:"from_account_id,omitempty"`
	ToAccountID   *string                `json:"to_account_id,omitempty"`
	Amount        string                 `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLedgerEntryRequest) ToUseCaseInput(s domain.Session) (usecase.CreateLedgerEntryInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateLedgerEntryInput{}, err
	}

	return usecase.CreateLedgerEntryInput{
		TenantID:      s.TenantID,
		Type:          r.Type,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
		CreatedBy:     s.UserID,
	}, nil
}

// UpdateLedgerEntryStatusRequest moves a pending entry to a final status.
type UpdateLedgerEntryStatusRequest struct {
	Status domain.LedgerEntryStatus `json:"status"`
}

// ListLedgerEntriesQuery holds the parsed query string of a listing.
type ListLedgerEntriesQuery struct {
	Status   *domain.LedgerEntryStatus
	Type     *domain.LedgerEntryType
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

// ToFilter converts to a tenant-scoped filter.
func (q ListLedgerEntriesQuery) ToFilter(s domain.Session) domain.LedgerEntryFilter {
	return domain.LedgerEntryFilter{
		TenantID: s.TenantID,
		Status:   q.Status,
		Type:     q.Type,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

// CreatePaymentRequest represents a request to charge a customer.
type CreatePaymentRequest struct {
	ToAccountID       string                   `json:"to_account_id"`
	Amount            string                   `json:"amount"`
	PaymentMethodType domain.PaymentMethodType `json:"payment_method_type"`
	Description       *string                  `json:"description,omitempty"`
	Metadata          map[string]string        `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput(s domain.Session) (usecase.ProcessPaymentInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.ProcessPaymentInput{}, err
	}

	return usecase.ProcessPaymentInput{
		TenantID:          s.TenantID,
		ToAccountID:       r.ToAccountID,
		Amount:            amount,
		PaymentMethodType: r.PaymentMethodType,
		Description:       r.Description,
		Metadata:          r.Metadata,
		CreatedBy:         s.UserID,
	}, nil
}

// ComputeTaxRequest asks the provider for the fee of a prospective payment.
type ComputeTaxRequest struct {
	Amount            string                   `json:"amount"`
	PaymentMethodType domain.PaymentMethodType `json:"payment_method_type"`
	HasAntifraud      bool                     `json:"has_antifraud"`
}

// ParsedAmount returns the amount as a decimal.
func (r *ComputeTaxRequest) ParsedAmount() (decimal.Decimal, error) {
	return parseAmount(r.Amount)
}

// RefundRequest represents a request to refund a settled invoice.
type RefundRequest struct {
	ExternalInvoiceID string  `json:"external_invoice_id"`
	FromAccountID     string  `json:"from_account_id"`
	ValueToRefund     string  `json:"value_to_refund"`
	Reason            *string `json:"reason,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RefundRequest) ToUseCaseInput(s domain.Session) (usecase.ProcessRefundInput, error) {
	value, err := parseAmount(r.ValueToRefund)
	if err != nil {
		return usecase.ProcessRefundInput{}, err
	}

	return usecase.ProcessRefundInput{
		TenantID:          s.TenantID,
		ExternalInvoiceID: r.ExternalInvoiceID,
		FromAccountID:     r.FromAccountID,
		ValueToRefund:     value,
		Reason:            r.Reason,
		CreatedBy:         s.UserID,
	}, nil
}

// RecipientRequest registers or updates a split-payment recipient.
type RecipientRequest struct {
	Name          string `json:"name"`
	Document      string `json:"document"`
	BankCode      string `json:"bank_code"`
	BranchNumber  string `json:"branch_number"`
	AccountNumber string `json:"account_number"`
}

// ToDomain converts to the provider-facing request.
func (r *RecipientRequest) ToDomain(s domain.Session) domain.RecipientRequest {
	return domain.RecipientRequest{
		TenantID:      s.TenantID,
		Name:          r.Name,
		Document:      r.Document,
		BankCode:      r.BankCode,
		BranchNumber:  r.BranchNumber,
		AccountNumber: r.AccountNumber,
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Wrap(domain.ErrInvalidAmount, fmt.Errorf("parse %q: %w", raw, err))
	}
	if err := domain.ValidateAmountScale(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
