package domain

import (
	"github.com/shopspring/decimal"
)

// ProviderKind identifies a payment provider implementation.
type ProviderKind string

const (
	ProviderMock ProviderKind = "MOCK"
)

// PaymentMethodType is the instrument a payment is made with.
type PaymentMethodType string

const (
	PaymentMethodPix        PaymentMethodType = "PIX"
	PaymentMethodCreditCard PaymentMethodType = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethodType = "DEBIT_CARD"
	PaymentMethodBoleto     PaymentMethodType = "BOLETO"
)

// IsValid reports whether m is a supported method.
func (m PaymentMethodType) IsValid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodBoleto:
		return true
	}
	return false
}

// IsCard reports whether m settles through a card network.
func (m PaymentMethodType) IsCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// PaymentStatus is the provider-reported state of an invoice.
type PaymentStatus string

const (
	PaymentStatusOpen     PaymentStatus = "OPEN"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
	PaymentStatusExpired  PaymentStatus = "EXPIRED"
)

// WebhookTransactionType tells what a webhook event is about.
type WebhookTransactionType string

const (
	WebhookTransactionPayment WebhookTransactionType = "PAYMENT"
	WebhookTransactionRefund  WebhookTransactionType = "REFUND"
)

// PixInfo is the instant-payment metadata a PIX invoice carries.
type PixInfo struct {
	QRCode    string
	CopyPaste string
	ExpiresAt string
}

// PaymentResult is what a provider returns for a created payment.
type PaymentResult struct {
	ExternalInvoiceID string
	Status            PaymentStatus
	Provider          ProviderKind
	Tax               *decimal.Decimal
	ProviderMessage   *string
	Pix               *PixInfo
}

// RefundResult is what a provider returns for a refund request.
type RefundResult struct {
	Success               bool
	ExternalTransactionID *string
	RefundedValue         decimal.Decimal
}

// WebhookResult is a provider webhook normalized into ledger terms.
type WebhookResult struct {
	ExternalInvoiceID string
	TransactionType   WebhookTransactionType
	Status            PaymentStatus
	Amount            decimal.Decimal
	Provider          ProviderKind
}

// Recipient is a split-payment beneficiary registered with a provider.
type Recipient struct {
	ExternalID    string
	TenantID      string
	Name          string
	Document      string
	BankCode      string
	BranchNumber  string
	AccountNumber string
	Provider      ProviderKind
}

// CreatePaymentRequest is the provider-facing input for a new invoice.
type CreatePaymentRequest struct {
	TenantID          string
	Amount            decimal.Decimal
	PaymentMethodType PaymentMethodType
	Description       *string
	Metadata          map[string]string
}

// RefundRequest is the provider-facing input for a refund.
type RefundRequest struct {
	TenantID          string
	ExternalInvoiceID string
	ValueToRefund     decimal.Decimal
	Reason            *string
}

// RecipientRequest carries the fields needed to register or update a recipient.
type RecipientRequest struct {
	TenantID      string
	Name          string
	Document      string
	BankCode      string
	BranchNumber  string
	AccountNumber string
}

// Validate checks that the mandatory recipient fields are present.
func (r RecipientRequest) Validate() error {
	for _, v := range []string{r.TenantID, r.Name, r.Document, r.BankCode, r.AccountNumber} {
		if v == "" {
			return ErrInvalidRecipient
		}
	}
	return nil
}
