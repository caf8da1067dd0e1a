package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	ProfileID *string         `json:"profile_id,omitempty"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedBy *string         `json:"updated_by,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		TenantID:  a.TenantID,
		ProfileID: a.ProfileID,
		Name:      a.Name,
		Balance:   a.Balance,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedBy: a.UpdatedBy,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is one page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string                   `json:"id"`
	TenantID      string                   `json:"tenant_id"`
	FromAccountID *string                  `json:"from_account_id,omitempty"`
	ToAccountID   *string                  `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal          `json:"amount"`
	Type          domain.LedgerEntryType   `json:"type"`
	Status        domain.LedgerEntryStatus `json:"status"`
	CreatedBy     string                   `json:"created_by"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedBy     *string                  `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time               `json:"updated_at,omitempty"`
}

// LedgerEntryFromDomain converts a domain entry to response. A nil entry
// yields nil.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	if e == nil {
		return nil
	}
	return &LedgerEntryResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		FromAccountID: e.FromAccountID,
		ToAccountID:   e.ToAccountID,
		Amount:        e.Amount,
		Type:          e.Type,
		Status:        e.Status,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
		UpdatedBy:     e.UpdatedBy,
		UpdatedAt:     e.UpdatedAt,
	}
}

// LedgerEntryPageResponse is one page of ledger entries.
type LedgerEntryPageResponse struct {
	Items      []*LedgerEntryResponse `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// LedgerEntryPageFromUseCase converts a use case page to response.
func LedgerEntryPageFromUseCase(p *usecase.LedgerEntryPage) *LedgerEntryPageResponse {
	items := make([]*LedgerEntryResponse, len(p.Entries))
	for i, e := range p.Entries {
		items[i] = LedgerEntryFromDomain(e)
	}
	return &LedgerEntryPageResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// PixResponse carries instant-payment details.
type PixResponse struct {
	QRCode    string `json:"qr_code"`
	CopyPaste string `json:"copy_paste"`
	ExpiresAt string `json:"expires_at"`
}

// PaymentResponse is the provider outcome of a payment and its deposit.
type PaymentResponse struct {
	ExternalInvoiceID string               `json:"external_invoice_id"`
	Status            domain.PaymentStatus `json:"status"`
	Provider          domain.ProviderKind  `json:"provider"`
	Tax               *decimal.Decimal     `json:"tax,omitempty"`
	ProviderMessage   *string              `json:"provider_message,omitempty"`
	Pix               *PixResponse         `json:"pix,omitempty"`
	LedgerEntry       *LedgerEntryResponse `json:"ledger_entry,omitempty"`
}

// PaymentFromUseCase converts a processed payment to response.
func PaymentFromUseCase(out *usecase.ProcessPaymentOutput) *PaymentResponse {
	p := out.Payment
	resp := &PaymentResponse{
		ExternalInvoiceID: p.ExternalInvoiceID,
		Status:            p.Status,
		Provider:          p.Provider,
		Tax:               p.Tax,
		ProviderMessage:   p.ProviderMessage,
		LedgerEntry:       LedgerEntryFromDomain(out.LedgerEntry),
	}
	if p.Pix != nil {
		resp.Pix = &PixResponse{QRCode: p.Pix.QRCode, CopyPaste: p.Pix.CopyPaste, ExpiresAt: p.Pix.ExpiresAt}
	}
	return resp
}

// TaxResponse is a computed provider fee.
type TaxResponse struct {
	Tax decimal.Decimal `json:"tax"`
}

// RefundResponse is the provider refund and its withdrawal.
type RefundResponse struct {
	Success               bool                 `json:"success"`
	ExternalTransactionID *string              `json:"external_transaction_id,omitempty"`
	RefundedValue         decimal.Decimal      `json:"refunded_value"`
	LedgerEntry           *LedgerEntryResponse `json:"ledger_entry,omitempty"`
}

// RefundFromUseCase converts a processed refund to response.
func RefundFromUseCase(out *usecase.ProcessRefundOutput) *RefundResponse {
	return &RefundResponse{
		Success:               out.Refund.Success,
		ExternalTransactionID: out.Refund.ExternalTransactionID,
		RefundedValue:         out.Refund.RefundedValue,
		LedgerEntry:           LedgerEntryFromDomain(out.LedgerEntry),
	}
}

// WebhookResponse acknowledges a provider webhook.
type WebhookResponse struct {
	ExternalInvoiceID string                        `json:"external_invoice_id"`
	TransactionType   domain.WebhookTransactionType `json:"transaction_type"`
	Status            domain.PaymentStatus          `json:"status"`
	Amount            decimal.Decimal               `json:"amount"`
	Provider          domain.ProviderKind           `json:"provider"`
	Duplicate         bool                          `json:"duplicate"`
	LedgerEntry       *LedgerEntryResponse          `json:"ledger_entry,omitempty"`
}

// WebhookFromUseCase converts a processed webhook to response.
func WebhookFromUseCase(out *usecase.ProcessWebhookOutput) *WebhookResponse {
	w := out.Webhook
	return &WebhookResponse{
		ExternalInvoiceID: w.ExternalInvoiceID,
		TransactionType:   w.TransactionType,
		Status:            w.Status,
		Amount:            w.Amount,
		Provider:          w.Provider,
		Duplicate:         out.Duplicate,
		LedgerEntry:       LedgerEntryFromDomain(out.LedgerEntry),
	}
}

// RecipientResponse represents a registered recipient.
type RecipientResponse struct {
	ExternalID    string              `json:"external_id"`
	Name          string              `json:"name"`
	Document      string              `json:"document"`
	BankCode      string              `json:"bank_code"`
	BranchNumber  string              `json:"branch_number"`
	AccountNumber string              `json:"account_number"`
	Provider      domain.ProviderKind `json:"provider"`
}

// RecipientFromDomain converts a domain recipient to response.
func RecipientFromDomain(r *domain.Recipient) *RecipientResponse {
	return &RecipientResponse{
		ExternalID:    r.ExternalID,
		Name:          r.Name,
		Document:      r.Document,
		BankCode:      r.BankCode,
		BranchNumber:  r.BranchNumber,
		AccountNumber: r.AccountNumber,
		Provider:      r.Provider,
	}
}

// BalanceAuditResponse compares a recorded balance with its entries.
type BalanceAuditResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// BalanceAuditFromUseCase converts an audit result to response.
func BalanceAuditFromUseCase(r *usecase.BalanceAuditResult) *BalanceAuditResponse {
	return &BalanceAuditResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		CheckedAt:         r.CheckedAt,
	}
}

// BalanceAuditReportResponse summarizes a tenant audit.
type BalanceAuditReportResponse struct {
	TotalAccounts      int                     `json:"total_accounts"`
	ReconciledAccounts int                     `json:"reconciled_accounts"`
	Discrepancies      []*BalanceAuditResponse `json:"discrepancies"`
	CheckedAt          time.Time               `json:"checked_at"`
}

// BalanceAuditReportFromUseCase converts a tenant audit to response.
func BalanceAuditReportFromUseCase(r *usecase.BalanceAuditReport) *BalanceAuditReportResponse {
	discrepancies := make([]*BalanceAuditResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = BalanceAuditFromUseCase(d)
	}
	return &BalanceAuditReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
