// Package mock implements a deterministic in-process payment provider.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/domain"
)

// ErrUnknownInvoice is returned when refunding an invoice this provider never issued.
var ErrUnknownInvoice = errors.New("mock provider: unknown invoice")

// taxRates is the percentage fee charged per payment method.
var taxRates = map[domain.PaymentMethodType]decimal.Decimal{
	domain.PaymentMethodPix:        decimal.RequireFromString("0.01"),
	domain.PaymentMethodBoleto:     decimal.RequireFromString("0.02"),
	domain.PaymentMethodDebitCard:  decimal.RequireFromString("0.025"),
	domain.PaymentMethodCreditCard: decimal.RequireFromString("0.04"),
}

const pixTTL = 30 * time.Minute

// WebhookEvent is the JSON body the mock provider posts to webhooks.
type WebhookEvent struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Amount string `json:"amount"`
}

type invoice struct {
	tenantID string
	amount   decimal.Decimal
	refunded decimal.Decimal
}

// Provider settles card payments immediately and leaves PIX and boleto OPEN.
type Provider struct {
	antifraudFee decimal.Decimal
	now          func() time.Time

	mu         sync.Mutex
	invoices   map[string]*invoice
	recipients map[string]*domain.Recipient
}

// New creates a mock provider that adds antifraudFee to taxes when requested.
func New(antifraudFee decimal.Decimal) *Provider {
	return &Provider{
		antifraudFee: antifraudFee,
		now:          time.Now,
		invoices:     make(map[string]*invoice),
		recipients:   make(map[string]*domain.Recipient),
	}
}

func (p *Provider) Kind() domain.ProviderKind {
	return domain.ProviderMock
}

func (p *Provider) CreatePayment(ctx context.Context, req domain.CreatePaymentRequest) (*domain.PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	tax, err := p.ComputeTax(ctx, req.Amount, req.PaymentMethodType, false)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	result := &domain.PaymentResult{
		ExternalInvoiceID: id,
		Status:            domain.PaymentStatusOpen,
		Provider:          domain.ProviderMock,
		Tax:               &tax,
	}

	switch {
	case req.PaymentMethodType.IsCard():
		result.Status = domain.PaymentStatusPaid
	case req.PaymentMethodType == domain.PaymentMethodPix:
		code := "00020126mock" + strings.ReplaceAll(id, "-", "")
		result.Pix = &domain.PixInfo{
			QRCode:    code,
			CopyPaste: code,
			ExpiresAt: p.now().Add(pixTTL).UTC().Format(time.RFC3339),
		}
	}

	msg := fmt.Sprintf("mock %s payment %s", strings.ToLower(string(req.PaymentMethodType)), strings.ToLower(string(result.Status)))
	result.ProviderMessage = &msg

	p.mu.Lock()
	p.invoices[id] = &invoice{tenantID: req.TenantID, amount: req.Amount, refunded: decimal.Zero}
	p.mu.Unlock()

	return result, nil
}

// RefundPayment refunds up to the remaining invoice amount. A request above
// the remainder is reported as unsuccessful rather than an error.
func (p *Provider) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.RefundResult, error) {
	if !req.ValueToRefund.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.invoices[req.ExternalInvoiceID]
	if !ok || inv.tenantID != req.TenantID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInvoice, req.ExternalInvoiceID)
	}

	remaining := inv.amount.Sub(inv.refunded)
	if req.ValueToRefund.GreaterThan(remaining) {
		return &domain.RefundResult{Success: false, RefundedValue: decimal.Zero}, nil
	}

	inv.refunded = inv.refunded.Add(req.ValueToRefund)
	txID := uuid.NewString()

	return &domain.RefundResult{
		Success:               true,
		ExternalTransactionID: &txID,
		RefundedValue:         req.ValueToRefund,
	}, nil
}

// HandleWebhookNotification accepts events only for invoices issued to
// tenantID. A payment must carry the invoice amount and a refund may not
// exceed what was refunded through RefundPayment.
func (p *Provider) HandleWebhookNotification(ctx context.Context, tenantID string, event []byte) (*domain.WebhookResult, error) {
	ev, err := parseEvent(event)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", domain.ErrInvalidWebhookEvent, ev.Amount)
	}

	txType := domain.WebhookTransactionType(strings.ToUpper(ev.Type))
	if txType != domain.WebhookTransactionPayment && txType != domain.WebhookTransactionRefund {
		return nil, fmt.Errorf("%w: type %q", domain.ErrInvalidWebhookEvent, ev.Type)
	}

	if err := p.checkEvent(tenantID, ev.ID, txType, amount); err != nil {
		return nil, err
	}

	return &domain.WebhookResult{
		ExternalInvoiceID: ev.ID,
		TransactionType:   txType,
		Status:            domain.PaymentStatus(strings.ToUpper(ev.Status)),
		Amount:            amount,
		Provider:          domain.ProviderMock,
	}, nil
}

func (p *Provider) checkEvent(tenantID, invoiceID string, txType domain.WebhookTransactionType, amount decimal.Decimal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.invoices[invoiceID]
	if !ok || inv.tenantID != tenantID {
		return fmt.Errorf("%w: %s", domain.ErrWebhookInvoiceMismatch, invoiceID)
	}

	switch txType {
	case domain.WebhookTransactionPayment:
		if !amount.Equal(inv.amount) {
			return fmt.Errorf("%w: amount %s, invoice %s", domain.ErrWebhookInvoiceMismatch, amount, inv.amount)
		}
	case domain.WebhookTransactionRefund:
		if !amount.IsPositive() || amount.GreaterThan(inv.refunded) {
			return fmt.Errorf("%w: refund %s, refunded %s", domain.ErrWebhookInvoiceMismatch, amount, inv.refunded)
		}
	}

	return nil
}

func (p *Provider) ExtractExternalInvoiceID(event []byte) (string, error) {
	ev, err := parseEvent(event)
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// ComputeTax applies the method's rate and, if requested, the flat antifraud
// fee, rounded to cents.
func (p *Provider) ComputeTax(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error) {
	rate, ok := taxRates[method]
	if !ok {
		return decimal.Zero, domain.ErrInvalidPaymentMethod
	}

	tax := amount.Mul(rate)
	if hasAntifraud {
		tax = tax.Add(p.antifraudFee)
	}
	return tax.Round(2), nil
}

func (p *Provider) CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := recipientFrom("rcp_"+uuid.NewString(), req)

	p.mu.Lock()
	p.recipients[r.ExternalID] = r
	p.mu.Unlock()

	out := *r
	return &out, nil
}

func (p *Provider) UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.recipients[externalID]
	if !ok || existing.TenantID != req.TenantID {
		return nil, fmt.Errorf("mock provider: unknown recipient %s", externalID)
	}

	r := recipientFrom(externalID, req)
	p.recipients[externalID] = r

	out := *r
	return &out, nil
}

func recipientFrom(id string, req domain.RecipientRequest) *domain.Recipient {
	return &domain.Recipient{
		ExternalID:    id,
		TenantID:      req.TenantID,
		Name:          req.Name,
		Document:      req.Document,
		BankCode:      req.BankCode,
		BranchNumber:  req.BranchNumber,
		AccountNumber: req.AccountNumber,
		Provider:      domain.ProviderMock,
	}
}

func parseEvent(event []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(event, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhookEvent, err)
	}
	if ev.ID == "" {
		return nil, domain.ErrMissingExternalInvoice
	}
	return &ev, nil
}
