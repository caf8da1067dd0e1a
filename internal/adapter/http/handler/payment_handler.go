package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/payledger/internal/adapter/http/dto"
	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

const maxWebhookBody = 1 << 20

// PaymentService defines the payment behavior needed by PaymentHandler.
type PaymentService interface {
	ProcessPayment(ctx context.Context, input usecase.ProcessPaymentInput) (*usecase.ProcessPaymentOutput, error)
	ComputeTax(ctx context.Context, tenantID string, amount decimal.Decimal, method domain.PaymentMethodType, hasAntifraud bool) (decimal.Decimal, error)
	CreateRecipient(ctx context.Context, req domain.RecipientRequest) (*domain.Recipient, error)
	UpdateRecipient(ctx context.Context, externalID string, req domain.RecipientRequest) (*domain.Recipient, error)
}

// RefundService refunds settled invoices.
type RefundService interface {
	ProcessRefund(ctx context.Context, input usecase.ProcessRefundInput) (*usecase.ProcessRefundOutput, error)
}

// WebhookService reconciles provider webhooks.
type WebhookService interface {
	ProcessWebhook(ctx context.Context, input usecase.ProcessWebhookInput) (*usecase.ProcessWebhookOutput, error)
}

// PaymentHandler handles payment, refund and webhook HTTP requests.
type PaymentHandler struct {
	paymentUC PaymentService
	refundUC  RefundService
	webhookUC WebhookService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService, refundUC RefundService, webhookUC WebhookService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, refundUC: refundUC, webhookUC: webhookUC}
}

// Create charges a customer and, when settled, deposits into the account.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(session(r))
	if err != nil {
		writeDomainError(w, "invalid payment", err)
		return
	}

	out, err := h.paymentUC.ProcessPayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to process payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromUseCase(out))
}

// ComputeTax returns the provider fee for a prospective payment.
func (h *PaymentHandler) ComputeTax(w http.ResponseWriter, r *http.Request) {
	var req dto.ComputeTaxRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	amount, err := req.ParsedAmount()
	if err != nil {
		writeDomainError(w, "invalid amount", err)
		return
	}

	tax, err := h.paymentUC.ComputeTax(r.Context(), session(r).TenantID, amount, req.PaymentMethodType, req.HasAntifraud)
	if err != nil {
		writeDomainError(w, "failed to compute tax", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TaxResponse{Tax: tax})
}

// Refund refunds a settled invoice and withdraws the refunded value.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req dto.RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(session(r))
	if err != nil {
		writeDomainError(w, "invalid refund", err)
		return
	}

	out, err := h.refundUC.ProcessRefund(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to process refund", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RefundFromUseCase(out))
}

// Webhook reconciles a raw provider event. The account to book against is
// passed as the to_account_id query parameter.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	s := session(r)
	input := usecase.ProcessWebhookInput{
		TenantID:  s.TenantID,
		Event:     body,
		UpdatedBy: s.UserID,
	}
	if v := r.URL.Query().Get("to_account_id"); v != "" {
		input.ToAccountID = &v
	}

	out, err := h.webhookUC.ProcessWebhook(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to process webhook", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookFromUseCase(out))
}

// CreateRecipient registers a split-payment recipient.
func (h *PaymentHandler) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req dto.RecipientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	recipient, err := h.paymentUC.CreateRecipient(r.Context(), req.ToDomain(session(r)))
	if err != nil {
		writeDomainError(w, "failed to create recipient", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecipientFromDomain(recipient))
}

// UpdateRecipient updates a registered recipient.
func (h *PaymentHandler) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	var req dto.RecipientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	recipient, err := h.paymentUC.UpdateRecipient(r.Context(), chi.URLParam(r, "id"), req.ToDomain(session(r)))
	if err != nil {
		writeDomainError(w, "failed to update recipient", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecipientFromDomain(recipient))
}
