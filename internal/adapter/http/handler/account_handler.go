package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/payledger/internal/adapter/http/dto"
	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// BalanceAuditService recomputes balances from committed entries.
type BalanceAuditService interface {
	AuditAccount(ctx context.Context, tenantID, accountID string) (*usecase.BalanceAuditResult, error)
	AuditTenant(ctx context.Context, tenantID string, limit int) (*usecase.BalanceAuditReport, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	auditUC   BalanceAuditService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, auditUC BalanceAuditService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, auditUC: auditUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(session(r)))
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accountUC.GetAccount(r.Context(), session(r).TenantID, id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		TenantID: session(r).TenantID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Limit:    limit,
		Offset:   offset,
	})
}

// Audit compares one account's balance with its completed entries.
func (h *AccountHandler) Audit(w http.ResponseWriter, r *http.Request) {
	result, err := h.auditUC.AuditAccount(r.Context(), session(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to audit account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceAuditFromUseCase(result))
}

// AuditTenant audits every account of the caller's tenant.
func (h *AccountHandler) AuditTenant(w http.ResponseWriter, r *http.Request) {
	report, err := h.auditUC.AuditTenant(r.Context(), session(r).TenantID, parseIntQuery(r, "limit", 0))
	if err != nil {
		writeDomainError(w, "failed to audit balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceAuditReportFromUseCase(report))
}
