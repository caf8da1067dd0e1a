package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/payledger/internal/adapter/http/dto"
	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerEntryHandler.
type LedgerService interface {
	CreateLedgerEntry(ctx context.Context, input usecase.CreateLedgerEntryInput) (*domain.LedgerEntry, error)
	GetLedgerEntry(ctx context.Context, tenantID, id string) (*domain.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, filter domain.LedgerEntryFilter) (*usecase.LedgerEntryPage, error)
	UpdateLedgerEntryStatus(ctx context.Context, tenantID, id string, status domain.LedgerEntryStatus, updatedBy string) (*domain.LedgerEntry, error)
	DeleteLedgerEntry(ctx context.Context, tenantID, id, deletedBy string) error
}

// LedgerEntryHandler handles ledger entry HTTP requests.
type LedgerEntryHandler struct {
	ledgerUC LedgerService
}

// NewLedgerEntryHandler creates a new LedgerEntryHandler.
func NewLedgerEntryHandler(ledgerUC LedgerService) *LedgerEntryHandler {
	return &LedgerEntryHandler{ledgerUC: ledgerUC}
}

// Create records a ledger movement.
func (h *LedgerEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLedgerEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(session(r))
	if err != nil {
		writeDomainError(w, "invalid ledger entry", err)
		return
	}

	entry, err := h.ledgerUC.CreateLedgerEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create ledger entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntryFromDomain(entry))
}

// Get retrieves a ledger entry by ID.
func (h *LedgerEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledgerUC.GetLedgerEntry(r.Context(), session(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get ledger entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntryFromDomain(entry))
}

// List lists ledger entries filtered by status, type and creation time.
func (h *LedgerEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := dto.ListLedgerEntriesQuery{
		Page:  parseIntQuery(r, "page", domain.DefaultPage),
		Limit: parseIntQuery(r, "limit", domain.DefaultPageSize),
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.LedgerEntryStatus(v)
		q.Status = &status
	}
	if v := r.URL.Query().Get("type"); v != "" {
		entryType := domain.LedgerEntryType(v)
		q.Type = &entryType
	}

	var err error
	if q.DateFrom, err = parseTimeQuery(r, "date_from"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_from", "INVALID_QUERY", err.Error())
		return
	}
	if q.DateTo, err = parseTimeQuery(r, "date_to"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_to", "INVALID_QUERY", err.Error())
		return
	}

	page, err := h.ledgerUC.ListLedgerEntries(r.Context(), q.ToFilter(session(r)))
	if err != nil {
		writeDomainError(w, "failed to list ledger entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntryPageFromUseCase(page))
}

// UpdateStatus moves a pending entry to COMPLETED or FAILED.
func (h *LedgerEntryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateLedgerEntryStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY", err.Error())
		return
	}

	s := session(r)
	entry, err := h.ledgerUC.UpdateLedgerEntryStatus(r.Context(), s.TenantID, chi.URLParam(r, "id"), req.Status, s.UserID)
	if err != nil {
		writeDomainError(w, "failed to update ledger entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntryFromDomain(entry))
}

// Delete soft-deletes a ledger entry.
func (h *LedgerEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if err := h.ledgerUC.DeleteLedgerEntry(r.Context(), s.TenantID, chi.URLParam(r, "id"), s.UserID); err != nil {
		writeDomainError(w, "failed to delete ledger entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
