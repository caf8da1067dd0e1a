package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/payledger/internal/adapter/http/dto"
	"github.com/iho/payledger/internal/domain"
)

// Codes of DOMAIN errors that describe a malformed request rather than a
// rejected business operation.
var badRequestCodes = map[string]bool{
	domain.ErrInvalidAmount.Code:          true,
	domain.ErrAmountScale.Code:            true,
	domain.ErrSameAccount.Code:            true,
	domain.ErrMissingSourceAccount.Code:   true,
	domain.ErrMissingDestination.Code:     true,
	domain.ErrInvalidEntryType.Code:       true,
	domain.ErrInvalidEntryStatus.Code:     true,
	domain.ErrMissingTenant.Code:          true,
	domain.ErrMissingActor.Code:           true,
	domain.ErrInvalidDateRange.Code:       true,
	domain.ErrInvalidAccountName.Code:     true,
	domain.ErrInvalidPaymentMethod.Code:   true,
	domain.ErrInvalidWebhookEvent.Code:    true,
	domain.ErrMissingExternalInvoice.Code: true,
	domain.ErrInvalidRecipient.Code:       true,
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, code, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Code:    code,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. Only the message of
// the outermost classified error is exposed, never its cause, and nothing
// at all for internal and provider failures.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	var details string
	var de *domain.Error
	if status < http.StatusInternalServerError && errors.As(err, &de) {
		details = de.Message
	}
	writeError(w, status, message, domain.CodeOf(err), details)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindDomain:
		if badRequestCodes[domain.CodeOf(err)] {
			return http.StatusBadRequest
		}
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnsupportedProvider:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindExternalSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// session returns the request's session. The session middleware guarantees
// a tenant on every API route.
func session(r *http.Request) domain.Session {
	s, _ := domain.SessionFromContext(r.Context())
	return s
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseTimeQuery parses an RFC 3339 query parameter. Absent values are nil.
func parseTimeQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
