package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key of a mutating request.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	maxIdempotentBody = 1 << 20
)

// storedResponse is what a completed request leaves behind under its key.
type storedResponse struct {
	Status      int             `json:"status"`
	Fingerprint string          `json:"fingerprint"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// IdempotencyMiddleware replays the first successful response of a keyed
// POST, PUT or PATCH instead of running the handler again.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store, ttl: ttl}
}

// Wrap wraps an http.Handler with idempotency checking. Keys are scoped to
// the request's tenant. A key reused with a different method, path or body
// is rejected. Only 2xx responses are kept; anything else releases the key.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" || !isMutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		if s, ok := domain.SessionFromContext(r.Context()); ok {
			key = s.TenantID + ":" + key
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body", "INVALID_REQUEST")
			return
		}
		if len(body) > maxIdempotentBody {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "INVALID_REQUEST")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := requestFingerprint(r, body)

		exists, previous, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "idempotency check failed", "INTERNAL")
			return
		}
		if exists {
			replay(w, previous, fingerprint)
			return
		}

		rec := &bodyRecorder{statusRecorder: statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}}
		next.ServeHTTP(rec, r)

		if rec.statusCode < 200 || rec.statusCode >= 300 {
			_ = m.store.Release(r.Context(), key)
			return
		}

		record, err := json.Marshal(storedResponse{
			Status:      rec.statusCode,
			Fingerprint: fingerprint,
			Body:        rawJSON(rec.body.Bytes()),
		})
		if err != nil {
			_ = m.store.Release(r.Context(), key)
			return
		}
		_ = m.store.Update(r.Context(), key, record, m.ttl)
	})
}

func replay(w http.ResponseWriter, previous []byte, fingerprint string) {
	var stored storedResponse
	if len(previous) == 0 || json.Unmarshal(previous, &stored) != nil || stored.Status == 0 {
		writeError(w, http.StatusConflict, "request with this idempotency key is in progress", "IDEMPOTENCY_IN_PROGRESS")
		return
	}
	if stored.Fingerprint != fingerprint {
		writeError(w, http.StatusUnprocessableEntity, "idempotency key was used with a different request", "IDEMPOTENCY_KEY_REUSED")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(IdempotencyReplayHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func requestFingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// rawJSON keeps bodies that are not valid JSON from breaking the record.
func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	if !json.Valid(b) {
		quoted, _ := json.Marshal(string(b))
		return quoted
	}
	return append(json.RawMessage(nil), b...)
}

type bodyRecorder struct {
	statusRecorder

	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
