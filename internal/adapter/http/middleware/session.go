package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/iho/payledger/internal/domain"
	"github.com/iho/payledger/internal/infrastructure/auth"
	"github.com/iho/payledger/internal/infrastructure/metrics"
)

const (
	// TenantIDHeader carries the tenant when token auth is disabled.
	TenantIDHeader = "X-Tenant-ID"
	// UserIDHeader carries the acting user when token auth is disabled.
	UserIDHeader = "X-User-ID"
)

// Session resolves the tenant and acting user of each request and stores
// them on the request context. With a JWT manager the session comes from a
// Bearer token, otherwise from the X-Tenant-ID and X-User-ID headers.
func Session(jwtManager *auth.JWTManager, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s domain.Session

			if jwtManager != nil {
				claims, reason, err := bearerClaims(jwtManager, r)
				if err != nil {
					if m != nil {
						m.AuthFailures.WithLabelValues(reason).Inc()
					}
					writeError(w, http.StatusUnauthorized, err.Error(), domain.CodeOf(err))
					return
				}
				s = claims.Session()
			} else {
				s = domain.Session{
					TenantID: strings.TrimSpace(r.Header.Get(TenantIDHeader)),
					UserID:   strings.TrimSpace(r.Header.Get(UserIDHeader)),
				}
			}

			if s.TenantID == "" {
				if m != nil {
					m.AuthFailures.WithLabelValues("missing_tenant").Inc()
				}
				writeError(w, http.StatusUnauthorized, "tenant is required", domain.ErrMissingTenant.Code)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), s)))
		})
	}
}

func bearerClaims(jwtManager *auth.JWTManager, r *http.Request) (*auth.Claims, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "missing_token", domain.ErrUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "malformed_header", domain.ErrInvalidToken
	}

	claims, err := jwtManager.Verify(parts[1])
	if err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			return nil, "expired_token", err
		}
		return nil, "invalid_token", err
	}

	return claims, "", nil
}
