package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/iho/payledger/internal/infrastructure/logger"
)

// Recovery recovers from panics, logs them and answers 500.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					l := logger.Origin(r.Context(), log, "HTTP")
					l.Error().
						Interface("error", err).
						Str("stack", string(debug.Stack())).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Msg("http.panic.recovered")

					writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
