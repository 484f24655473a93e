package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/auth"
	"github.com/greenrnd/server/internal/logging"
)

// TokenAuth rejects requests whose X-Auth-Token header is missing or fails
// validation. It must be mounted before routing so unknown paths are gated too.
func TokenAuth(validator auth.TokenValidator, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(auth.HeaderAuthToken)
			if err := validator.Validate(r.Context(), token); err != nil {
				l := logging.With(r.Context(), logger)
				l.Debug().Err(err).Str("path", r.URL.Path).Msg("auth gate rejected request")
				RespondWithError(w, http.StatusUnauthorized, "invalid or missing auth token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
