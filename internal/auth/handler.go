package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
)

// Middleware verifies the bearer token of every request and stores the principal in context.
func Middleware(v *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := v.Verify(bearerToken(r))
			if err != nil {
				if logger != nil && !errors.Is(err, ErrMissingToken) {
					logger.Warn("rejected token", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="venuedesk"`)
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects principals without role. It must run after Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if p.Role != role {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
