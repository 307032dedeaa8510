package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"rollcall/internal/platform/auth"
)

// TokenVerifier resolves a bearer credential to an authenticated principal.
// Credential issuance lives outside this system; the resolved identity is
// trusted verbatim.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

type contextKeyPrincipal struct{}

// GetPrincipal retrieves the authenticated principal from the context.
// Handlers extract it once and pass it to services as an explicit argument;
// services never read identity from context.
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(auth.Principal)
	return p, ok
}

// RequireAuth rejects requests without a valid bearer token and threads the
// resolved principal into the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyPrincipal{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + description + `"}`))
}
