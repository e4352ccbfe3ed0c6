// Package middleware provides the request-boundary layers that resolve
// the caller identity, bind the effective tenant, and guard handlers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/service"
)

type identityCtxKey struct{}

// Identity resolves the caller identity from the Authorization header.
//
// A missing credential is not an error: the request proceeds anonymous and
// the guards decide whether that is acceptable. A present-but-invalid
// credential (bad signature, expired) is rejected here; the two cases are
// logged apart so a broken client is distinguishable from a public hit.
func Identity(authn *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				// Anonymous request; representable, not an error.
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				slog.Debug("rejected credential", "reason", "not a bearer token", "remote", r.RemoteAddr)
				httpError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			ident, err := authn.ResolveIdentity(token)
			if err != nil {
				slog.Debug("rejected credential", "reason", err.Error(), "remote", r.RemoteAddr)
				httpError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityCtxKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the resolved identity, or nil for anonymous
// requests.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	i, _ := ctx.Value(identityCtxKey{}).(*identity.Identity)
	return i
}

// IdentityCtxKeyForTest returns the context key used for storing the
// resolved identity. Exported only for tests that inject an identity.
func IdentityCtxKeyForTest() any {
	return identityCtxKey{}
}

// httpError writes a minimal JSON error body. The middleware package keeps
// its own writer to avoid depending on the HTTP adapter.
func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
