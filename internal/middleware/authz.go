package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/service"
)

// HeaderTenantID carries the claimed tenant id. It is advisory: the
// binder re-validates it against memberships before any tenant-scoped data
// is served. It is always a separate field from the identity credential.
const HeaderTenantID = "X-Tenant-ID"

type authzCtxKey struct{}

// BindTenant builds the per-request authorization context exactly once,
// from the resolved identity and the claimed X-Tenant-ID header, and
// stores it in the request context. Every downstream guard and handler
// reads this single value; none re-derives tenant or role information.
func BindTenant(resolver *service.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := IdentityFromContext(r.Context())
			claimed := r.Header.Get(HeaderTenantID)

			ac, err := resolver.BuildContext(r.Context(), ident, claimed)
			if err != nil {
				if errors.Is(err, authz.ErrStoreUnavailable) {
					slog.Error("tenant binding failed", "claimed_tenant", claimed, "error", err)
					httpError(w, http.StatusServiceUnavailable, "authorization store unavailable")
					return
				}
				slog.Error("tenant binding failed", "claimed_tenant", claimed, "error", err)
				httpError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), authzCtxKey{}, ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthzFromContext returns the authorization context bound to the request.
// The zero value (anonymous, no tenant) is returned when BindTenant did
// not run.
func AuthzFromContext(ctx context.Context) authz.Context {
	ac, _ := ctx.Value(authzCtxKey{}).(authz.Context)
	return ac
}

// AuthzCtxKeyForTest returns the context key used for storing the
// authorization context. Exported only for tests that inject one.
func AuthzCtxKeyForTest() any {
	return authzCtxKey{}
}
