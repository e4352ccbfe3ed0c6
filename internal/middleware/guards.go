package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/domain/membership"
	"github.com/predialis/predialis/internal/service"
)

// Guards check one precondition each over the bound authorization context
// and short-circuit with the most specific failure. Routes compose them in
// the fixed order RequireIdentity, RequireTenant, then role/module checks,
// so a caller never sees a downstream symptom of an upstream failure.

var denialCounter metric.Int64Counter

func init() {
	var err error
	denialCounter, err = otel.Meter("predialis/guards").Int64Counter(
		"predialis.authz.denied",
		metric.WithDescription("Guard denials by failure kind"))
	if err != nil {
		slog.Warn("guard denial counter unavailable", "error", err)
	}
}

// RequireIdentity rejects anonymous requests with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := AuthzFromContext(r.Context())
		if !ac.Authenticated() {
			deny(r.Context(), w, http.StatusUnauthorized, authz.ErrUnauthenticated, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTenant rejects requests without an effective tenant with 400.
// The caller should prompt for tenant selection, not show an error page.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := AuthzFromContext(r.Context())
		if !ac.Authenticated() {
			deny(r.Context(), w, http.StatusUnauthorized, authz.ErrUnauthenticated, "authentication required")
			return
		}
		if !ac.TenantBound() {
			deny(r.Context(), w, http.StatusBadRequest, authz.ErrNoTenantSelected, "no tenant selected")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole restricts access to contexts satisfying the minimum
// tenant-scoped role. Global admins always pass.
func RequireRole(min membership.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := AuthzFromContext(r.Context())
			if !ac.Authenticated() {
				deny(r.Context(), w, http.StatusUnauthorized, authz.ErrUnauthenticated, "authentication required")
				return
			}
			if !ac.IsGlobalAdmin && !ac.TenantBound() {
				deny(r.Context(), w, http.StatusBadRequest, authz.ErrNoTenantSelected, "no tenant selected")
				return
			}
			if !ac.HasRole(min) {
				deny(r.Context(), w, http.StatusForbidden, authz.ErrForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGlobalAdmin restricts access to platform administrators.
func RequireGlobalAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := AuthzFromContext(r.Context())
		if !ac.Authenticated() {
			deny(r.Context(), w, http.StatusUnauthorized, authz.ErrUnauthenticated, "authentication required")
			return
		}
		if !ac.IsGlobalAdmin {
			deny(r.Context(), w, http.StatusForbidden, authz.ErrForbidden, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireModule rejects requests for a disabled module with 403.
// Managers and global admins always pass: module toggles restrict
// ordinary members, never the people who administer the toggles — a
// manager must be able to reach the screen that re-enables a module they
// just disabled.
func RequireModule(resolver *service.Resolver, moduleKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := AuthzFromContext(r.Context())
			if !ac.Authenticated() {
				deny(r.Context(), w, http.StatusUnauthorized, authz.ErrUnauthenticated, "authentication required")
				return
			}
			if ac.CanManage() {
				next.ServeHTTP(w, r)
				return
			}
			if !ac.TenantBound() {
				deny(r.Context(), w, http.StatusBadRequest, authz.ErrNoTenantSelected, "no tenant selected")
				return
			}

			enabled, err := resolver.IsModuleEnabled(r.Context(), moduleKey, ac.TenantID)
			if err != nil {
				// An outage is not a deny; surface it as such.
				slog.Error("module permission lookup failed", "module", moduleKey, "tenant", ac.TenantID, "error", err)
				status := http.StatusInternalServerError
				msg := "internal server error"
				if errors.Is(err, authz.ErrStoreUnavailable) {
					status = http.StatusServiceUnavailable
					msg = "authorization store unavailable"
				}
				httpError(w, status, msg)
				return
			}
			if !enabled {
				deny(r.Context(), w, http.StatusForbidden, authz.ErrModuleDisabled, "module disabled")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny terminates the request with the given failure kind and records it.
func deny(ctx context.Context, w http.ResponseWriter, status int, kind error, msg string) {
	if denialCounter != nil {
		denialCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.Error())))
	}
	httpError(w, status, msg)
}
