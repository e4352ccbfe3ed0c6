package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/middleware"
)

const refreshCookieName = "predialis_refresh"

func setRefreshCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/v1/auth",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[identity.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, rawRefresh, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		slog.Debug("login failed", "email", req.Email, "error", err)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	setRefreshCookie(w, rawRefresh, int(7*24*time.Hour/time.Second))
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no refresh token")
		return
	}

	resp, newRawRefresh, err := h.Auth.RefreshTokens(r.Context(), cookie.Value)
	if err != nil {
		slog.Debug("token refresh failed", "error", err)
		setRefreshCookie(w, "", -1)
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	setRefreshCookie(w, newRawRefresh, int(7*24*time.Hour/time.Second))
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		writeAuthzError(w, authz.ErrUnauthenticated)
		return
	}

	if err := h.Auth.Logout(r.Context(), ident.ID); err != nil {
		writeInternalError(w, err)
		return
	}

	setRefreshCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		writeAuthzError(w, authz.ErrUnauthenticated)
		return
	}

	req, ok := readJSON[identity.ChangePasswordRequest](w, r)
	if !ok {
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), ident.ID, req); err != nil {
		writeDomainError(w, err, "password change failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	ident := middleware.IdentityFromContext(r.Context())
	if ident == nil {
		writeAuthzError(w, authz.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

// RegisterUser handles POST /api/v1/users (admin only)
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[identity.CreateRequest](w, r)
	if !ok {
		return
	}

	ident, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, ident)
}
