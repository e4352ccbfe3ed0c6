package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/predialis/predialis/internal/config"
	"github.com/predialis/predialis/internal/domain/identity"
)

func newTestAuthService(store *mockStore) *AuthService {
	cfg := config.Auth{
		JWTSecret:          "test-secret-key-must-be-long-enough",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		BcryptCost:         4, // low cost for fast tests
		DefaultAdminEmail:  "admin@test.com",
		DefaultAdminPass:   "Adminpass123",
	}
	return NewAuthService(store, &cfg)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	i, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "test@example.com",
		Name:       "Test User",
		Password:   "Password123",
		GlobalRole: identity.GlobalRoleUser,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if i.Email != "test@example.com" {
		t.Errorf("email = %q, want test@example.com", i.Email)
	}
	if i.PasswordHash == "Password123" {
		t.Error("password stored in clear")
	}

	resp, rawRefresh, err := svc.Login(ctx, identity.LoginRequest{
		Email:    "test@example.com",
		Password: "Password123",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token is empty")
	}
	if rawRefresh == "" {
		t.Error("refresh token is empty")
	}
	if resp.Identity.Email != "test@example.com" {
		t.Errorf("identity email = %q, want test@example.com", resp.Identity.Email)
	}
}

func TestAuthService_InvalidLogin(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "test@example.com",
		Name:       "Test",
		Password:   "Password123",
		GlobalRole: identity.GlobalRoleUser,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err = svc.Login(ctx, identity.LoginRequest{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}); err == nil {
		t.Fatal("expected error for wrong password")
	}

	if _, _, err = svc.Login(ctx, identity.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Password123",
	}); err == nil {
		t.Fatal("expected error for non-existent identity")
	}
}

func TestAuthService_ResolveIdentity(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "jwt@test.com",
		Name:       "JWT User",
		Password:   "Jwtpass1234",
		GlobalRole: identity.GlobalRoleAdmin,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, _, err := svc.Login(ctx, identity.LoginRequest{
		Email:    "jwt@test.com",
		Password: "Jwtpass1234",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resolved, err := svc.ResolveIdentity(resp.AccessToken)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Email != "jwt@test.com" {
		t.Errorf("email = %q, want jwt@test.com", resolved.Email)
	}
	if !resolved.IsGlobalAdmin() {
		t.Error("global role not carried through the token")
	}
}

func TestAuthService_ResolveIdentityRejectsTampering(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "jwt@test.com",
		Name:       "JWT User",
		Password:   "Jwtpass1234",
		GlobalRole: identity.GlobalRoleUser,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, _, err := svc.Login(ctx, identity.LoginRequest{Email: "jwt@test.com", Password: "Jwtpass1234"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"missing segment", "abc.def"},
		{"flipped signature", resp.AccessToken[:len(resp.AccessToken)-2] + "xx"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveIdentity(tt.token)
			if !errors.Is(err, ErrMalformedCredential) {
				t.Errorf("error = %v, want ErrMalformedCredential", err)
			}
		})
	}
}

func TestAuthService_RefreshRotation(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "rot@test.com",
		Name:       "Rot",
		Password:   "Rotpass12345",
		GlobalRole: identity.GlobalRoleUser,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, rawRefresh, err := svc.Login(ctx, identity.LoginRequest{Email: "rot@test.com", Password: "Rotpass12345"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, newRaw, err := svc.RefreshTokens(ctx, rawRefresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("no new access token")
	}
	if newRaw == rawRefresh {
		t.Error("refresh token was not rotated")
	}

	// The old token must be single-use.
	if _, _, err := svc.RefreshTokens(ctx, rawRefresh); err == nil {
		t.Fatal("expected old refresh token to be rejected after rotation")
	}

	// The rotated token still works.
	if _, _, err := svc.RefreshTokens(ctx, newRaw); err != nil {
		t.Fatalf("rotated token rejected: %v", err)
	}
}

func TestAuthService_LogoutRevokesRefresh(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	i, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "out@test.com",
		Name:       "Out",
		Password:   "Outpass12345",
		GlobalRole: identity.GlobalRoleUser,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, rawRefresh, err := svc.Login(ctx, identity.LoginRequest{Email: "out@test.com", Password: "Outpass12345"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, i.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := svc.RefreshTokens(ctx, rawRefresh); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	i, err := svc.Register(ctx, &identity.CreateRequest{
		Email:      "pw@test.com",
		Name:       "PW",
		Password:   "Oldpass12345",
		GlobalRole: identity.GlobalRoleUser,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, i.ID, identity.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "Newpass12345",
	}); err == nil {
		t.Fatal("expected error for wrong old password")
	}

	if err := svc.ChangePassword(ctx, i.ID, identity.ChangePasswordRequest{
		OldPassword: "Oldpass12345",
		NewPassword: "Newpass12345",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Login(ctx, identity.LoginRequest{Email: "pw@test.com", Password: "Newpass12345"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthService_SeedDefaultAdmin(t *testing.T) {
	store := &mockStore{}
	svc := newTestAuthService(store)
	ctx := context.Background()

	if err := svc.SeedDefaultAdmin(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	admin, err := store.GetIdentityByEmail(ctx, "admin@test.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if !admin.IsGlobalAdmin() {
		t.Error("seeded admin lacks the global admin role")
	}

	// Seeding again with identities present is a no-op.
	if err := svc.SeedDefaultAdmin(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	identities, _ := store.ListIdentities(ctx)
	if len(identities) != 1 {
		t.Errorf("identities = %d, want 1", len(identities))
	}
}
