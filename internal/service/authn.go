package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/predialis/predialis/internal/config"
	"github.com/predialis/predialis/internal/domain"
	"github.com/predialis/predialis/internal/domain/identity"
	"github.com/predialis/predialis/internal/port/database"
)

const (
	tokenAudience = "predialis"
	tokenIssuer   = "predialis-core"
)

// ErrMalformedCredential distinguishes a syntactically broken or tampered
// token from a merely absent one; callers log these differently.
var ErrMalformedCredential = errors.New("malformed credential")

// AuthService handles registration, login, and access/refresh tokens.
// It only resolves identities; tenant binding is the Resolver's job.
type AuthService struct {
	store  database.Store
	cfg    *config.Auth
	secret []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(store database.Store, cfg *config.Auth) *AuthService {
	return &AuthService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
	}
}

// Register creates a new identity with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *identity.CreateRequest) (*identity.Identity, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	i := &identity.Identity{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		GlobalRole:   req.GlobalRole,
		Enabled:      true,
	}

	if err := s.store.CreateIdentity(ctx, i); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return i, nil
}

// Login authenticates an identity and returns an access token plus the raw
// refresh token to be set as a cookie.
func (s *AuthService) Login(ctx context.Context, req identity.LoginRequest) (*identity.LoginResponse, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	i, err := s.store.GetIdentityByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", errors.New("invalid credentials")
		}
		return nil, "", fmt.Errorf("get identity: %w", err)
	}

	if !i.Enabled {
		return nil, "", errors.New("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", errors.New("invalid credentials")
	}

	accessToken, err := s.signJWT(i)
	if err != nil {
		return nil, "", fmt.Errorf("sign jwt: %w", err)
	}

	rawToken, err := generateRandomToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh token: %w", err)
	}

	rt := &identity.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    i.ID,
		TokenHash: hashSHA256(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateRefreshToken(ctx, rt); err != nil {
		return nil, "", fmt.Errorf("store refresh token: %w", err)
	}

	resp := &identity.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.cfg.AccessTokenExpiry.Seconds()),
		Identity:    *i,
	}
	return resp, rawToken, nil
}

// RefreshTokens validates a refresh token, atomically rotates it, and
// issues a new access token.
func (s *AuthService) RefreshTokens(ctx context.Context, rawToken string) (*identity.LoginResponse, string, error) {
	rt, err := s.store.GetRefreshTokenByHash(ctx, hashSHA256(rawToken))
	if err != nil {
		return nil, "", errors.New("invalid refresh token")
	}

	if time.Now().After(rt.ExpiresAt) {
		_ = s.store.DeleteRefreshToken(ctx, rt.ID)
		return nil, "", errors.New("refresh token expired")
	}

	i, err := s.store.GetIdentity(ctx, rt.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("get identity: %w", err)
	}

	if !i.Enabled {
		return nil, "", errors.New("account is disabled")
	}

	accessToken, err := s.signJWT(i)
	if err != nil {
		return nil, "", fmt.Errorf("sign jwt: %w", err)
	}

	newRawToken, err := generateRandomToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh token: %w", err)
	}

	newRT := &identity.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    i.ID,
		TokenHash: hashSHA256(newRawToken),
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenExpiry),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.RotateRefreshToken(ctx, rt.ID, newRT); err != nil {
		return nil, "", fmt.Errorf("rotate refresh token: %w", err)
	}

	resp := &identity.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.cfg.AccessTokenExpiry.Seconds()),
		Identity:    *i,
	}
	return resp, newRawToken, nil
}

// Logout deletes all refresh tokens for an identity.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.store.DeleteRefreshTokensByUser(ctx, userID)
}

// ResolveIdentity verifies an access token and returns the identity it
// carries. It never performs I/O: the signed claims are the identity
// source for the duration of a request. A bad token yields
// ErrMalformedCredential so the edge can log it apart from mere absence.
func (s *AuthService) ResolveIdentity(tokenStr string) (*identity.Identity, error) {
	claims, err := s.verifyJWT(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedCredential, err)
	}

	return &identity.Identity{
		ID:         claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		GlobalRole: claims.GlobalRole,
		Enabled:    true,
	}, nil
}

// ChangePassword verifies the old password, hashes the new one, and
// updates the identity.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req identity.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	i, err := s.store.GetIdentity(ctx, userID)
	if err != nil {
		return fmt.Errorf("get identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(req.OldPassword)); err != nil {
		return errors.New("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	i.PasswordHash = string(hash)
	if err := s.store.UpdateIdentity(ctx, i); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

// AdminResetPassword sets a new password without checking the old one, for
// the bootstrap CLI. All refresh tokens are revoked in the same call.
func (s *AuthService) AdminResetPassword(ctx context.Context, email, newPassword string) error {
	i, err := s.store.GetIdentityByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get identity: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	i.PasswordHash = string(hash)
	if err := s.store.UpdateIdentity(ctx, i); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return s.store.DeleteRefreshTokensByUser(ctx, i.ID)
}

// ListUsers returns all identities.
func (s *AuthService) ListUsers(ctx context.Context) ([]identity.Identity, error) {
	return s.store.ListIdentities(ctx)
}

// SeedDefaultAdmin creates the initial global admin if no identities exist.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context) error {
	identities, err := s.store.ListIdentities(ctx)
	if err != nil {
		return fmt.Errorf("list identities: %w", err)
	}
	if len(identities) > 0 {
		return nil // already seeded
	}

	_, err = s.Register(ctx, &identity.CreateRequest{
		Email:      s.cfg.DefaultAdminEmail,
		Name:       "Admin",
		Password:   s.cfg.DefaultAdminPass,
		GlobalRole: identity.GlobalRoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	slog.Info("seeded default admin identity", "email", s.cfg.DefaultAdminEmail)
	return nil
}

// --- JWT implementation (HS256 with stdlib) ---

// jwtHeader is the fixed base64url-encoded header for HS256.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

func (s *AuthService) signJWT(i *identity.Identity) (string, error) {
	now := time.Now()
	claims := identity.TokenClaims{
		UserID:     i.ID,
		Email:      i.Email,
		Name:       i.Name,
		GlobalRole: i.GlobalRole,
		IssuedAt:   now.Unix(),
		Expiry:     now.Add(s.cfg.AccessTokenExpiry).Unix(),
		Audience:   tokenAudience,
		Issuer:     tokenIssuer,
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	signingInput := jwtHeader + "." + base64URLEncode(payload)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	sig := base64URLEncode(mac.Sum(nil))

	return signingInput + "." + sig, nil
}

func (s *AuthService) verifyJWT(tokenStr string) (*identity.TokenClaims, error) {
	parts := strings.SplitN(tokenStr, ".", 3)
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}

	signingInput := parts[0] + "." + parts[1]
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingInput))
	expectedSig := base64URLEncode(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return nil, errors.New("invalid signature")
	}

	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var claims identity.TokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}

	if time.Now().Unix() > claims.Expiry {
		return nil, errors.New("token expired")
	}

	if claims.Audience != tokenAudience {
		return nil, errors.New("invalid token audience")
	}
	if claims.Issuer != tokenIssuer {
		return nil, errors.New("invalid token issuer")
	}

	return &claims, nil
}

// --- Helpers ---

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	// Add padding back
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return base64.URLEncoding.DecodeString(s)
}

func hashSHA256(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

func generateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewWSTicket returns a random single-use WebSocket upgrade ticket.
func NewWSTicket() (string, error) {
	return generateRandomToken(24)
}
