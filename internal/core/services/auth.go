package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
	"github.com/quizforge/quizforge-core/internal/core/ports/driving"
)

// DefaultTokenTTL bounds both the access token and its session
const DefaultTokenTTL = 24 * time.Hour

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	users    driven.UserStore
	sessions driven.SessionStore
	tokens   driven.AuthAdapter
	tokenTTL time.Duration
	logger   *slog.Logger
}

// AuthServiceConfig holds dependencies for the auth service
type AuthServiceConfig struct {
	Users    driven.UserStore
	Sessions driven.SessionStore
	Tokens   driven.AuthAdapter
	TokenTTL time.Duration
	Logger   *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(cfg AuthServiceConfig) driving.AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &authService{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		tokenTTL: ttl,
		logger:   logger,
	}
}

// Register creates an active account. The first account in an empty
// store becomes admin, every later one a member.
func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	role := domain.RoleMember
	if count == 0 {
		role = domain.RoleAdmin
	}

	user, err := createAccount(ctx, s.users, s.tokens, req.Email, req.Password, req.FullName, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and opens a session. The password is checked
// before the active flag so a disabled account is only reported to its owner.
func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, canonicalEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.tokens.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, domain.ErrUnauthorized
	}

	resp, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	return resp, nil
}

// ValidateToken resolves a bearer token. The token must verify, be unexpired,
// and point at a live session that belongs to the same user.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if time.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}

// Refresh swaps a refresh token for a new session. Claims are rebuilt from
// the stored account, so role changes and deactivation take effect here.
func (s *authService) Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
	if req.RefreshToken == "" {
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.sessions.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if session.IsExpired() {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrTokenExpired
	}

	user, err := s.users.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.sessions.Delete(ctx, session.ID)
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.Active {
		_ = s.sessions.DeleteByUser(ctx, user.ID)
		return nil, domain.ErrUnauthorized
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return s.issueSession(ctx, user)
}

// Logout ends the caller's current session
func (s *authService) Logout(ctx context.Context, auth *domain.AuthContext) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	return s.sessions.Delete(ctx, auth.SessionID)
}

// LogoutAll ends every session the caller holds
func (s *authService) LogoutAll(ctx context.Context, auth *domain.AuthContext) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	return s.sessions.DeleteByUser(ctx, auth.UserID)
}

// ChangePassword replaces the caller's password and ends all of their sessions
func (s *authService) ChangePassword(ctx context.Context, auth *domain.AuthContext, req domain.ChangePasswordRequest) error {
	if auth == nil {
		return domain.ErrUnauthorized
	}
	if req.CurrentPassword == "" {
		return fmt.Errorf("%w: current password is required", domain.ErrInvalidInput)
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	if req.NewPassword == req.CurrentPassword {
		return fmt.Errorf("%w: new password must differ from the current one", domain.ErrInvalidInput)
	}

	user, err := s.users.Get(ctx, auth.UserID)
	if err != nil {
		return err
	}
	if !s.tokens.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := s.tokens.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now()

	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// Me returns the caller's stored account
func (s *authService) Me(ctx context.Context, auth *domain.AuthContext) (*domain.User, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.users.Get(ctx, auth.UserID)
}

// issueSession signs an access token for user and stores the session behind it
func (s *authService) issueSession(ctx context.Context, user *domain.User) (*domain.LoginResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	sessionID := uuid.NewString()

	token, err := s.tokens.GenerateToken(&domain.TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:           sessionID,
		UserID:       user.ID,
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &domain.LoginResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         user.Profile(),
	}, nil
}

// randomToken returns 32 random bytes, URL-safe encoded
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
