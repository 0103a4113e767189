package driving

import (
	"context"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// AuthService owns accounts from the caller's side: sign up, sessions and
// the caller's own profile. Administration of other accounts lives in UserService.
type AuthService interface {
	// Register creates an account. The first account becomes admin, later ones members.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// Login verifies credentials and opens a session
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken resolves a bearer token to the caller it authenticates
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// Refresh rotates a session: the old one is removed and a new one issued
	Refresh(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)

	// Logout ends the caller's current session
	Logout(ctx context.Context, auth *domain.AuthContext) error

	// LogoutAll ends every session of the caller
	LogoutAll(ctx context.Context, auth *domain.AuthContext) error

	// ChangePassword replaces the caller's password and ends all their sessions
	ChangePassword(ctx context.Context, auth *domain.AuthContext, req domain.ChangePasswordRequest) error

	// Me returns the caller's account
	Me(ctx context.Context, auth *domain.AuthContext) (*domain.User, error)
}
