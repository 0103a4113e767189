package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driving"
)

func decodeProfile(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	return fields
}

func TestHandleRegister_ReturnsProfile(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.registerFn = func(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
		assert.Equal(t, "ada@example.com", req.Email)
		assert.Equal(t, "Ada Lovelace", req.FullName)
		return &domain.User{ID: "user-9", Email: req.Email, FullName: req.FullName, Role: domain.RoleAdmin, Active: true}, nil
	}

	rr := ts.do("POST", "/api/v1/auth/register", "",
		strings.NewReader(`{"email":"ada@example.com","password":"password123","full_name":"Ada Lovelace"}`), "application/json")

	require.Equal(t, http.StatusCreated, rr.Code)
	profile := decodeProfile(t, rr.Body.Bytes())
	assert.Equal(t, "user-9", profile["id"])
	assert.Equal(t, "Ada Lovelace", profile["full_name"])
	assert.Equal(t, true, profile["is_active"])
	assert.Equal(t, true, profile["is_superuser"])
}

func TestHandleRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed body", "{", nil, http.StatusBadRequest},
		{"duplicate email", `{"email":"a@example.com"}`, domain.ErrAlreadyExists, http.StatusConflict},
		{"short password", `{"email":"a@example.com"}`, fmt.Errorf("%w: password too short", domain.ErrInvalidInput), http.StatusBadRequest},
		{"store failure", `{"email":"a@example.com"}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.auth.registerFn = func(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
				return nil, tt.err
			}

			rr := ts.do("POST", "/api/v1/auth/register", "", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"success", nil, http.StatusOK, ""},
		{"missing fields", domain.ErrInvalidInput, http.StatusBadRequest, "email and password are required"},
		{"wrong password", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"deactivated account", domain.ErrUnauthorized, http.StatusUnauthorized, "account disabled"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "authentication failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.auth.loginFn = func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.LoginResponse{
					Token:     "jwt",
					ExpiresAt: time.Now().Add(time.Hour),
					User:      &domain.UserProfile{ID: "user-1", Email: req.Email, IsActive: true},
				}, nil
			}

			rr := ts.doJSON("POST", "/api/v1/auth/login", "", domain.LoginRequest{Email: "a@example.com", Password: "password123"})

			require.Equal(t, tt.want, rr.Code)
			if tt.err != nil {
				assert.Equal(t, tt.message, decodeError(t, rr))
				return
			}
			var resp domain.LoginResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "jwt", resp.Token)
			assert.Equal(t, "a@example.com", resp.User.Email)
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"unknown token", domain.ErrTokenInvalid, http.StatusUnauthorized, "invalid refresh token"},
		{"expired session", domain.ErrTokenExpired, http.StatusUnauthorized, "refresh token expired"},
		{"deactivated account", domain.ErrUnauthorized, http.StatusUnauthorized, "account disabled"},
		{"session store down", errors.New("redis down"), http.StatusInternalServerError, "refresh failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.auth.refreshFn = func(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error) {
				return nil, tt.err
			}

			rr := ts.doJSON("POST", "/api/v1/auth/refresh", "", domain.RefreshRequest{RefreshToken: "r"})

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.message, decodeError(t, rr))
		})
	}
}

func TestHandleLogout_EndsCallerSession(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"current session", "/api/v1/auth/logout"},
		{"every session", "/api/v1/auth/logout-all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			var ended *domain.AuthContext
			record := func(ctx context.Context, auth *domain.AuthContext) error {
				ended = auth
				return nil
			}
			ts.auth.logoutFn = record
			ts.auth.logoutAllFn = record

			rr := ts.do("POST", tt.path, "member-token", nil, "")

			assert.Equal(t, http.StatusOK, rr.Code)
			require.NotNil(t, ended)
			assert.Equal(t, "s1", ended.SessionID)
			assert.Equal(t, "user-1", ended.UserID)

			rr = ts.do("POST", tt.path, "", nil, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestHandleChangePassword(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"changed", nil, http.StatusOK},
		{"wrong current password", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"new password too short", fmt.Errorf("%w: too short", domain.ErrInvalidInput), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.auth.changePasswordFn = func(ctx context.Context, auth *domain.AuthContext, req domain.ChangePasswordRequest) error {
				assert.Equal(t, "user-1", auth.UserID)
				return tt.err
			}

			rr := ts.doJSON("POST", "/api/v1/auth/password", "member-token",
				domain.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "password456"})
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestHandleGetMe(t *testing.T) {
	ts := newTestServer(t)
	ts.auth.meFn = func(ctx context.Context, auth *domain.AuthContext) (*domain.User, error) {
		if auth.UserID != "user-1" {
			return nil, domain.ErrNotFound
		}
		return &domain.User{ID: auth.UserID, Email: auth.Email, FullName: "Member One", Role: domain.RoleMember, Active: true}, nil
	}

	rr := ts.do("GET", "/api/v1/me", "member-token", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	profile := decodeProfile(t, rr.Body.Bytes())
	assert.Equal(t, "user-1", profile["id"])
	assert.Equal(t, "Member One", profile["full_name"])
	assert.Equal(t, false, profile["is_superuser"])
	assert.NotContains(t, profile, "password_hash")

	rr = ts.do("GET", "/api/v1/me", "admin-token", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	for _, token := range []string{"", "forged"} {
		rr = ts.do("GET", "/api/v1/me", token, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "token %q", token)
	}
}

func TestHandleListUsers_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	ts.users.listFn = func(ctx context.Context) ([]*domain.User, error) {
		return []*domain.User{{ID: "a", Role: domain.RoleAdmin}, {ID: "b", Role: domain.RoleMember}}, nil
	}

	for _, token := range []string{"member-token", "viewer-token"} {
		rr := ts.do("GET", "/api/v1/users", token, nil, "")
		assert.Equal(t, http.StatusForbidden, rr.Code, token)
	}

	rr := ts.do("GET", "/api/v1/users", "admin-token", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var profiles []domain.UserProfile
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&profiles))
	require.Len(t, profiles, 2)
	assert.True(t, profiles[0].IsSuperuser)
	assert.False(t, profiles[1].IsSuperuser)
}

func TestHandleCreateUser(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate email", domain.ErrAlreadyExists, http.StatusConflict},
		{"unknown role", fmt.Errorf("%w: unknown role", domain.ErrInvalidInput), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.users.createFn = func(ctx context.Context, req driving.CreateUserRequest) (*domain.User, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &domain.User{ID: "u-new", Email: req.Email, FullName: req.FullName, Role: req.Role, Active: true}, nil
			}

			rr := ts.doJSON("POST", "/api/v1/users", "admin-token", driving.CreateUserRequest{
				Email: "grace@example.com", Password: "password123", FullName: "Grace", Role: domain.RoleViewer,
			})
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestHandleDeleteUser_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.users.deleteFn = func(ctx context.Context, id string) error {
		return domain.ErrNotFound
	}

	rr := ts.do("DELETE", "/api/v1/users/ghost", "admin-token", nil, "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
