package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserProfile(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		role      Role
		superuser bool
	}{
		{"admin is superuser", RoleAdmin, true},
		{"member", RoleMember, false},
		{"viewer", RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{
				ID:           "user-123",
				Email:        "ada@example.com",
				PasswordHash: "secret-hash",
				FullName:     "Ada Lovelace",
				Role:         tt.role,
				Active:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
				LastLoginAt:  &now,
			}

			profile := user.Profile()

			if profile.IsSuperuser != tt.superuser {
				t.Errorf("expected IsSuperuser = %v", tt.superuser)
			}
			if profile.FullName != "Ada Lovelace" || !profile.IsActive {
				t.Errorf("unexpected profile: %+v", profile)
			}
			if profile.LastLoginAt == nil || !profile.CreatedAt.Equal(now) {
				t.Error("expected timestamps to be carried over")
			}
		})
	}
}

func TestUserProfile_JSONShape(t *testing.T) {
	user := &User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", Role: RoleAdmin, Active: true}

	data, err := json.Marshal(user.Profile())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "email", "full_name", "is_active", "is_superuser", "created_at", "updated_at"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("expected %q in profile JSON", key)
		}
	}
	if _, ok := fields["password_hash"]; ok {
		t.Error("password hash must not be serialized")
	}
}

func TestUserCanUpload(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		active   bool
		expected bool
	}{
		{"active admin", RoleAdmin, true, true},
		{"active member", RoleMember, true, true},
		{"viewer", RoleViewer, true, false},
		{"inactive member", RoleMember, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Role: tt.role, Active: tt.active}
			if user.CanUpload() != tt.expected {
				t.Errorf("expected CanUpload() = %v", tt.expected)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleMember, RoleViewer} {
		if !ValidRole(r) {
			t.Errorf("expected %s to be valid", r)
		}
	}
	if ValidRole("owner") {
		t.Error("expected unknown role to be invalid")
	}
}
