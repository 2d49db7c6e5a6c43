package authkit_test

import (
	"testing"

	"github.com/goliatone/go-authkit"
	"github.com/stretchr/testify/assert"
)

func TestUserRole_IsAtLeast(t *testing.T) {
	roles := authkit.GetAllRoles()

	t.Run("hierarchy is strictly ordered", func(t *testing.T) {
		for i, role := range roles {
			for j, other := range roles {
				expected := i >= j
				assert.Equal(t, expected, role.IsAtLeast(other),
					"%s.IsAtLeast(%s) should be %v", role, other, expected)
			}
		}
	})

	t.Run("unknown roles never qualify", func(t *testing.T) {
		assert.False(t, authkit.UserRole("root").IsAtLeast(authkit.RoleCustomer))
		assert.False(t, authkit.RoleSuperAdmin.IsAtLeast(authkit.UserRole("root")))
		assert.False(t, authkit.UserRole("").IsAtLeast(authkit.RoleCustomer))
	})
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  authkit.UserRole
		ok    bool
	}{
		{"customer", authkit.RoleCustomer, true},
		{"engineer", authkit.RoleEngineer, true},
		{"admin", authkit.RoleAdmin, true},
		{"super_admin", authkit.RoleSuperAdmin, true},
		{"superadmin", "", false},
		{"ADMIN", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			role, ok := authkit.ParseRole(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, role)
			}
		})
	}
}

type stubIdentity struct {
	id     string
	role   string
	status authkit.UserStatus
}

func (s stubIdentity) ID() string                 { return s.id }
func (s stubIdentity) Username() string           { return "stub" }
func (s stubIdentity) Email() string              { return "stub@example.com" }
func (s stubIdentity) Role() string               { return s.role }
func (s stubIdentity) Status() authkit.UserStatus { return s.status }

func TestRequireRole(t *testing.T) {
	t.Run("allows equal and higher ranks", func(t *testing.T) {
		assert.NoError(t, authkit.RequireRole(stubIdentity{role: "admin", status: authkit.UserStatusActive}, authkit.RoleAdmin))
		assert.NoError(t, authkit.RequireRole(stubIdentity{role: "super_admin", status: authkit.UserStatusActive}, authkit.RoleAdmin))
	})

	t.Run("rejects lower ranks", func(t *testing.T) {
		err := authkit.RequireRole(stubIdentity{role: "engineer", status: authkit.UserStatusActive}, authkit.RoleAdmin)
		assert.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeInsufficientRole)
	})

	t.Run("rejects nil identity", func(t *testing.T) {
		err := authkit.RequireRole(nil, authkit.RoleCustomer)
		assert.ErrorIs(t, err, authkit.ErrIdentityNotFound)
	})

	t.Run("status outranks role", func(t *testing.T) {
		// even a super admin is rejected while suspended
		err := authkit.RequireRole(stubIdentity{role: "super_admin", status: authkit.UserStatusSuspended}, authkit.RoleCustomer)
		assert.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeAccountInactive)
	})

	t.Run("empty status counts as active", func(t *testing.T) {
		assert.NoError(t, authkit.RequireRole(stubIdentity{role: "admin"}, authkit.RoleAdmin))
	})
}

func TestRequireExactRole(t *testing.T) {
	t.Run("allows the exact role", func(t *testing.T) {
		assert.NoError(t, authkit.RequireExactRole(stubIdentity{role: "super_admin", status: authkit.UserStatusActive}, authkit.RoleSuperAdmin))
	})

	t.Run("rejects higher ranked roles too", func(t *testing.T) {
		err := authkit.RequireExactRole(stubIdentity{role: "super_admin", status: authkit.UserStatusActive}, authkit.RoleAdmin)
		assert.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeExactRoleRequired)
	})

	t.Run("rejects lower ranked roles", func(t *testing.T) {
		err := authkit.RequireExactRole(stubIdentity{role: "admin", status: authkit.UserStatusActive}, authkit.RoleSuperAdmin)
		assert.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeExactRoleRequired)
	})

	t.Run("rejects inactive accounts", func(t *testing.T) {
		err := authkit.RequireExactRole(stubIdentity{role: "super_admin", status: authkit.UserStatusInactive}, authkit.RoleSuperAdmin)
		assert.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeAccountInactive)
	})
}
