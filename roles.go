package authkit

// roleHierarchy is the single source of truth for role ordering. Everything
// that compares roles, claims helpers included, goes through IsAtLeast.
var roleHierarchy = map[UserRole]int{
	RoleCustomer:   0,
	RoleEngineer:   1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// IsAtLeast checks if this role meets the minimum required level.
// Unknown roles never satisfy any requirement.
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleCustomer,
		RoleEngineer,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// RequireRole grants access when the identity's role ranks at or above
// minRole and the account is active. Status is checked first so a suspended
// super admin is still rejected.
func RequireRole(identity Identity, minRole UserRole) error {
	if identity == nil {
		return ErrIdentityNotFound
	}

	if err := identityStatusError(identity); err != nil {
		return err
	}

	if !UserRole(identity.Role()).IsAtLeast(minRole) {
		return ErrInsufficientRole.WithMetadata(map[string]any{
			"role":     identity.Role(),
			"required": string(minRole),
		})
	}

	return nil
}

// RequireExactRole grants access only to the named role. Used for operations
// reserved to super admins, where a plain admin must not qualify by rank.
func RequireExactRole(identity Identity, role UserRole) error {
	if identity == nil {
		return ErrIdentityNotFound
	}

	if err := identityStatusError(identity); err != nil {
		return err
	}

	if UserRole(identity.Role()) != role {
		return ErrExactRoleRequired.WithMetadata(map[string]any{
			"role":     identity.Role(),
			"required": string(role),
		})
	}

	return nil
}

func identityStatusError(identity Identity) error {
	carrier, ok := identity.(StatusCarrier)
	if !ok {
		return nil
	}

	status := carrier.Status()
	if status == "" || status == UserStatusActive {
		return nil
	}

	return ErrAccountInactive.WithMetadata(map[string]any{
		"status": string(status),
	})
}
