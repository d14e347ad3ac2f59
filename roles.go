package accounts

import "strings"

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r AccountRole) bool {
	switch r {
	case RoleCustomer, RoleEmployee, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsElevated checks if the role grants access to the management area
func IsElevated(r AccountRole) bool {
	switch r {
	case RoleEmployee, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if the role meets the minimum required level
func IsAtLeast(r, minRole AccountRole) bool {
	roleHierarchy := map[AccountRole]int{
		RoleCustomer: 0,
		RoleEmployee: 1,
		RoleAdmin:    2,
	}

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
func GetAllRoles() []AccountRole {
	return []AccountRole{
		RoleCustomer,
		RoleEmployee,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into an AccountRole. Parsing is case
// insensitive so records using capitalized values still verify.
func ParseRole(roleStr string) (AccountRole, bool) {
	role := AccountRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, IsValidRole(role)
}
