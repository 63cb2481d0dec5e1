package enums

import "fmt"

// Role identifies what kind of principal is acting.
type Role string

const (
	RoleClient   Role = "client"
	RoleMerchant Role = "merchant"
	RoleNone     Role = "none"
)

var validRoles = []Role{RoleClient, RoleMerchant, RoleNone}

// IsValid checks whether the given role matches the canonical enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts raw strings into Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
