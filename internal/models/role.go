package models

import "fmt"

// Role is the closed per-application role vocabulary, lowest privilege first.
type Role string

const (
	RoleGuest              Role = "guest"
	RoleStandard           Role = "standard"
	RoleAdministrator      Role = "administrator"
	RoleSuperAdministrator Role = "super_administrator"
)

var roleOrder = map[Role]int{
	RoleGuest:              0,
	RoleStandard:           1,
	RoleAdministrator:      2,
	RoleSuperAdministrator: 3,
}

func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

// AtLeast reports whether r carries the privilege of other or higher.
func (r Role) AtLeast(other Role) bool {
	return roleOrder[r] >= roleOrder[other]
}

// ParseRole validates an incoming role string against the closed vocabulary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
