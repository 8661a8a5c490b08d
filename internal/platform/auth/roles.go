package auth

import "fmt"

// Role is a clinic membership role. Roles are ordered: an ADMIN may do
// everything a DOCTOR may, and a DOCTOR everything RECEPTION may.
type Role string

const (
	RoleReception Role = "RECEPTION"
	RoleDoctor    Role = "DOCTOR"
	RoleAdmin     Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleReception: 1,
	RoleDoctor:    2,
	RoleAdmin:     3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Satisfies reports whether r ranks at or above required. An empty
// required role is satisfied by any valid role.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	if required == "" {
		return true
	}
	return have >= roleRank[required]
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
