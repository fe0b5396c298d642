package domain

import (
	"strings"

	dErrors "medgate/pkg/domain-errors"
)

// Role is the personnel role a whitelist entry authorizes and an account holds.
// Invariant: the value must be one of the roles declared below.
//
// Construct via ParseRole at trust boundaries; direct casting bypasses
// validation.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleMedico      Role = "MEDICO"
	RoleEnfermero   Role = "ENFERMERO"
	RoleRecepcion   Role = "RECEPCION"
	RoleFarmacia    Role = "FARMACIA"
	RoleLaboratorio Role = "LABORATORIO"
)

// roleHomePaths is the single source of truth for valid roles and the landing
// path a client redirects to when a route denies the caller's role.
var roleHomePaths = map[Role]string{
	RoleAdmin:       "/admin/dashboard",
	RoleMedico:      "/medico/dashboard",
	RoleEnfermero:   "/enfermeria/dashboard",
	RoleRecepcion:   "/recepcion/dashboard",
	RoleFarmacia:    "/farmacia/dashboard",
	RoleLaboratorio: "/laboratorio/dashboard",
}

// ParseRole constructs a Role from external input, case-insensitively.
//
// Errors: returns CodeMalformedInput when the value is empty or unknown.
func ParseRole(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeMalformedInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeMalformedInput, "unknown role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := roleHomePaths[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// HomePath returns the role's landing path, or "/" for unknown roles.
func (r Role) HomePath() string {
	if p, ok := roleHomePaths[r]; ok {
		return p
	}
	return "/"
}

// RoleSet is an unordered set of roles used for route requirements.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports membership. An empty set contains nothing.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
