package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned for role tags outside the closed role set.
var ErrUnknownRole = errors.New("unknown role")

// Role is a staff role tag as sent by the backend.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCounsellor Role = "counseller"
	RoleHR         Role = "hr"
)

// Roles lists every known role.
var Roles = []Role{RoleAdmin, RoleCounsellor, RoleHR}

var roleAliases = map[string]Role{
	"admin":      RoleAdmin,
	"counseller": RoleCounsellor,
	"counsellor": RoleCounsellor,
	"hr":         RoleHR,
}

// ParseRole normalizes a role tag case-insensitively.
func ParseRole(s string) (Role, error) {
	if role, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return role, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Valid reports whether r belongs to the role set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Is compares two roles case-insensitively.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Title is the sidebar display form of the role.
func (r Role) Title() string {
	if r == "" {
		return "User"
	}
	s := string(r)
	return strings.ToUpper(s[:1]) + s[1:]
}

// HasRole reports whether role is one of roles.
func HasRole(role Role, roles []Role) bool {
	for _, r := range roles {
		if role.Is(r) {
			return true
		}
	}
	return false
}
