package model

import (
	"errors"
	"fmt"
)

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleCreator   Role = "creator"
	RoleModerator Role = "moderator"
	RolePlayer    Role = "player"
)

// Roles returns every role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleCreator, RoleModerator, RolePlayer}
}

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCreator, RoleModerator, RolePlayer:
		return true
	default:
		return false
	}
}

// ParseRole parses a role name. An empty name yields RolePlayer.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RolePlayer, nil
	}
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Authorize allows the role iff it belongs to allowed.
func Authorize(role Role, allowed ...Role) error {
	if !role.IsValid() {
		return ErrForbidden
	}
	for _, a := range allowed {
		if a == role {
			return nil
		}
	}
	return ErrForbidden
}

func validateRole(value any) error {
	r, _ := value.(Role)
	if !r.IsValid() {
		return errors.New("must be one of admin, creator, moderator, player")
	}
	return nil
}
