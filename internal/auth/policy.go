// Package auth holds the role policy shared by middleware and services.
package auth

import (
	"storefront/internal/apperror"
)

// Role is an ordered access level. A higher role satisfies every lower one.
type Role int

const (
	RoleCustomer Role = iota
	RoleAdmin
	RoleSuperuser
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSuperuser:
		return "superuser"
	default:
		return "customer"
	}
}

// Principal is the authenticated caller. It is passed explicitly into every service call.
type Principal struct {
	UserID      string
	IsStaff     bool
	IsSuperuser bool
}

// Role derives the access level from the account flags.
func (p Principal) Role() Role {
	switch {
	case p.IsSuperuser:
		return RoleSuperuser
	case p.IsStaff:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

// Can reports whether the principal holds at least the given role.
func (p Principal) Can(role Role) bool {
	return p.Role() >= role
}

// Authorize returns a Forbidden error when p lacks the role.
func Authorize(p Principal, role Role) error {
	if !p.Can(role) {
		return apperror.Forbidden("%s role required", role)
	}
	return nil
}

// CheckRoleChange validates a role update made by actor on the user targetID.
// Nil flags are left unchanged.
func CheckRoleChange(actor Principal, targetID string, isStaff, isSuperuser *bool) error {
	if err := Authorize(actor, RoleSuperuser); err != nil {
		return err
	}
	if actor.UserID != targetID {
		return nil
	}
	if (isStaff != nil && !*isStaff) || (isSuperuser != nil && !*isSuperuser) {
		return apperror.InvalidArgument("you cannot remove your own admin privileges")
	}
	return nil
}
