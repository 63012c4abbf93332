package model

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleOwner    UserRole = "OWNER"
	UserRoleMechanic UserRole = "MECHANIC"
	UserRoleAdmin    UserRole = "ADMIN"
)

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// CanViewHistory reports whether the principal may read assessments that
// belong to other users. Owners only ever see their own history.
func (p Principal) CanViewHistory() bool {
	return p.Role == UserRoleAdmin || p.Role == UserRoleMechanic
}
