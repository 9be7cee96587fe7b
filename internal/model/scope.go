package model

import "github.com/google/uuid"

type Role string

const (
	RoleDriver     Role = "driver"
	RoleManager    Role = "manager"
	RoleSuperAdmin Role = "super_admin"
)

// Principal is the authenticated caller identity, extracted from the
// access token by the auth middleware and trusted as-is.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsDriver() bool     { return p.Role == RoleDriver }
func (p Principal) IsManager() bool    { return p.Role == RoleManager }
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }

// ScopeQuery describes whose records the caller wants to see. Immutable,
// built per request.
type ScopeQuery struct {
	CallerID      uuid.UUID
	CallerRole    Role
	TargetOwnerID *uuid.UUID
}

// OwnerSet is the resolved visibility set. All=true means every owner is
// visible; otherwise only the listed IDs are. An empty non-All set is a
// valid scope meaning "no visible records".
type OwnerSet struct {
	All bool
	IDs []uuid.UUID
}

func AllOwners() OwnerSet {
	return OwnerSet{All: true}
}

func Owners(ids ...uuid.UUID) OwnerSet {
	return OwnerSet{IDs: ids}
}

func (s OwnerSet) IsEmpty() bool {
	return !s.All && len(s.IDs) == 0
}

func (s OwnerSet) Contains(id uuid.UUID) bool {
	if s.All {
		return true
	}
	for _, candidate := range s.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}
