// Package scope resolves caller identities into owner visibility sets.
// All role branching of the reporting endpoints lives here, keyed purely
// on the ScopeQuery, so it can be tested without any transport.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleet-analytics-service/internal/model"
)

var (
	ErrInvalidScope = errors.New("invalid scope")
	ErrForbidden    = errors.New("forbidden")
)

// OwnerDirectory is the external user-directory read the resolver needs
// for managers.
type OwnerDirectory interface {
	FindOwnerIDs(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
}

type Resolver struct {
	directory OwnerDirectory
}

func NewResolver(directory OwnerDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve maps a ScopeQuery to the set of record owners the caller may
// see.
//
// Drivers see themselves only; asking for anyone else is a denial.
// Managers see the drivers they created; a target outside that set
// narrows to the empty set, which is a valid "no visible records"
// scope, not an error. Super admins see everything and may narrow to
// any single owner without membership checks.
func (r *Resolver) Resolve(ctx context.Context, query model.ScopeQuery) (model.OwnerSet, error) {
	switch query.CallerRole {
	case model.RoleDriver:
		if query.TargetOwnerID != nil && *query.TargetOwnerID != query.CallerID {
			return model.OwnerSet{}, fmt.Errorf("%w: driver may only query own records", ErrForbidden)
		}
		return model.Owners(query.CallerID), nil

	case model.RoleManager:
		ownerIDs, err := r.directory.FindOwnerIDs(ctx, query.CallerID)
		if err != nil {
			return model.OwnerSet{}, err
		}
		owned := model.Owners(ownerIDs...)
		if query.TargetOwnerID == nil {
			return owned, nil
		}
		if owned.Contains(*query.TargetOwnerID) {
			return model.Owners(*query.TargetOwnerID), nil
		}
		return model.OwnerSet{}, nil

	case model.RoleSuperAdmin:
		if query.TargetOwnerID != nil {
			return model.Owners(*query.TargetOwnerID), nil
		}
		return model.AllOwners(), nil

	default:
		return model.OwnerSet{}, fmt.Errorf("%w: unknown role %q", ErrInvalidScope, query.CallerRole)
	}
}
