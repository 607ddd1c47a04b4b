package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
)

// Resolver maps an actor's role to the services and bookings they may see or
// mutate. It is consulted at the HTTP boundary before any mutator runs; the
// scheduling core itself stays authorization-free so it remains usable
// outside an authenticated context.
type Resolver struct {
	services repository.ServiceRepository
}

func NewResolver(services repository.ServiceRepository) *Resolver {
	return &Resolver{services: services}
}

// VisibleServices returns every active service for a director and the single
// assigned service for a responsible. A responsible with no assigned service
// sees nothing.
func (r *Resolver) VisibleServices(ctx context.Context, actor *model.Actor) ([]*model.Service, error) {
	switch actor.Role {
	case model.RoleDirector:
		return r.services.ListActive(ctx)
	case model.RoleResponsible:
		if actor.ServiceID == nil {
			return []*model.Service{}, nil
		}
		service, err := r.services.Get(ctx, *actor.ServiceID)
		if err == model.ErrNotFound {
			return []*model.Service{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*model.Service{service}, nil
	default:
		return []*model.Service{}, nil
	}
}

// CanManage reports whether the actor may mutate bookings of a service.
func (r *Resolver) CanManage(actor *model.Actor, serviceID uuid.UUID) bool {
	switch actor.Role {
	case model.RoleDirector:
		return true
	case model.RoleResponsible:
		return actor.ServiceID != nil && *actor.ServiceID == serviceID
	default:
		return false
	}
}

// CanAdminister reports whether the actor may mutate the registry itself
// (create, activate, deactivate, assign responsibles). Director only.
func (r *Resolver) CanAdminister(actor *model.Actor) bool {
	return actor.Role == model.RoleDirector
}
