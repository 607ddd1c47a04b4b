package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// ServiceRepository persists the service registry.
	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		// CreateIfAbsent inserts a service unless one with the same name
		// exists. Used for default seeding.
		CreateIfAbsent(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		ListActive(ctx context.Context) ([]*model.Service, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
		// SetResponsible links a service and an actor both ways: the
		// service records its responsible, the actor records its scope.
		SetResponsible(ctx context.Context, id, actorID uuid.UUID) error
	}

	// AppointmentRepository persists the booking ledger. Insert must be
	// atomic with respect to the (service, date, start) uniqueness of
	// non-cancelled rows and return model.ErrSlotTaken when it is violated.
	AppointmentRepository interface {
		Insert(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// CancelConfirmed flips a confirmed appointment to cancelled and
		// reports whether a row changed. A false return with a nil error
		// means the appointment was not in the confirmed state.
		CancelConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
		SlotBooked(ctx context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error)
		ListByService(ctx context.Context, serviceID uuid.UUID, from, to *model.Date) ([]*model.Appointment, error)
		ListByDate(ctx context.Context, date model.Date) ([]*model.AppointmentWithService, error)
		Stats(ctx context.Context, serviceID uuid.UUID) (*model.ServiceStats, error)
	}

	// ActorRepository persists administrators.
	ActorRepository interface {
		Create(ctx context.Context, actor *model.Actor) error
		CreateIfAbsent(ctx context.Context, actor *model.Actor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Actor, error)
		GetByUsername(ctx context.Context, username string) (*model.Actor, error)
	}

	// OutboxRepository persists booking lifecycle events for the worker.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEvents returns events still awaiting publication:
		// pending rows plus failed rows under the retry cap.
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
