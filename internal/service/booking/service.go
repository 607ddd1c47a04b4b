package booking

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/polyclinic-api/internal/model"
	"github.com/jwalitptl/polyclinic-api/internal/repository"
	"github.com/jwalitptl/polyclinic-api/pkg/metrics"
)

const phoneDigits = 10

// Service is the booking ledger. It owns the confirmed -> cancelled state
// machine and delegates slot uniqueness entirely to the store's constrained
// insert; there is no availability pre-check on the write path.
type Service struct {
	appointments repository.AppointmentRepository
	services     repository.ServiceRepository
	outbox       repository.OutboxRepository
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	services repository.ServiceRepository,
	outbox repository.OutboxRepository,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		services:     services,
		outbox:       outbox,
		metrics:      metrics,
	}
}

// Book reserves a slot. Concurrent calls for the same (service, date, start)
// are serialized by the store: exactly one succeeds, the rest get
// model.ErrSlotTaken. Callers should offer another slot rather than retry.
func (s *Service) Book(ctx context.Context, req *model.BookAppointmentRequest, createdBy *uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.buildAppointment(req, createdBy)
	if err != nil {
		return nil, err
	}

	service, err := s.services.Get(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !service.Active {
		return nil, model.ErrServiceInactive
	}

	if err := s.appointments.Insert(ctx, appointment); err != nil {
		if err == model.ErrSlotTaken {
			s.metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	s.metrics.BookingsTotal.Inc()
	s.emitEvent(ctx, model.EventAppointmentBooked, appointment)
	return appointment, nil
}

func (s *Service) buildAppointment(req *model.BookAppointmentRequest, createdBy *uuid.UUID) (*model.Appointment, error) {
	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		return nil, model.NewValidationError("patient_name", "must not be empty")
	}
	surname := strings.TrimSpace(req.PatientSurname)
	if surname == "" {
		return nil, model.NewValidationError("patient_surname", "must not be empty")
	}

	phone, err := normalizePhone(req.PatientPhone)
	if err != nil {
		return nil, err
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, model.NewValidationError("date", "must be YYYY-MM-DD")
	}
	start, err := model.ParseClock(req.StartTime)
	if err != nil {
		return nil, model.NewValidationError("start_time", "must be HH:MM")
	}
	end, err := model.ParseClock(req.EndTime)
	if err != nil {
		return nil, model.NewValidationError("end_time", "must be HH:MM")
	}
	if start >= end {
		return nil, model.NewValidationError("start_time", "must be before end_time")
	}

	return &model.Appointment{
		ServiceID:      req.ServiceID,
		PatientName:    strings.ToUpper(name),
		PatientSurname: strings.ToUpper(surname),
		PatientPhone:   phone,
		PatientEmail:   strings.TrimSpace(req.PatientEmail),
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		Reason:         strings.TrimSpace(req.Reason),
		CreatedBy:      createdBy,
	}, nil
}

// normalizePhone strips separators and requires exactly ten digits.
func normalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != phoneDigits {
		return "", model.NewValidationError("patient_phone", "must contain exactly 10 digits")
	}
	return digits.String(), nil
}

// Cancel moves a confirmed appointment to its terminal state. Cancelling an
// already-cancelled appointment is reported as a distinct outcome, not an
// error, so racing cancellers both see success.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (model.CancelOutcome, error) {
	cancelled, err := s.appointments.CancelConfirmed(ctx, id)
	if err != nil {
		return "", err
	}
	if !cancelled {
		// Nothing flipped: either unknown or already cancelled.
		appointment, err := s.appointments.Get(ctx, id)
		if err != nil {
			return "", err
		}
		if appointment.Status == model.AppointmentStatusCancelled {
			return model.CancelOutcomeAlreadyCancelled, nil
		}
		return "", model.ErrNotFound
	}

	s.metrics.CancellationsTotal.Inc()

	appointment, err := s.appointments.Get(ctx, id)
	if err == nil {
		s.emitEvent(ctx, model.EventAppointmentCancelled, appointment)
	}
	return model.CancelOutcomeCancelled, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.appointments.Get(ctx, id)
}

// ListByService returns a service's appointments ordered by date then start
// time. The date range is optional on both ends.
func (s *Service) ListByService(ctx context.Context, serviceID uuid.UUID, from, to *model.Date) ([]*model.Appointment, error) {
	return s.appointments.ListByService(ctx, serviceID, from, to)
}

// ListByDate returns a day's appointments across services, joined with the
// service name and ordered by service name then start time.
func (s *Service) ListByDate(ctx context.Context, date model.Date) ([]*model.AppointmentWithService, error) {
	return s.appointments.ListByDate(ctx, date)
}

func (s *Service) Statistics(ctx context.Context, serviceID uuid.UUID) (*model.ServiceStats, error) {
	return s.appointments.Stats(ctx, serviceID)
}

// emitEvent writes a lifecycle event to the outbox. A failed write is logged
// and dropped; the booking itself already committed.
func (s *Service) emitEvent(ctx context.Context, eventType string, appointment *model.Appointment) {
	payload, err := json.Marshal(appointment)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal outbox payload")
		return
	}

	event := &model.OutboxEvent{EventType: eventType, Payload: payload}
	if err := s.outbox.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("event", eventType).
			Str("appointment_id", appointment.ID.String()).
			Msg("failed to write outbox event")
	}
}
