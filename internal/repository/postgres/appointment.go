package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/polyclinic-api/internal/model"
)

// Insert performs the atomic constrained insert that enforces slot
// uniqueness. There is no check-then-insert here: the partial unique index
// on (service_id, date, start_time) WHERE status <> 'cancelled' serializes
// concurrent bookings, and a violation of it surfaces as model.ErrSlotTaken.
func (r *appointmentRepository) Insert(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, service_id, patient_name, patient_surname, patient_phone,
			patient_email, date, start_time, end_time, reason, status,
			created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	appointment.ID = uuid.New()
	appointment.Status = model.AppointmentStatusConfirmed
	appointment.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ServiceID,
		appointment.PatientName,
		appointment.PatientSurname,
		appointment.PatientPhone,
		appointment.PatientEmail,
		appointment.Date,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Reason,
		appointment.Status,
		appointment.CreatedBy,
		appointment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, slotUniqueIndex) {
			return model.ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, service_id, patient_name, patient_surname, patient_phone,
			   patient_email, date, start_time, end_time, reason, status,
			   created_by, created_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) CancelConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query,
		model.AppointmentStatusCancelled, id, model.AppointmentStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *appointmentRepository) SlotBooked(ctx context.Context, serviceID uuid.UUID, date model.Date, start model.ClockTime) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE service_id = $1 AND date = $2 AND start_time = $3
			AND status = $4
		)
	`
	var booked bool
	err := r.db.GetContext(ctx, &booked, query, serviceID, date, start, model.AppointmentStatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return booked, nil
}

func (r *appointmentRepository) ListByService(ctx context.Context, serviceID uuid.UUID, from, to *model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT id, service_id, patient_name, patient_surname, patient_phone,
			   patient_email, date, start_time, end_time, reason, status,
			   created_by, created_at
		FROM appointments
		WHERE service_id = $1
	`
	args := []interface{}{serviceID}
	argCount := 2

	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", argCount)
		args = append(args, *to)
		argCount++
	}

	query += " ORDER BY date ASC, start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.AppointmentWithService, error) {
	query := `
		SELECT a.id, a.service_id, a.patient_name, a.patient_surname,
			   a.patient_phone, a.patient_email, a.date, a.start_time,
			   a.end_time, a.reason, a.status, a.created_by, a.created_at,
			   s.name AS service_name
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.date = $1
		ORDER BY s.name ASC, a.start_time ASC
	`
	var appointments []*model.AppointmentWithService
	if err := r.db.SelectContext(ctx, &appointments, query, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments by date: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Stats(ctx context.Context, serviceID uuid.UUID) (*model.ServiceStats, error) {
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = $2) AS confirmed,
			   COUNT(*) FILTER (WHERE status = $3) AS cancelled
		FROM appointments
		WHERE service_id = $1
	`
	var stats model.ServiceStats
	err := r.db.GetContext(ctx, &stats, query, serviceID,
		model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to get service stats: %w", err)
	}
	return &stats, nil
}
