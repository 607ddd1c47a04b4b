package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a reservation of one slot for one service on one date.
// Appointments are never physically deleted; cancellation is the only
// permitted transition and frees the slot for rebooking.
type Appointment struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	ServiceID      uuid.UUID         `db:"service_id" json:"service_id"`
	PatientName    string            `db:"patient_name" json:"patient_name"`
	PatientSurname string            `db:"patient_surname" json:"patient_surname"`
	PatientPhone   string            `db:"patient_phone" json:"patient_phone"`
	PatientEmail   string            `db:"patient_email" json:"patient_email,omitempty"`
	Date           Date              `db:"date" json:"date"`
	StartTime      ClockTime         `db:"start_time" json:"start_time"`
	EndTime        ClockTime         `db:"end_time" json:"end_time"`
	Reason         string            `db:"reason" json:"reason,omitempty"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CreatedBy      *uuid.UUID        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// AppointmentWithService is an appointment joined with its service name, used
// by the per-date listing.
type AppointmentWithService struct {
	Appointment
	ServiceName string `db:"service_name" json:"service_name"`
}

// Slot is a candidate bookable time range derived from a service's operating
// hours. Slots are generated on every query and never persisted.
type Slot struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// SlotStatus is a slot annotated with its booked/free state at query time.
// It is a snapshot, not a reservation; the ledger decides at write time.
type SlotStatus struct {
	Slot
	Available bool `json:"available"`
}

type BookAppointmentRequest struct {
	ServiceID      uuid.UUID `json:"service_id" binding:"required"`
	Date           string    `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime      string    `json:"start_time" binding:"required,clock"`
	EndTime        string    `json:"end_time" binding:"required,clock"`
	PatientName    string    `json:"patient_name" binding:"required"`
	PatientSurname string    `json:"patient_surname" binding:"required"`
	PatientPhone   string    `json:"patient_phone" binding:"required"`
	PatientEmail   string    `json:"patient_email" binding:"omitempty,email"`
	Reason         string    `json:"reason"`
}

// CancelOutcome distinguishes a first-time cancellation from the idempotent
// repeat, so racing cancellers never see a spurious failure.
type CancelOutcome string

const (
	CancelOutcomeCancelled        CancelOutcome = "cancelled"
	CancelOutcomeAlreadyCancelled CancelOutcome = "already_cancelled"
)

// ServiceStats are aggregate appointment counts for one service.
type ServiceStats struct {
	Total     int `db:"total" json:"total"`
	Confirmed int `db:"confirmed" json:"confirmed"`
	Cancelled int `db:"cancelled" json:"cancelled"`
}
