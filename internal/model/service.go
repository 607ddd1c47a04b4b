package model

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable department with its own operating hours. Services are
// deactivated rather than deleted so historical appointments stay valid.
type Service struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description"`
	OpenTime      ClockTime  `db:"open_time" json:"open_time"`
	CloseTime     ClockTime  `db:"close_time" json:"close_time"`
	ResponsibleID *uuid.UUID `db:"responsible_id" json:"responsible_id,omitempty"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

type CreateServiceRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	OpenTime    string `json:"open_time" binding:"required,clock"`
	CloseTime   string `json:"close_time" binding:"required,clock"`
}

type AssignResponsibleRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
}
