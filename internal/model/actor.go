package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles. Strings from storage or tokens must
// pass Valid before they are trusted as a Role.
type Role string

const (
	// RoleDirector has unrestricted visibility and mutation rights.
	RoleDirector Role = "director"
	// RoleResponsible is scoped to exactly one assigned service.
	RoleResponsible Role = "responsible"
)

func (r Role) Valid() bool {
	return r == RoleDirector || r == RoleResponsible
}

// Actor is an authenticated administrator. A responsible actor with a nil
// ServiceID is representable and sees no services at all.
type Actor struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	ServiceID    *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
