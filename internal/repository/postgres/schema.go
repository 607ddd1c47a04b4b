package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// slotUniqueIndex enforces the one concurrency-sensitive invariant in the
// system: at most one non-cancelled appointment per (service, date, start).
// Insert maps violations of this index to model.ErrSlotTaken.
const slotUniqueIndex = "uq_appointments_slot"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS actors (
		id UUID PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		service_id UUID,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id UUID PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		open_time TIME NOT NULL,
		close_time TIME NOT NULL,
		responsible_id UUID REFERENCES actors(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		service_id UUID NOT NULL REFERENCES services(id),
		patient_name TEXT NOT NULL,
		patient_surname TEXT NOT NULL,
		patient_phone TEXT NOT NULL,
		patient_email TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		start_time TIME NOT NULL,
		end_time TIME NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'confirmed',
		created_by UUID REFERENCES actors(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + slotUniqueIndex + `
		ON appointments (service_id, date, start_time)
		WHERE status <> 'cancelled'`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_service_date
		ON appointments (service_id, date, start_time)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		retry_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_events_unprocessed
		ON outbox_events (created_at) WHERE status <> 'processed'`,
}

// InitSchema creates the tables and indexes if they do not exist yet.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
