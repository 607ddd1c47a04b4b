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

const actorColumns = `id, username, password_hash, role, service_id, active, created_at`

func (r *actorRepository) Create(ctx context.Context, actor *model.Actor) error {
	query := `
		INSERT INTO actors (` + actorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	actor.ID = uuid.New()
	actor.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		actor.ID,
		actor.Username,
		actor.PasswordHash,
		actor.Role,
		actor.ServiceID,
		actor.Active,
		actor.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateName
		}
		return fmt.Errorf("failed to create actor: %w", err)
	}
	return nil
}

func (r *actorRepository) CreateIfAbsent(ctx context.Context, actor *model.Actor) error {
	query := `
		INSERT INTO actors (` + actorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO NOTHING
	`
	actor.ID = uuid.New()
	actor.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		actor.ID,
		actor.Username,
		actor.PasswordHash,
		actor.Role,
		actor.ServiceID,
		actor.Active,
		actor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to seed actor: %w", err)
	}
	return nil
}

func (r *actorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE id = $1`

	var actor model.Actor
	err := r.db.GetContext(ctx, &actor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return &actor, nil
}

func (r *actorRepository) GetByUsername(ctx context.Context, username string) (*model.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE username = $1`

	var actor model.Actor
	err := r.db.GetContext(ctx, &actor, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actor: %w", err)
	}
	return &actor, nil
}
