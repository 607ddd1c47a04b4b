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

func (r *serviceRepository) Create(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, name, description, open_time, close_time,
			responsible_id, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	service.ID = uuid.New()
	service.Active = true
	service.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.Description,
		service.OpenTime,
		service.CloseTime,
		service.ResponsibleID,
		service.Active,
		service.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateName
		}
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *serviceRepository) CreateIfAbsent(ctx context.Context, service *model.Service) error {
	query := `
		INSERT INTO services (
			id, name, description, open_time, close_time,
			responsible_id, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING
	`
	service.ID = uuid.New()
	service.Active = true
	service.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.Description,
		service.OpenTime,
		service.CloseTime,
		service.ResponsibleID,
		service.Active,
		service.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to seed service: %w", err)
	}
	return nil
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, name, description, open_time, close_time,
			   responsible_id, active, created_at
		FROM services
		WHERE id = $1
	`
	var service model.Service
	err := r.db.GetContext(ctx, &service, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}

func (r *serviceRepository) ListActive(ctx context.Context) ([]*model.Service, error) {
	query := `
		SELECT id, name, description, open_time, close_time,
			   responsible_id, active, created_at
		FROM services
		WHERE active
		ORDER BY name ASC
	`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (r *serviceRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE services SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SetResponsible links a service and an actor both ways in one transaction.
// The access resolver scopes a responsible by actors.service_id, so writing
// only the services side would leave the assignment invisible.
func (r *serviceRepository) SetResponsible(ctx context.Context, id, actorID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE services SET responsible_id = $1 WHERE id = $2`, actorID, id)
	if err != nil {
		return fmt.Errorf("failed to assign responsible: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}

	result, err = tx.ExecContext(ctx, `UPDATE actors SET service_id = $1 WHERE id = $2`, id, actorID)
	if err != nil {
		return fmt.Errorf("failed to assign responsible: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}

	return tx.Commit()
}
