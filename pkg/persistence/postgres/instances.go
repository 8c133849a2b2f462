package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// InstanceRepository stores instance records in the instances table.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// List returns all stored instances ordered by creation time.
func (r *InstanceRepository) List(ctx context.Context) ([]*models.Instance, error) {
	query := `
		SELECT id, name, url, api_key, created_at, updated_at
		FROM instances
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &persistence.StoreError{Op: "List", Err: err}
	}
	defer rows.Close()

	var instances []*models.Instance

	for rows.Next() {
		instance := &models.Instance{}

		err := rows.Scan(
			&instance.ID,
			&instance.Name,
			&instance.URL,
			&instance.APIKey,
			&instance.CreatedAt,
			&instance.UpdatedAt,
		)
		if err != nil {
			return nil, &persistence.StoreError{Op: "List", Err: err}
		}

		instances = append(instances, instance)
	}

	if err := rows.Err(); err != nil {
		return nil, &persistence.StoreError{Op: "List", Err: err}
	}

	return instances, nil
}

// GetByID returns the instance or persistence.ErrInstanceNotFound.
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.Instance, error) {
	query := `
		SELECT id, name, url, api_key, created_at, updated_at
		FROM instances
		WHERE id = $1
	`

	instance := &models.Instance{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&instance.ID,
		&instance.Name,
		&instance.URL,
		&instance.APIKey,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.StoreError{Op: "GetByID", Key: id, Err: persistence.ErrInstanceNotFound}
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "GetByID", Key: id, Err: err}
	}

	return instance, nil
}

// Save creates or overwrites an instance record.
func (r *InstanceRepository) Save(ctx context.Context, instance *models.Instance) error {
	query := `
		INSERT INTO instances (id, name, url, api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			api_key = EXCLUDED.api_key,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}

	instance.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		instance.ID,
		instance.Name,
		instance.URL,
		instance.APIKey,
		instance.CreatedAt,
		instance.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save instance", "instance_id", instance.ID, "error", err)

		return &persistence.StoreError{Op: "Save", Key: instance.ID, Err: err}
	}

	return nil
}

// Delete removes an instance record.
func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM instances WHERE id = $1", id)
	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: id, Err: err}
	}

	if affected == 0 {
		return &persistence.StoreError{Op: "Delete", Key: id, Err: persistence.ErrInstanceNotFound}
	}

	return nil
}
