package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// AnalysisRepository stores analysis results in the analysis_cache table.
type AnalysisRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Get returns the stored analysis or persistence.ErrAnalysisNotFound.
func (r *AnalysisRepository) Get(ctx context.Context, executionID string) (*models.AnalysisEntry, error) {
	query := `
		SELECT execution_id, instance_id, analysis, error_message, created_at
		FROM analysis_cache
		WHERE execution_id = $1
	`

	entry := &models.AnalysisEntry{}

	err := r.db.QueryRowContext(ctx, query, executionID).Scan(
		&entry.ExecutionID,
		&entry.InstanceID,
		&entry.Analysis,
		&entry.ErrorMessage,
		&entry.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.StoreError{Op: "Get", Key: executionID, Err: persistence.ErrAnalysisNotFound}
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", Key: executionID, Err: err}
	}

	return entry, nil
}

// Put stores an analysis, replacing any previous entry for the execution.
func (r *AnalysisRepository) Put(ctx context.Context, entry *models.AnalysisEntry) error {
	query := `
		INSERT INTO analysis_cache (execution_id, instance_id, analysis, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (execution_id)
		DO UPDATE SET
			instance_id = EXCLUDED.instance_id,
			analysis = EXCLUDED.analysis,
			error_message = EXCLUDED.error_message,
			created_at = EXCLUDED.created_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ExecutionID,
		entry.InstanceID,
		entry.Analysis,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save analysis", "execution_id", entry.ExecutionID, "error", err)

		return &persistence.StoreError{Op: "Put", Key: entry.ExecutionID, Err: err}
	}

	return nil
}

// Clear drops every stored analysis.
func (r *AnalysisRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM analysis_cache"); err != nil {
		return &persistence.StoreError{Op: "Clear", Err: err}
	}

	return nil
}

// Stats reports entry count and the oldest/newest timestamps in one scan.
func (r *AnalysisRepository) Stats(ctx context.Context) (*persistence.AnalysisCacheStats, error) {
	query := `
		SELECT COUNT(*), MIN(created_at), MAX(created_at)
		FROM analysis_cache
	`

	stats := &persistence.AnalysisCacheStats{}

	var oldest, newest sql.NullTime

	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Count, &oldest, &newest); err != nil {
		return nil, &persistence.StoreError{Op: "Stats", Err: err}
	}

	if oldest.Valid {
		stats.Oldest = &oldest.Time
	}

	if newest.Valid {
		stats.Newest = &newest.Time
	}

	return stats, nil
}
