// Package postgres provides PostgreSQL-backed persistence for deployments
// that already run a database and want the analysis cache and instance
// records to survive beyond a single data directory.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// Persistence implements persistence.Persistence on a PostgreSQL database.
type Persistence struct {
	db           *sql.DB
	instanceRepo *InstanceRepository
	analysisRepo *AnalysisRepository
	logger       *slog.Logger
}

// NewPersistence connects, pings and migrates the schema.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Persistence{
		db:           db,
		instanceRepo: &InstanceRepository{db: db, logger: logger.With("module", "postgres_instance_repository")},
		analysisRepo: &AnalysisRepository{db: db, logger: logger.With("module", "postgres_analysis_repository")},
		logger:       logger.With("module", "postgres_persistence"),
	}

	if err := p.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	p.logger.InfoContext(ctx, "PostgreSQL persistence initialized")

	return p, nil
}

// Instances returns the instance repository.
func (p *Persistence) Instances() persistence.InstanceRepository {
	return p.instanceRepo
}

// AnalysisCache returns the analysis repository.
func (p *Persistence) AnalysisCache() persistence.AnalysisRepository {
	return p.analysisRepo
}

// HealthCheck pings the database.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database pool.
func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}
