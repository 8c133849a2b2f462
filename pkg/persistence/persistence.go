// Package persistence defines the durable storage contracts for instance
// records and cached analysis results.
package persistence

import (
	"context"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
)

// Persistence bundles the repositories one storage backend provides.
type Persistence interface {
	Instances() InstanceRepository
	AnalysisCache() AnalysisRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// InstanceRepository is keyed CRUD over configured instances.
type InstanceRepository interface {
	// List returns all stored instances.
	List(ctx context.Context) ([]*models.Instance, error)

	// GetByID returns the instance or ErrInstanceNotFound.
	GetByID(ctx context.Context, id string) (*models.Instance, error)

	// Save creates or overwrites an instance record.
	Save(ctx context.Context, instance *models.Instance) error

	// Delete removes an instance. Deleting an unknown id returns
	// ErrInstanceNotFound.
	Delete(ctx context.Context, id string) error
}

// AnalysisCacheStats summarizes the stored analyses without the caller
// scanning entries.
type AnalysisCacheStats struct {
	Count  int        `json:"count"`
	Oldest *time.Time `json:"oldest,omitempty"`
	Newest *time.Time `json:"newest,omitempty"`
}

// AnalysisRepository is the durable, keyed-by-execution-id store of computed
// diagnostic text. Put overwrites whole entries (last write wins); analyses
// are idempotent re-derivations of the same execution, so no finer
// serialization is needed.
type AnalysisRepository interface {
	// Get returns the stored analysis or ErrAnalysisNotFound.
	Get(ctx context.Context, executionID string) (*models.AnalysisEntry, error)

	// Put stores an analysis, replacing any previous entry for the same
	// execution id.
	Put(ctx context.Context, entry *models.AnalysisEntry) error

	// Clear drops every stored analysis.
	Clear(ctx context.Context) error

	// Stats reports entry count and the oldest/newest timestamps.
	Stats(ctx context.Context) (*AnalysisCacheStats, error)
}
