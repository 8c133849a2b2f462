// Package file provides JSON-file backed persistence. It is the default
// backend: one file for instance records, one for the analysis cache,
// mirroring a simple data/ directory deployment.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a data directory.
type Persistence struct {
	root         string
	instanceRepo *InstanceRepository
	analysisRepo *AnalysisRepository
}

// NewPersistence creates the data directory if needed and loads both stores.
// Corrupt or missing files degrade to empty stores rather than failing
// startup; the cache and instance list are rebuildable.
func NewPersistence(root string, logger *slog.Logger) (*Persistence, error) {
	cleanRoot := strings.TrimPrefix(root, "file://")

	if err := os.MkdirAll(cleanRoot, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Persistence{
		root:         cleanRoot,
		instanceRepo: NewInstanceRepository(cleanRoot, logger),
		analysisRepo: NewAnalysisRepository(cleanRoot, logger),
	}, nil
}

// Instances returns the instance repository.
func (p *Persistence) Instances() persistence.InstanceRepository {
	return p.instanceRepo
}

// AnalysisCache returns the analysis repository.
func (p *Persistence) AnalysisCache() persistence.AnalysisRepository {
	return p.analysisRepo
}

// HealthCheck verifies the data directory still exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
