package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

const analysisCacheFile = "analysis-cache.json"

// AnalysisRepository stores analysis results keyed by execution id in a
// single JSON file. Writes rewrite the whole file under the lock, which
// keeps the single-writer guarantee the host process assumes.
type AnalysisRepository struct {
	path    string
	mu      sync.RWMutex
	entries map[string]*models.AnalysisEntry
	logger  *slog.Logger
}

// NewAnalysisRepository loads the cache file. A missing or corrupt file
// degrades to an empty cache: analyses are re-derivable, so losing the
// cache must never take the system down.
func NewAnalysisRepository(root string, logger *slog.Logger) *AnalysisRepository {
	repo := &AnalysisRepository{
		path:    filepath.Join(root, analysisCacheFile),
		entries: make(map[string]*models.AnalysisEntry),
		logger:  logger.With("module", "file_analysis_repository"),
	}

	repo.load()

	return repo
}

func (r *AnalysisRepository) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Failed to read analysis cache, starting empty", "path", r.path, "error", err)
		}

		return
	}

	var stored map[string]*models.AnalysisEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		r.logger.Warn("Analysis cache file is corrupt, starting empty", "path", r.path, "error", err)

		return
	}

	// A file holding JSON null decodes to a nil map, and a null value
	// decodes to a nil entry; both would break later map writes and copies,
	// so keep the pre-allocated map and take only real entries.
	for id, entry := range stored {
		if entry != nil {
			r.entries[id] = entry
		}
	}
}

// flush writes the current state to disk. Callers must hold the write lock.
func (r *AnalysisRepository) flush() error {
	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis cache: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write analysis cache: %w", err)
	}

	return nil
}

// Get returns the stored analysis or persistence.ErrAnalysisNotFound.
func (r *AnalysisRepository) Get(_ context.Context, executionID string) (*models.AnalysisEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[executionID]
	if !exists {
		return nil, &persistence.StoreError{Op: "Get", Key: executionID, Err: persistence.ErrAnalysisNotFound}
	}

	copied := *entry

	return &copied, nil
}

// Put stores an analysis, replacing any previous entry for the execution.
func (r *AnalysisRepository) Put(_ context.Context, entry *models.AnalysisEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *entry
	r.entries[entry.ExecutionID] = &copied

	if err := r.flush(); err != nil {
		return &persistence.StoreError{Op: "Put", Key: entry.ExecutionID, Err: err}
	}

	return nil
}

// Clear drops every stored analysis.
func (r *AnalysisRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*models.AnalysisEntry)

	if err := r.flush(); err != nil {
		return &persistence.StoreError{Op: "Clear", Err: err}
	}

	r.logger.Info("Analysis cache cleared")

	return nil
}

// Stats reports entry count and the oldest/newest timestamps.
func (r *AnalysisRepository) Stats(_ context.Context) (*persistence.AnalysisCacheStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &persistence.AnalysisCacheStats{Count: len(r.entries)}

	for _, entry := range r.entries {
		createdAt := entry.CreatedAt

		if stats.Oldest == nil || createdAt.Before(*stats.Oldest) {
			oldest := createdAt
			stats.Oldest = &oldest
		}

		if stats.Newest == nil || createdAt.After(*stats.Newest) {
			newest := createdAt
			stats.Newest = &newest
		}
	}

	return stats, nil
}
