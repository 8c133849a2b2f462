package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

const instancesFile = "instances.json"

// InstanceRepository stores instance records in a single JSON file, guarded
// by a lock and mirrored in memory.
type InstanceRepository struct {
	path      string
	mu        sync.RWMutex
	instances map[string]*models.Instance
	logger    *slog.Logger
}

// NewInstanceRepository loads the instances file. A missing or corrupt file
// yields an empty repository.
func NewInstanceRepository(root string, logger *slog.Logger) *InstanceRepository {
	repo := &InstanceRepository{
		path:      filepath.Join(root, instancesFile),
		instances: make(map[string]*models.Instance),
		logger:    logger.With("module", "file_instance_repository"),
	}

	repo.load()

	return repo
}

func (r *InstanceRepository) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Failed to read instances file, starting empty", "path", r.path, "error", err)
		}

		return
	}

	var stored []*models.Instance
	if err := json.Unmarshal(data, &stored); err != nil {
		r.logger.Warn("Instances file is corrupt, starting empty", "path", r.path, "error", err)

		return
	}

	for _, instance := range stored {
		if instance != nil {
			r.instances[instance.ID] = instance
		}
	}
}

// flush writes the current state to disk. Callers must hold the write lock.
func (r *InstanceRepository) flush() error {
	instances := make([]*models.Instance, 0, len(r.instances))
	for _, instance := range r.instances {
		instances = append(instances, instance)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})

	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal instances: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write instances file: %w", err)
	}

	return nil
}

// List returns all stored instances ordered by creation time.
func (r *InstanceRepository) List(_ context.Context) ([]*models.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*models.Instance, 0, len(r.instances))
	for _, instance := range r.instances {
		copied := *instance
		instances = append(instances, &copied)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})

	return instances, nil
}

// GetByID returns the instance or persistence.ErrInstanceNotFound.
func (r *InstanceRepository) GetByID(_ context.Context, id string) (*models.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[id]
	if !exists {
		return nil, &persistence.StoreError{Op: "GetByID", Key: id, Err: persistence.ErrInstanceNotFound}
	}

	copied := *instance

	return &copied, nil
}

// Save creates or overwrites an instance record. A zero CreatedAt is filled
// in and UpdatedAt is always stamped, matching the postgres backend.
func (r *InstanceRepository) Save(_ context.Context, instance *models.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = now
	}

	instance.UpdatedAt = now

	copied := *instance
	r.instances[instance.ID] = &copied

	if err := r.flush(); err != nil {
		return &persistence.StoreError{Op: "Save", Key: instance.ID, Err: err}
	}

	return nil
}

// Delete removes an instance record.
func (r *InstanceRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[id]; !exists {
		return &persistence.StoreError{Op: "Delete", Key: id, Err: persistence.ErrInstanceNotFound}
	}

	delete(r.instances, id)

	if err := r.flush(); err != nil {
		return &persistence.StoreError{Op: "Delete", Key: id, Err: err}
	}

	return nil
}
