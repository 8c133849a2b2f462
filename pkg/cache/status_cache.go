// Package cache provides the process-wide TTL cache for instance status
// snapshots. It is a performance optimization, not a correctness-bearing
// store: it lives in memory only and is lost on restart.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowcommand/flowcommand/pkg/models"
)

const (
	// DefaultTTL bounds how stale a served snapshot may be.
	DefaultTTL = 45 * time.Second

	// sweepSchedule controls the periodic removal of dead entries, which
	// bounds growth from instances that were removed without an explicit
	// eviction.
	sweepSchedule = "@every 5m"
)

type entry struct {
	status   *models.InstanceStatus
	storedAt time.Time
}

// StatusCache is a concurrency-safe TTL cache keyed by instance id.
type StatusCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	cron    *cron.Cron
	logger  *slog.Logger
}

// New creates a status cache with the given TTL. The sweeper is not started;
// call StartSweeper once at process start.
func New(ttl time.Duration, logger *slog.Logger) *StatusCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &StatusCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With("module", "status_cache"),
	}
}

// Get returns the cached snapshot for an instance if it is younger than the
// TTL. A stale entry is reported as a miss but left in place; the sweeper
// owns deletion.
func (c *StatusCache) Get(instanceID string) (*models.InstanceStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.entries[instanceID]
	if !exists {
		c.logger.Debug("Cache miss", "instance_id", instanceID)

		return nil, false
	}

	age := c.now().Sub(cached.storedAt)
	if age >= c.ttl {
		c.logger.Debug("Cache miss, entry stale", "instance_id", instanceID, "age", age)

		return nil, false
	}

	c.logger.Debug("Cache hit", "instance_id", instanceID, "age", age)

	return cached.status, true
}

// Set stores or overwrites the snapshot for an instance.
func (c *StatusCache) Set(instanceID string, status *models.InstanceStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[instanceID] = entry{status: status, storedAt: c.now()}
}

// Clear drops every entry.
func (c *StatusCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.logger.Info("Cache cleared")
}

// Len reports the number of entries currently held, stale ones included.
func (c *StatusCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Sweep deletes entries older than twice the TTL and returns how many were
// removed.
func (c *StatusCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	for id, cached := range c.entries {
		if now.Sub(cached.storedAt) > 2*c.ttl {
			delete(c.entries, id)

			removed++
		}
	}

	if removed > 0 {
		c.logger.Info("Swept stale cache entries", "removed", removed)
	}

	return removed
}

// StartSweeper schedules the periodic sweep. It returns an error only if the
// schedule expression fails to parse.
func (c *StatusCache) StartSweeper() error {
	c.cron = cron.New()

	if _, err := c.cron.AddFunc(sweepSchedule, func() { c.Sweep() }); err != nil {
		return err
	}

	c.cron.Start()

	return nil
}

// StopSweeper stops the periodic sweep if it was started.
func (c *StatusCache) StopSweeper() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
