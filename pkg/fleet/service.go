// Package fleet aggregates per-instance polling results into the health
// view the dashboard renders.
package fleet

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/flowcommand/flowcommand/pkg/cache"
	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/n8n"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// DefaultWindow is the execution history window the dashboard aggregates.
const DefaultWindow = 24 * time.Hour

// Service polls instances and computes their status snapshots. All methods
// are safe for concurrent use from independent request handlers.
type Service struct {
	persistence persistence.Persistence
	statusCache *cache.StatusCache
	static      []models.Instance
	window      time.Duration
	logger      *slog.Logger
}

// NewService creates the aggregation service. static holds environment-
// seeded instances that are part of the fleet view without being persisted.
func NewService(
	p persistence.Persistence,
	statusCache *cache.StatusCache,
	static []models.Instance,
	logger *slog.Logger,
) *Service {
	return &Service{
		persistence: p,
		statusCache: statusCache,
		static:      static,
		window:      DefaultWindow,
		logger:      logger.With("module", "fleet"),
	}
}

// Instances returns the stored instances plus the environment-seeded ones.
func (s *Service) Instances(ctx context.Context) ([]*models.Instance, error) {
	stored, err := s.persistence.Instances().List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range s.static {
		instance := s.static[i]
		stored = append(stored, &instance)
	}

	return stored, nil
}

// Instance resolves an instance id against the store and the environment-
// seeded set, in that order.
func (s *Service) Instance(ctx context.Context, id string) (*models.Instance, error) {
	instance, err := s.persistence.Instances().GetByID(ctx, id)
	if err == nil {
		return instance, nil
	}

	if !persistence.IsInstanceNotFound(err) {
		return nil, err
	}

	for i := range s.static {
		if s.static[i].ID == id {
			static := s.static[i]

			return &static, nil
		}
	}

	return nil, err
}

// InstanceStatus returns the status snapshot for one instance, served from
// the cache when fresh. A full poll probes health and, when healthy, fetches
// the workflow list and the execution window concurrently. Failures never
// escape: an unreachable instance yields an offline snapshot and a stats
// failure on a healthy instance yields an online snapshot with the error
// message attached.
func (s *Service) InstanceStatus(ctx context.Context, instance models.Instance) *models.InstanceStatus {
	if cached, ok := s.statusCache.Get(instance.ID); ok {
		return cached
	}

	status := s.poll(ctx, instance)
	s.statusCache.Set(instance.ID, status)

	return status
}

func (s *Service) poll(ctx context.Context, instance models.Instance) *models.InstanceStatus {
	status := &models.InstanceStatus{
		InstanceID:  instance.ID,
		Name:        instance.Name,
		URL:         instance.URL,
		Health:      models.InstanceOffline,
		LastChecked: time.Now(),
	}

	client := n8n.NewClient(instance, s.logger)

	if !client.HealthCheck(ctx) {
		status.Error = "failed to connect"
		s.logger.WarnContext(ctx, "Instance is offline", "instance_id", instance.ID, "url", instance.URL)

		return status
	}

	status.Health = models.InstanceOnline

	cutoff := time.Now().Add(-s.window)

	var (
		wg          sync.WaitGroup
		workflows   []models.Workflow
		workflowErr error
		executions  []models.Execution
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		workflows, workflowErr = client.ListWorkflows(ctx)
	}()

	go func() {
		defer wg.Done()

		executions = client.ExecutionsSince(ctx, cutoff)
	}()

	wg.Wait()

	if workflowErr != nil {
		// Healthy but stats incomplete; surface the message instead of
		// flipping the instance offline.
		status.Error = workflowErr.Error()
		s.logger.WarnContext(ctx, "Failed to fetch workflows", "instance_id", instance.ID, "error", workflowErr)
	}

	status.Workflows = len(workflows)

	workflowNames := make(map[string]string, len(workflows))
	for _, workflow := range workflows {
		workflowNames[workflow.ID] = workflow.Name
	}

	s.applyWindowStats(status, executions, workflowNames)

	return status
}

// applyWindowStats fills the aggregate counters and the most recent
// execution. The window is sorted client-side because the remote does not
// guarantee ordering by start time; the window is small, so this does not
// reintroduce the cost the fetcher's early termination avoids.
func (s *Service) applyWindowStats(
	status *models.InstanceStatus,
	executions []models.Execution,
	workflowNames map[string]string,
) {
	status.Executions24h = len(executions)

	if len(executions) == 0 {
		return
	}

	successes := 0

	for _, exec := range executions {
		switch exec.DisplayStatus() {
		case models.StatusSuccess:
			successes++
		case models.StatusError:
			status.Failures24h++
		}
	}

	rate := float64(successes) / float64(len(executions)) * 100
	status.SuccessRate = math.Round(rate*10) / 10

	sorted := make([]models.Execution, len(executions))
	copy(sorted, executions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	last := sorted[0]

	name, ok := workflowNames[last.WorkflowID]
	if !ok {
		name = "Unknown Workflow"
	}

	status.LastExecution = &models.LastExecution{
		ID:           last.ID,
		WorkflowID:   last.WorkflowID,
		WorkflowName: name,
		Status:       last.DisplayStatus(),
		StartedAt:    last.StartedAt,
	}
}

// Overview polls every instance concurrently and returns their snapshots in
// the same order as Instances. One unreachable instance never blocks or
// fails the fleet-wide view.
func (s *Service) Overview(ctx context.Context) ([]*models.InstanceStatus, error) {
	instances, err := s.Instances(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*models.InstanceStatus, len(instances))

	var wg sync.WaitGroup

	for i, instance := range instances {
		wg.Add(1)

		go func(i int, instance models.Instance) {
			defer wg.Done()

			statuses[i] = s.InstanceStatus(ctx, instance)
		}(i, *instance)
	}

	wg.Wait()

	return statuses, nil
}

// ExecutionWindow fetches the raw execution window for one instance along
// with its computed stats, for the per-instance detail view. The health probe
// runs here too: an empty window from a dead instance must not read as an
// online instance with no executions.
func (s *Service) ExecutionWindow(ctx context.Context, instance models.Instance) ([]models.Execution, *models.InstanceStatus) {
	status := &models.InstanceStatus{
		InstanceID:  instance.ID,
		Name:        instance.Name,
		URL:         instance.URL,
		Health:      models.InstanceOffline,
		LastChecked: time.Now(),
	}

	client := n8n.NewClient(instance, s.logger)

	if !client.HealthCheck(ctx) {
		status.Error = "failed to connect"
		s.logger.WarnContext(ctx, "Instance is offline", "instance_id", instance.ID, "url", instance.URL)

		return nil, status
	}

	status.Health = models.InstanceOnline

	executions := client.ExecutionsSince(ctx, time.Now().Add(-s.window))

	s.applyWindowStats(status, executions, nil)

	return executions, status
}
