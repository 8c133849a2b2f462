package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/n8n"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// Result is the outcome of one analysis request.
type Result struct {
	Analysis  string    `json:"analysis"`
	Cached    bool      `json:"cached"`
	Timestamp time.Time `json:"timestamp"`
}

// Service runs the cache-first analysis flow. Unlike fleet polling, every
// failure here propagates to the caller: analysis is an explicit
// single-target action and silent degradation would hide the problem.
type Service struct {
	persistence persistence.Persistence
	generator   Generator
	logger      *slog.Logger
}

// NewService creates the analysis service.
func NewService(p persistence.Persistence, generator Generator, logger *slog.Logger) *Service {
	return &Service{
		persistence: p,
		generator:   generator,
		logger:      logger.With("module", "analysis"),
	}
}

// Analyze produces a diagnosis for the given execution. Unless force is set,
// a stored analysis is returned without touching the remote instance or the
// model. A fresh analysis fetches the execution detail and the full workflow
// list, extracts the failure, prompts the model and stores the result; a
// forced refresh replaces the stored entry whole.
func (s *Service) Analyze(ctx context.Context, instance models.Instance, executionID string, force bool) (*Result, error) {
	repo := s.persistence.AnalysisCache()

	if !force {
		entry, err := repo.Get(ctx, executionID)
		if err == nil {
			s.logger.DebugContext(ctx, "Analysis cache hit", "execution_id", executionID)

			return &Result{Analysis: entry.Analysis, Cached: true, Timestamp: entry.CreatedAt}, nil
		}

		if !persistence.IsAnalysisNotFound(err) {
			s.logger.WarnContext(ctx, "Failed to read analysis cache", "execution_id", executionID, "error", err)
		}
	}

	client := n8n.NewClient(instance, s.logger)

	detail, err := client.ExecutionDetail(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution detail: %w", err)
	}

	workflows, err := client.ListWorkflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}

	workflowName := ""

	for _, workflow := range workflows {
		if workflow.ID == detail.WorkflowID {
			workflowName = workflow.Name

			break
		}
	}

	failedNode, execErr := ExtractFailure(detail)

	input := PromptInput{
		WorkflowName: workflowName,
		ExecutionID:  detail.ID,
		StartedAt:    detail.StartedAt,
		Status:       detail.DisplayStatus(),
		FailedNode:   failedNode,
		Error:        execErr,
	}
	if detail.Data != nil && detail.Data.ResultData != nil {
		input.LastNodeExecuted = detail.Data.ResultData.LastNodeExecuted
	}

	text, err := s.generator.Generate(ctx, BuildPrompt(input))
	if err != nil {
		return nil, err
	}

	entry := &models.AnalysisEntry{
		ExecutionID: executionID,
		InstanceID:  instance.ID,
		Analysis:    text,
		CreatedAt:   time.Now().UTC(),
	}
	if execErr != nil {
		entry.ErrorMessage = execErr.Message
	}

	// The analysis is already computed; failing the request over a cache
	// write would throw it away.
	if err := repo.Put(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "Failed to store analysis", "execution_id", executionID, "error", err)
	}

	return &Result{Analysis: text, Cached: false, Timestamp: entry.CreatedAt}, nil
}
