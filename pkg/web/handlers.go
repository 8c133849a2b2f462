// Package web provides the HTTP handlers for the fleet dashboard API.
package web

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/flowcommand/flowcommand/pkg/analysis"
	"github.com/flowcommand/flowcommand/pkg/cache"
	"github.com/flowcommand/flowcommand/pkg/fleet"
	"github.com/flowcommand/flowcommand/pkg/models"
	"github.com/flowcommand/flowcommand/pkg/n8n"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

// APIHandlers bundles the services the dashboard endpoints depend on.
type APIHandlers struct {
	fleetService    *fleet.Service
	analysisService *analysis.Service
	persistence     persistence.Persistence
	statusCache     *cache.StatusCache
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(
	fleetService *fleet.Service,
	analysisService *analysis.Service,
	p persistence.Persistence,
	statusCache *cache.StatusCache,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		fleetService:    fleetService,
		analysisService: analysisService,
		persistence:     p,
		statusCache:     statusCache,
		validator:       validator,
		logger:          logger.With("module", "web"),
	}
}

// GetInstances lists all configured instances, credentials stripped.
func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	instances, err := h.fleetService.Instances(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	responses := make([]InstanceResponse, 0, len(instances))
	for _, instance := range instances {
		responses = append(responses, TransformInstanceResponse(instance))
	}

	return c.JSON(responses)
}

// CreateInstance registers a new instance to monitor.
func (h *APIHandlers) CreateInstance(c fiber.Ctx) error {
	var req CreateInstanceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	instance := &models.Instance{
		ID:     id,
		Name:   req.Name,
		URL:    req.URL,
		APIKey: req.APIKey,
	}

	if err := h.persistence.Instances().Save(c.Context(), instance); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformInstanceResponse(instance))
}

// DeleteInstance removes an instance and its cached status.
func (h *APIHandlers) DeleteInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	if err := h.persistence.Instances().Delete(c.Context(), id); err != nil {
		if persistence.IsInstanceNotFound(err) {
			return notFound(c, "instance not found")
		}

		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetFleetStatus returns status snapshots for the whole fleet.
func (h *APIHandlers) GetFleetStatus(c fiber.Ctx) error {
	statuses, err := h.fleetService.Overview(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"instances": statuses,
		"timestamp": time.Now().UTC(),
	})
}

// ClearFleetCache drops all cached status snapshots, forcing the next reads
// to poll.
func (h *APIHandlers) ClearFleetCache(c fiber.Ctx) error {
	h.statusCache.Clear()

	return c.JSON(fiber.Map{"success": true})
}

// GetInstanceStatus returns the status snapshot for one instance.
func (h *APIHandlers) GetInstanceStatus(c fiber.Ctx) error {
	instance, err := h.fleetService.Instance(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return notFound(c, "instance not found")
		}

		return internalError(c, err)
	}

	return c.JSON(h.fleetService.InstanceStatus(c.Context(), *instance))
}

// GetInstanceExecutions returns the execution window and its stats for one
// instance.
func (h *APIHandlers) GetInstanceExecutions(c fiber.Ctx) error {
	instance, err := h.fleetService.Instance(c.Context(), c.Params("id"))
	if err != nil {
		if persistence.IsInstanceNotFound(err) {
			return notFound(c, "instance not found")
		}

		return internalError(c, err)
	}

	executions, stats := h.fleetService.ExecutionWindow(c.Context(), *instance)

	return c.JSON(ExecutionWindowResponse{
		Executions: executions,
		Stats:      stats,
	})
}

// GetExecutionDetail fetches one execution with full data and the failure
// extracted from it. Failures here propagate: this is an explicit
// single-target action.
func (h *APIHandlers) GetExecutionDetail(c fiber.Ctx) error {
	instance, err := h.fleetService.Instance(c.Context(), c.Params("id"))
	if err != nil {
		return handleRemoteError(c, err)
	}

	client := n8n.NewClient(*instance, h.logger)

	detail, err := client.ExecutionDetail(c.Context(), c.Params("executionId"))
	if err != nil {
		return handleRemoteError(c, err)
	}

	failedNode, execErr := analysis.ExtractFailure(detail)

	return c.JSON(ExecutionDetailResponse{
		Execution:  detail,
		FailedNode: failedNode,
		Error:      execErr,
	})
}

// AnalyzeExecution runs the cache-first AI diagnosis for an execution.
func (h *APIHandlers) AnalyzeExecution(c fiber.Ctx) error {
	instance, err := h.fleetService.Instance(c.Context(), c.Params("id"))
	if err != nil {
		return handleRemoteError(c, err)
	}

	var req AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.analysisService.Analyze(c.Context(), *instance, c.Params("executionId"), req.Force)
	if err != nil {
		return handleRemoteError(c, err)
	}

	return c.JSON(result)
}

// GetAnalysisCacheStats reports analysis cache counts and age bounds.
func (h *APIHandlers) GetAnalysisCacheStats(c fiber.Ctx) error {
	stats, err := h.persistence.AnalysisCache().Stats(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(stats)
}

// ClearAnalysisCache drops all stored analyses.
func (h *APIHandlers) ClearAnalysisCache(c fiber.Ctx) error {
	if err := h.persistence.AnalysisCache().Clear(c.Context()); err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// HealthCheck reports the health of the persistence layer.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":    "unhealthy",
			"message":   "Persistence layer is unhealthy: " + err.Error(),
			"timestamp": time.Now().UTC(),
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"message":   "FlowCommand API is healthy",
		"timestamp": time.Now().UTC(),
	})
}
