// Package main provides the FlowCommand API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowcommand/flowcommand/pkg/analysis"
	"github.com/flowcommand/flowcommand/pkg/cache"
	"github.com/flowcommand/flowcommand/pkg/fleet"
	"github.com/flowcommand/flowcommand/pkg/persistence"
	"github.com/flowcommand/flowcommand/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	statusCache *cache.StatusCache
	generator   analysis.Generator
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	p persistence.Persistence,
	statusCache *cache.StatusCache,
	generator analysis.Generator,
) *API {
	return &API{
		logger:      logger,
		persistence: p,
		statusCache: statusCache,
		generator:   generator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	fleetService := fleet.NewService(a.persistence, a.statusCache, fleet.EnvInstances(), a.logger)
	analysisService := analysis.NewService(a.persistence, a.generator, a.logger)

	handlers := web.NewAPIHandlers(fleetService, analysisService, a.persistence, a.statusCache, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("FlowCommand API")
	})

	instances := app.Group("/instances")
	instances.Get("/", handlers.GetInstances)
	instances.Post("/", handlers.CreateInstance)
	instances.Delete("/:id", handlers.DeleteInstance)
	instances.Get("/:id/status", handlers.GetInstanceStatus)
	instances.Get("/:id/executions", handlers.GetInstanceExecutions)
	instances.Get("/:id/executions/:executionId", handlers.GetExecutionDetail)
	instances.Post("/:id/executions/:executionId/analyze", handlers.AnalyzeExecution)

	appFleet := app.Group("/fleet")
	appFleet.Get("/status", handlers.GetFleetStatus)
	appFleet.Delete("/cache", handlers.ClearFleetCache)

	analysisGroup := app.Group("/analysis")
	analysisGroup.Get("/cache/stats", handlers.GetAnalysisCacheStats)
	analysisGroup.Delete("/cache", handlers.ClearAnalysisCache)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
