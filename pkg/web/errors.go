package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/flowcommand/flowcommand/pkg/analysis"
	"github.com/flowcommand/flowcommand/pkg/n8n"
	"github.com/flowcommand/flowcommand/pkg/persistence"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func upstreamError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(502).
		WithInstance(c.Path()).
		WithType("upstream_error").
		WithDetail(err.Error())

	return c.Status(fiber.StatusBadGateway).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRemoteError maps failures of explicit single-target remote actions
// (execution detail, analysis) onto problem responses. Fleet-view failures
// never reach here; they are downgraded to offline snapshots upstream.
func handleRemoteError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, analysis.ErrNotConfigured):
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("analysis_not_configured").
			WithDetail(err.Error())

		return c.Status(fiber.StatusInternalServerError).JSON(problem)

	case persistence.IsInstanceNotFound(err):
		return notFound(c, "instance not found")

	case n8n.IsNotFound(err):
		return notFound(c, "execution not found on remote instance")

	default:
		// Remaining remote API, parse and transport failures all surface
		// as a bad gateway: the upstream instance or model misbehaved.
		return upstreamError(c, err)
	}
}
