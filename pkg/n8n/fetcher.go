package n8n

import (
	"context"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
)

// executionPageSize is deliberately smaller than the workflow page size:
// remote instances are known to 502 on large execution payloads.
const executionPageSize = 50

// ExecutionsSince walks execution pages until it crosses the cutoff and
// returns every execution that started at or after it. Pages are fetched
// strictly in cursor order and items are kept in the order the API returned
// them; the walk stops after the first page containing an item older than
// the cutoff.
//
// The early termination assumes the remote returns executions in roughly
// recent-first order. That ordering is not contractually guaranteed, so the
// result is best-effort: an out-of-order remote can cause items near the
// cutoff to be missed. Sorting all pages client-side would defeat the point
// of stopping early, so the trade-off stands.
//
// A page request failure also ends the walk, returning what was accumulated
// so far. Callers must treat the result as potentially incomplete and must
// not read an empty slice as "no executions".
func (c *Client) ExecutionsSince(ctx context.Context, cutoff time.Time) []models.Execution {
	var (
		collected []models.Execution
		cursor    string
	)

	for {
		page, next, err := c.ListExecutionsPage(ctx, cursor, executionPageSize, "")
		if err != nil {
			c.logger.WarnContext(ctx, "Failed to fetch executions page, returning partial results",
				"error", err,
				"collected", len(collected),
			)

			return collected
		}

		if len(page) == 0 {
			return collected
		}

		boundaryReached := false

		for _, exec := range page {
			if exec.StartedAt.Before(cutoff) {
				boundaryReached = true
			} else {
				collected = append(collected, exec)
			}
		}

		if boundaryReached || next == "" {
			return collected
		}

		cursor = next
	}
}
