// Package analysis turns failed executions into AI-generated diagnoses,
// consulting the durable analysis cache before calling the model.
package analysis

import "github.com/flowcommand/flowcommand/pkg/models"

// ExtractFailure finds the error to surface for an execution. It walks the
// per-node run data in serialization order and returns the name and error of
// the first node whose first run attempt failed; later nodes are not
// scanned, since downstream failures are usually fallout from the first one.
// Without a node-level error it falls back to the workflow-level error. Both
// absent is a valid outcome: not every execution handed to this function
// actually failed.
func ExtractFailure(detail *models.ExecutionDetail) (string, *models.ExecutionError) {
	if detail == nil || detail.Data == nil || detail.Data.ResultData == nil {
		return "", nil
	}

	resultData := detail.Data.ResultData

	for _, name := range resultData.RunData.Names() {
		runs := resultData.RunData.Runs(name)
		if len(runs) > 0 && runs[0].Error != nil {
			return name, runs[0].Error
		}
	}

	return "", resultData.Error
}
