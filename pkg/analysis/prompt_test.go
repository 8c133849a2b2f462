package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowcommand/flowcommand/pkg/models"
)

func TestBuildPrompt_FullInput(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(PromptInput{
		WorkflowName:     "Invoice Flow",
		ExecutionID:      "exec-1",
		StartedAt:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:           models.StatusError,
		FailedNode:       "HTTP Request",
		LastNodeExecuted: "HTTP Request",
		Error:            &models.ExecutionError{Message: "connection refused"},
	})

	assert.Contains(t, prompt, "Workflow: Invoice Flow")
	assert.Contains(t, prompt, "Execution ID: exec-1")
	assert.Contains(t, prompt, "Started: 2025-06-01T10:00:00Z")
	assert.Contains(t, prompt, "Failed Node: HTTP Request")
	assert.Contains(t, prompt, "Last Node Executed: HTTP Request")
	assert.Contains(t, prompt, "connection refused")
	assert.Contains(t, prompt, "Root Cause")
	assert.Contains(t, prompt, "How To Fix")
}

func TestBuildPrompt_Fallbacks(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(PromptInput{
		ExecutionID: "exec-2",
		Status:      models.StatusError,
	})

	assert.Contains(t, prompt, "Workflow: Unknown")
	assert.Contains(t, prompt, "No specific error information available")
	assert.NotContains(t, prompt, "Failed Node:")
	assert.NotContains(t, prompt, "Last Node Executed:")
}
