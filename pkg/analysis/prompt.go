package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flowcommand/flowcommand/pkg/models"
)

// PromptInput carries the execution facts the prompt is built from.
type PromptInput struct {
	WorkflowName     string
	ExecutionID      string
	StartedAt        time.Time
	Status           models.DisplayStatus
	FailedNode       string
	LastNodeExecuted string
	Error            *models.ExecutionError
}

// BuildPrompt renders the diagnostic prompt sent to the analysis model.
func BuildPrompt(input PromptInput) string {
	workflowName := input.WorkflowName
	if workflowName == "" {
		workflowName = "Unknown"
	}

	errorInfo := "No specific error information available"

	if input.Error != nil {
		if data, err := json.MarshalIndent(input.Error, "", "  "); err == nil {
			errorInfo = string(data)
		} else {
			errorInfo = input.Error.Message
		}
	}

	var b strings.Builder

	b.WriteString("You are an expert n8n workflow debugger. Analyze this workflow execution error and provide a detailed analysis.\n\n")
	fmt.Fprintf(&b, "Workflow: %s\n", workflowName)
	fmt.Fprintf(&b, "Execution ID: %s\n", input.ExecutionID)
	fmt.Fprintf(&b, "Started: %s\n", input.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Status: %s\n", input.Status)

	if input.FailedNode != "" {
		fmt.Fprintf(&b, "Failed Node: %s\n", input.FailedNode)
	}

	if input.LastNodeExecuted != "" {
		fmt.Fprintf(&b, "Last Node Executed: %s\n", input.LastNodeExecuted)
	}

	fmt.Fprintf(&b, "\nError information:\n%s\n\n", errorInfo)

	b.WriteString(`Please provide:
1. **Root Cause**: What caused this error?
2. **Explanation**: Why did this happen in the context of n8n workflows?
3. **How To Fix**: Step-by-step instructions to resolve this issue
4. **Prevention**: Best practices to avoid this error in the future
5. **Extra Tips**: Other relevant insights

Format your answer in clear sections with markdown-style headers.`)

	return b.String()
}
