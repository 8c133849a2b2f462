package models

import "time"

// DisplayStatus is the single status shown for an execution. The remote API
// has gone through several schema revisions and different server versions
// populate different subsets of the status signals, so the dashboard derives
// one value instead of trusting any single field.
type DisplayStatus string

const (
	StatusWaiting DisplayStatus = "waiting"
	StatusRunning DisplayStatus = "running"
	StatusSuccess DisplayStatus = "success"
	StatusError   DisplayStatus = "error"
	StatusUnknown DisplayStatus = "unknown"
)

// Execution is a summary of one workflow run on a remote instance.
// Finished is a pointer because older server versions omit the field
// entirely, which is a different signal than finished=false.
type Execution struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflowId"`
	Finished   *bool      `json:"finished,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	RetryOf    string     `json:"retryOf,omitempty"`
	Status     string     `json:"status,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty"`
	WaitTill   *time.Time `json:"waitTill,omitempty"`
}

// DisplayStatus resolves the execution's status from the signals the remote
// returned. Precedence, first match wins:
//
//  1. waitTill set means the run is parked, regardless of anything else.
//  2. An explicit status is passed through verbatim.
//  3. finished=false means the run is still going.
//  4. finished=true with no explicit status means it completed cleanly.
//  5. Nothing usable was reported.
func (e Execution) DisplayStatus() DisplayStatus {
	switch {
	case e.WaitTill != nil:
		return StatusWaiting
	case e.Status != "":
		return DisplayStatus(e.Status)
	case e.Finished != nil && !*e.Finished:
		return StatusRunning
	case e.Finished != nil && *e.Finished:
		return StatusSuccess
	default:
		return StatusUnknown
	}
}

// ExecutionError is the error payload n8n attaches to a failed run or node.
type ExecutionError struct {
	Message     string         `json:"message"`
	Description string         `json:"description,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Stack       string         `json:"stack,omitempty"`
}

// NodeRun is a single attempt of one node within an execution.
type NodeRun struct {
	Error         *ExecutionError `json:"error,omitempty"`
	StartTime     int64           `json:"startTime,omitempty"`
	ExecutionTime int64           `json:"executionTime,omitempty"`
}

// ExecutionDetail is an Execution plus the nested result payload returned by
// the detail endpoint when full data is requested.
type ExecutionDetail struct {
	Execution

	Data *ExecutionData `json:"data,omitempty"`
}

// ExecutionData holds the nested result section of an execution detail.
type ExecutionData struct {
	ResultData *ResultData `json:"resultData,omitempty"`
}

// ResultData carries the workflow-level error, the per-node run attempts and
// the name of the last node that executed.
type ResultData struct {
	Error            *ExecutionError `json:"error,omitempty"`
	RunData          RunData         `json:"runData"`
	LastNodeExecuted string          `json:"lastNodeExecuted,omitempty"`
}
