package models

import "time"

// InstanceHealth says whether an instance answered its health probe.
type InstanceHealth string

const (
	InstanceOnline  InstanceHealth = "online"
	InstanceOffline InstanceHealth = "offline"
)

// LastExecution describes the most recent run seen on an instance.
type LastExecution struct {
	ID           string        `json:"id"`
	WorkflowID   string        `json:"workflow_id"`
	WorkflowName string        `json:"workflow_name"`
	Status       DisplayStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
}

// InstanceStatus is the computed fleet-health snapshot for one instance.
// Snapshots are what the status cache stores; everything in here is derived
// from a single polling pass and may be up to the cache TTL old.
type InstanceStatus struct {
	InstanceID    string         `json:"instance_id"`
	Name          string         `json:"name"`
	URL           string         `json:"url"`
	Health        InstanceHealth `json:"health"`
	Workflows     int            `json:"workflows"`
	LastExecution *LastExecution `json:"last_execution,omitempty"`
	Executions24h int            `json:"executions_24h"`
	Failures24h   int            `json:"failures_24h"`
	SuccessRate   float64        `json:"success_rate"`
	LastChecked   time.Time      `json:"last_checked"`
	Error         string         `json:"error,omitempty"`
}

// AnalysisEntry is one stored AI diagnosis of a failed execution. At most one
// entry exists per execution id; a forced refresh replaces it whole.
type AnalysisEntry struct {
	ExecutionID  string    `json:"execution_id"`
	InstanceID   string    `json:"instance_id"`
	Analysis     string    `json:"analysis"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
