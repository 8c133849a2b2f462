// Package web provides HTTP request and response types for the fleet
// dashboard API.
package web

import (
	"github.com/flowcommand/flowcommand/pkg/models"
)

// CreateInstanceRequest registers a new monitored instance. The id is
// optional; one is generated when omitted.
type CreateInstanceRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"    validate:"required,min=1"`
	URL    string `json:"url"     validate:"required,url"`
	APIKey string `json:"api_key" validate:"required"`
}

// InstanceResponse is an instance record without its credential. API keys go
// in, they do not come back out.
type InstanceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TransformInstanceResponse strips the credential from an instance record.
func TransformInstanceResponse(instance *models.Instance) InstanceResponse {
	return InstanceResponse{
		ID:   instance.ID,
		Name: instance.Name,
		URL:  instance.URL,
	}
}

// AnalyzeRequest holds the options for an analysis call.
type AnalyzeRequest struct {
	Force bool `json:"force"`
}

// ExecutionWindowResponse is the per-instance execution history view.
type ExecutionWindowResponse struct {
	Executions []models.Execution     `json:"executions"`
	Stats      *models.InstanceStatus `json:"stats"`
}

// ExecutionDetailResponse pairs an execution's full detail with the failure
// the extractor surfaced for it.
type ExecutionDetailResponse struct {
	Execution  *models.ExecutionDetail `json:"execution"`
	FailedNode string                  `json:"failed_node,omitempty"`
	Error      *models.ExecutionError  `json:"error,omitempty"`
}
