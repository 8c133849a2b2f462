package models

import "time"

// Workflow is an immutable snapshot of a workflow as reported by a remote
// instance. Field names follow the remote API's camelCase wire format, which
// is distinct from this service's own snake_case responses.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
