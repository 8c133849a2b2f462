// Package models defines the core domain models for fleet monitoring of
// workflow-automation instances.
package models

import "time"

// Instance is one remote n8n server the fleet dashboard monitors. The API
// credential is attached to every call the client makes on its behalf; the
// monitoring core never mutates an Instance.
type Instance struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"       validate:"required,min=1"`
	URL       string    `json:"url"        validate:"required,url"`
	APIKey    string    `json:"api_key"    validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
