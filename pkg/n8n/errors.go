package n8n

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a remote instance. The full body is
// kept on the error; log sites truncate it themselves.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("n8n API error: status %d", e.Status)
	}

	return fmt.Sprintf("n8n API error: status %d: %s", e.Status, e.Body)
}

// ParseError is a response body that was not valid JSON. Snippet carries the
// leading bytes of the raw text for diagnosis.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON response: %s: %v", e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
