package webhook

import (
	"errors"
	"fmt"
	"time"
)

var ErrValidation = errors.New("validation error")

// ValidationError reports a missing or invalid field of a request.
// It is raised before any network access.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HTTPError represents a HTTP error, e.g. 400 Bad Request
type HTTPError struct {
	Status  int
	Message string
}

func (e HTTPError) Error() string {
	return e.Message
}

// TooManyRequestsError represents a 429 response from Discord.
// Requests are never retried. It is up to the caller to wait and try again.
type TooManyRequestsError struct {
	RetryAfter time.Duration
	Global     bool
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests. Retry After %v", e.RetryAfter)
}
