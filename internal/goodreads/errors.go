package goodreads

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates Goodreads answered with HTTP 429
var ErrRateLimited = errors.New("goodreads rate limit exceeded")

// ErrNotFound indicates the requested feed or book page does not exist
var ErrNotFound = errors.New("goodreads resource not found")

// ServerError represents a 5xx answer from Goodreads
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Goodreads server error: HTTP %d", e.StatusCode)
}
