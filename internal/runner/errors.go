package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrWarmup is returned when a seeding request fails before the measured window.
	ErrWarmup = errors.New("warm-up failed")
	// ErrWorkerPanic is returned when a worker goroutine panics during a run.
	ErrWorkerPanic = errors.New("worker panicked")
)

// HTTPError represents a response outside the 2xx class.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
