package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/model"
)

// ErrAccessDenied is returned when the acting user is not the creator
// of the workspace owning the request. A workspace that does not exist
// and one owned by someone else produce the same error, so callers
// cannot probe for existence.
var ErrAccessDenied = errors.New("access denied")

// NotFoundError reports a missing resource in the resolution chain.
type NotFoundError struct {
	Resource string // "request", "collection", "response"
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NotFound builds a NotFoundError for the named resource.
func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// NetworkError wraps a transport-level dispatch failure: DNS, refused
// or reset connections, TLS errors, client-side timeouts, malformed
// responses, or a refused destination. HTTP status codes are never a
// NetworkError; they are data.
type NetworkError struct {
	Err     error
	Elapsed time.Duration // measured until the failure was detected
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RecordingError reports that persistence failed after the outbound
// call already happened. Response carries the in-memory capture so the
// caller still learns the outcome it paid a network round trip for.
type RecordingError struct {
	Err      error
	Response *model.ResponseRecord
}

func (e *RecordingError) Error() string {
	return fmt.Sprintf("execution recording failed: %v", e.Err)
}

func (e *RecordingError) Unwrap() error { return e.Err }
