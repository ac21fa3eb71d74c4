package model

import (
	"encoding/json"
	"time"
)

// StatusNetworkFailure is the sentinel status code recorded when an
// execution never produced a real HTTP status (DNS failure, refused
// connection, timeout, and so on).
const StatusNetworkFailure = 500

// ValidMethods lists the HTTP methods a request definition may use.
var ValidMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}

// IsValidMethod reports whether method (already upper-cased) is allowed.
func IsValidMethod(method string) bool {
	for _, m := range ValidMethods {
		if method == m {
			return true
		}
	}
	return false
}

// User is an account that owns workspaces.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a bearer-token login session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Workspace is the top-level container, owned by exactly one creator.
type Workspace struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatorID int64     `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection groups request definitions inside a workspace.
type Collection struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RequestDefinition is a stored, reusable description of an HTTP call.
// Headers is the raw JSON text as persisted; use HeaderMap to decode it.
type RequestDefinition struct {
	ID           int64     `json:"id"`
	CollectionID int64     `json:"collection_id"`
	Name         string    `json:"name"`
	Method       string    `json:"method"`
	URL          string    `json:"url"`
	Body         string    `json:"body,omitempty"`
	Headers      string    `json:"headers,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HeaderMap decodes the stored headers JSON. Malformed or empty stored
// headers yield an empty map rather than an error.
func (r *RequestDefinition) HeaderMap() map[string]string {
	return ParseOrDefault(r.Headers, map[string]string{})
}

// Environment is a named configuration set inside a workspace.
type Environment struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Variable is a key/value pair attached to an owner (workspace,
// collection or environment). Variables are not substituted into
// requests at execution time.
type Variable struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	OwnerType string    `json:"owner_type"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// ResponseRecord is the immutable result of one dispatch attempt.
// Headers and Body hold the serialized text exactly as persisted.
type ResponseRecord struct {
	ID             int64     `json:"id"`
	StatusCode     int       `json:"status_code"`
	Headers        string    `json:"headers"`
	Body           string    `json:"body"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// HeaderMap decodes the stored response headers JSON, falling back to
// an empty map on malformed data.
func (r *ResponseRecord) HeaderMap() map[string]string {
	return ParseOrDefault(r.Headers, map[string]string{})
}

// ExecutionRecord is the immutable audit unit linking an acting user,
// a request definition and the response produced by one dispatch.
type ExecutionRecord struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	RequestID  int64     `json:"request_id"`
	ResponseID int64     `json:"response_id"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ExecutionWithResponse is one history row: an execution joined with
// the response columns the history endpoints expose.
type ExecutionWithResponse struct {
	ExecutionRecord
	StatusCode        int       `json:"status_code"`
	Headers           string    `json:"headers"`
	Body              string    `json:"body"`
	ResponseTimeMs    int64     `json:"response_time_ms"`
	ResponseCreatedAt time.Time `json:"response_created_at"`
}

// Pagination describes one page of a history listing. Pages is
// ceil(Total/Limit).
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ParseOrDefault unmarshals raw JSON text into T, returning fallback
// when raw is empty or malformed. The silent fallback is intentional:
// stored headers and bodies come from remote servers and from older
// rows, and a single corrupt value must not make history unreadable.
func ParseOrDefault[T any](raw string, fallback T) T {
	if raw == "" {
		return fallback
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback
	}
	return out
}
