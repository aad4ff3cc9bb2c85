package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Backend failure classes.
var (
	// ErrNetwork means the request did not complete.
	ErrNetwork = errors.New("network failure")
	// ErrMalformedResponse means the response did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotFound means the backend has no such resource.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the session token was missing, expired or revoked.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict means the backend refused a write that clashes with existing state.
	ErrConflict = errors.New("conflict")
)

// Client-side rule violations.
var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrInvalidTask      = errors.New("invalid task")
	ErrNotOwner         = errors.New("task is not owned by you")
	ErrSelfShare        = errors.New("cannot share a task with yourself")
	ErrDuplicateShare   = errors.New("task is already shared with that user")
	ErrUnknownShare     = errors.New("share not found")
	ErrNotPending       = errors.New("share is not pending")
	ErrInvalidDecision  = errors.New("invalid share decision")
	ErrResponseInFlight = errors.New("a response to this share is already in progress")
)

// RejectionError is a non-success HTTP status with the backend's error payload.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend rejected request: %d %s", e.StatusCode, e.Message)
}

// Is maps well-known statuses onto the sentinel errors.
func (e *RejectionError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}
