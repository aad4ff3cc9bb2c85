// Package service defines the backend-agnostic types and interface for the calendar backend.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Task represents a single to-do item placed on the calendar.
type Task struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	IsDone      bool
	ImagePath   string
}

// TaskDraft holds the fields a user supplies when creating a task.
type TaskDraft struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	ImagePath   string
}

// Validate checks the draft before it is sent to the backend.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidTask)
	}
	if d.Start.IsZero() {
		return fmt.Errorf("%w: start time required", ErrInvalidTask)
	}
	if d.End.Before(d.Start) {
		return fmt.Errorf("%w: end time is before start time", ErrInvalidTask)
	}
	return nil
}

// TaskPatch carries optional edits; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	IsDone      *bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Start == nil && p.End == nil && p.IsDone == nil
}

// Apply returns a copy of t with the patch applied.
// The result is validated with the same rules as a new task.
func (p TaskPatch) Apply(t Task) (Task, error) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Start != nil {
		t.Start = *p.Start
	}
	if p.End != nil {
		t.End = *p.End
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	draft := TaskDraft{Title: t.Title, Start: t.Start, End: t.End}
	if err := draft.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// ShareStatus is the acceptance state of a share.
type ShareStatus string

const (
	StatusPending  ShareStatus = "Pending"
	StatusAccepted ShareStatus = "Accepted"
	StatusRejected ShareStatus = "Rejected"
)

// Valid reports whether s is one of the known states.
func (s ShareStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ParseShareStatus parses a status name case-insensitively.
func ParseShareStatus(s string) (ShareStatus, error) {
	for _, st := range []ShareStatus{StatusPending, StatusAccepted, StatusRejected} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown share status: %q", s)
}

// CanTransition reports whether a share may move from one state to another.
// Only Pending -> Accepted and Pending -> Rejected are allowed; both targets are terminal.
func CanTransition(from, to ShareStatus) bool {
	return from == StatusPending && (to == StatusAccepted || to == StatusRejected)
}

// ShareRecord is one sharing relationship as seen by the invited user.
type ShareRecord struct {
	ID           int64
	TaskID       int64
	SharedWithID int64
	Status       ShareStatus
	CreatedAt    time.Time
}

// User is the public profile of an account.
type User struct {
	ID       int64
	Username string
}

// LoginResult is returned by a successful credential check.
type LoginResult struct {
	UserID  int64
	Token   string
	Message string
}
