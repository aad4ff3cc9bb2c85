// Package notify tracks pending share invitations and applies the user's answers.
package notify

import (
	"context"
	"fmt"
	"sync"

	"todocal/internal/service"
	"todocal/internal/session"
)

// Registry is the share state the reconciler reads and answers through.
type Registry interface {
	Pending() []service.ShareRecord
	Respond(ctx context.Context, sess *session.Session, shareID int64, decision service.ShareStatus) error
}

// TaskFetcher resolves the task behind a single invitation.
type TaskFetcher interface {
	FetchTask(ctx context.Context, id int64) (service.Task, error)
}

// Rebuilder recomputes the displayed task set from the current registry.
type Rebuilder interface {
	Rebuild(ctx context.Context)
}

// Reconciler keeps the badge count in step with the registry.
type Reconciler struct {
	registry Registry
	tasks    TaskFetcher
	agenda   Rebuilder

	mu    sync.Mutex
	badge int
}

// New creates a Reconciler.
func New(registry Registry, tasks TaskFetcher, agenda Rebuilder) *Reconciler {
	return &Reconciler{registry: registry, tasks: tasks, agenda: agenda}
}

// Recompute sets the badge to the current pending count and returns it.
// Call it after every registry refresh.
func (r *Reconciler) Recompute() int {
	n := len(r.registry.Pending())
	r.mu.Lock()
	r.badge = n
	r.mu.Unlock()
	return n
}

// BadgeCount returns the count computed by the last Recompute.
func (r *Reconciler) BadgeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.badge
}

// Pending returns the invitations awaiting an answer.
func (r *Reconciler) Pending() []service.ShareRecord {
	return r.registry.Pending()
}

// Select returns the task behind a pending invitation.
func (r *Reconciler) Select(ctx context.Context, rec service.ShareRecord) (service.Task, error) {
	if rec.Status != service.StatusPending {
		return service.Task{}, fmt.Errorf("%w: share %d is %s", service.ErrNotPending, rec.ID, rec.Status)
	}
	task, err := r.tasks.FetchTask(ctx, rec.TaskID)
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to load task %d: %w", rec.TaskID, err)
	}
	return task, nil
}

// Accept accepts an invitation.
func (r *Reconciler) Accept(ctx context.Context, sess *session.Session, rec service.ShareRecord) error {
	return r.answer(ctx, sess, rec, service.StatusAccepted)
}

// Decline rejects an invitation.
func (r *Reconciler) Decline(ctx context.Context, sess *session.Session, rec service.ShareRecord) error {
	return r.answer(ctx, sess, rec, service.StatusRejected)
}

// answer runs respond (which refreshes the registry), then rebuild, then recompute.
func (r *Reconciler) answer(ctx context.Context, sess *session.Session, rec service.ShareRecord, decision service.ShareStatus) error {
	if err := r.registry.Respond(ctx, sess, rec.ID, decision); err != nil {
		return err
	}
	r.agenda.Rebuild(ctx)
	r.Recompute()
	return nil
}
