// Package planner wires the share registry, agenda and notifications for one session.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"todocal/internal/agenda"
	"todocal/internal/notify"
	"todocal/internal/service"
	"todocal/internal/session"
	"todocal/internal/share"
)

// Planner is the session-scoped view of the user's calendar.
type Planner struct {
	svc  service.Service
	sess *session.Session
	log  *slog.Logger

	registry *share.Registry
	agenda   *agenda.Aggregator
	notify   *notify.Reconciler

	mu      sync.RWMutex
	own     []service.Task
	display *agenda.DisplayTaskSet
}

// New creates a Planner. Nothing is fetched until Reload.
func New(svc service.Service, sess *session.Session, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Planner{
		svc:      svc,
		sess:     sess,
		log:      log,
		registry: share.NewRegistry(svc, log),
		agenda:   agenda.New(svc, log),
		display:  agenda.NewDisplayTaskSet(nil),
	}
	p.notify = notify.New(p.registry, svc, p)
	return p
}

// Reload fetches own tasks and refreshes the share registry, then rebuilds.
// Only the own-task fetch can fail; share failures degrade to no shares.
func (p *Planner) Reload(ctx context.Context) error {
	if !p.sess.Authenticated() {
		return service.ErrNotLoggedIn
	}

	var own []service.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		own, err = p.svc.FetchOwnTasks(gctx, p.sess.UserID)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		p.registry.Refresh(gctx, p.sess)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	p.mu.Lock()
	p.own = own
	p.mu.Unlock()

	p.Rebuild(ctx)
	p.notify.Recompute()
	return nil
}

// reloadAfterWrite rereads after a committed write. A failed reread leaves the
// previous view in place and is only logged; the write itself succeeded.
func (p *Planner) reloadAfterWrite(ctx context.Context, op string, taskID int64) {
	if err := p.Reload(ctx); err != nil {
		p.log.Warn("reload after write failed", "op", op, "task_id", taskID, "error", err)
	}
}

// Rebuild recomputes the displayed task set from the cached own tasks and the registry.
func (p *Planner) Rebuild(ctx context.Context) {
	p.mu.RLock()
	own := p.own
	p.mu.RUnlock()

	set := p.agenda.Rebuild(ctx, own, p.registry.Accepted())

	p.mu.Lock()
	p.display = set
	p.mu.Unlock()
	p.log.Debug("agenda rebuilt", "own", len(own), "total", set.Len())
}

// Display returns the current DisplayTaskSet.
func (p *Planner) Display() *agenda.DisplayTaskSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.display
}

// Notifications returns the invitation reconciler.
func (p *Planner) Notifications() *notify.Reconciler {
	return p.notify
}

// Registry returns the share registry.
func (p *Planner) Registry() *share.Registry {
	return p.registry
}

// Session returns the session the planner works for.
func (p *Planner) Session() *session.Session {
	return p.sess
}

// Invitation finds a share addressed to the user by id.
func (p *Planner) Invitation(shareID int64) (service.ShareRecord, error) {
	rec, ok := p.registry.Get(shareID)
	if !ok {
		return service.ShareRecord{}, fmt.Errorf("%w: %d", service.ErrUnknownShare, shareID)
	}
	return rec, nil
}

// Task returns a displayed task by id.
func (p *Planner) Task(id int64) (service.Task, error) {
	t, ok := p.Display().Get(id)
	if !ok {
		return service.Task{}, fmt.Errorf("%w: task %d", service.ErrNotFound, id)
	}
	return t, nil
}

// owned returns an own task by id.
func (p *Planner) owned(id int64) (service.Task, error) {
	display := p.Display()
	t, ok := display.Get(id)
	if !ok {
		return service.Task{}, fmt.Errorf("%w: task %d", service.ErrNotFound, id)
	}
	if display.Shared(id) || t.OwnerID != p.sess.UserID {
		return service.Task{}, fmt.Errorf("%w: task %d", service.ErrNotOwner, id)
	}
	return t, nil
}

// CreateTask creates a task owned by the session user.
func (p *Planner) CreateTask(ctx context.Context, draft service.TaskDraft) (service.Task, error) {
	if !p.sess.Authenticated() {
		return service.Task{}, service.ErrNotLoggedIn
	}
	if err := draft.Validate(); err != nil {
		return service.Task{}, err
	}
	task, err := p.svc.CreateTask(ctx, p.sess.UserID, draft)
	if err != nil {
		return service.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	p.reloadAfterWrite(ctx, "create", task.ID)
	return task, nil
}

// EditTask applies a patch to an own task.
func (p *Planner) EditTask(ctx context.Context, id int64, patch service.TaskPatch) (service.Task, error) {
	t, err := p.owned(id)
	if err != nil {
		return service.Task{}, err
	}
	updated, err := patch.Apply(t)
	if err != nil {
		return service.Task{}, err
	}
	if err := p.svc.UpdateTask(ctx, updated); err != nil {
		return service.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	p.reloadAfterWrite(ctx, "update", id)
	return updated, nil
}

// SetDone marks an own task done or not done.
func (p *Planner) SetDone(ctx context.Context, id int64, done bool) (service.Task, error) {
	return p.EditTask(ctx, id, service.TaskPatch{IsDone: &done})
}

// DeleteTask deletes an own task.
func (p *Planner) DeleteTask(ctx context.Context, id int64) (service.Task, error) {
	t, err := p.owned(id)
	if err != nil {
		return service.Task{}, err
	}
	if err := p.svc.DeleteTask(ctx, id); err != nil {
		return service.Task{}, fmt.Errorf("failed to delete task: %w", err)
	}
	p.reloadAfterWrite(ctx, "delete", id)
	return t, nil
}

// Share invites another user to an own task.
func (p *Planner) Share(ctx context.Context, taskID, userID int64) error {
	t, err := p.owned(taskID)
	if err != nil {
		return err
	}
	if userID == t.OwnerID {
		return service.ErrSelfShare
	}
	if err := p.svc.CreateShare(ctx, taskID, userID); err != nil {
		if errors.Is(err, service.ErrConflict) {
			return fmt.Errorf("%w: %w", service.ErrDuplicateShare, err)
		}
		return fmt.Errorf("failed to share task: %w", err)
	}
	return nil
}

// Accept accepts the invitation with the given share id.
func (p *Planner) Accept(ctx context.Context, shareID int64) (service.ShareRecord, error) {
	rec, err := p.Invitation(shareID)
	if err != nil {
		return service.ShareRecord{}, err
	}
	return rec, p.notify.Accept(ctx, p.sess, rec)
}

// Decline rejects the invitation with the given share id.
func (p *Planner) Decline(ctx context.Context, shareID int64) (service.ShareRecord, error) {
	rec, err := p.Invitation(shareID)
	if err != nil {
		return service.ShareRecord{}, err
	}
	return rec, p.notify.Decline(ctx, p.sess, rec)
}
