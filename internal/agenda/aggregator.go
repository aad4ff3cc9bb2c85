// Package agenda builds the set of tasks shown to the user.
package agenda

import (
	"context"
	"io"
	"log/slog"

	"todocal/internal/service"
)

// Resolver resolves task ids in one batch.
type Resolver interface {
	FetchTasksByIDs(ctx context.Context, ids []int64) ([]service.Task, error)
}

// DisplayTaskSet is the deduplicated union of own and accepted shared tasks.
// Own tasks come first in fetch order, followed by shared tasks in share order.
type DisplayTaskSet struct {
	tasks  []service.Task
	index  map[int64]int
	shared map[int64]bool
}

// NewDisplayTaskSet builds a set from own tasks only.
func NewDisplayTaskSet(own []service.Task) *DisplayTaskSet {
	s := &DisplayTaskSet{
		index:  make(map[int64]int, len(own)),
		shared: make(map[int64]bool),
	}
	for _, t := range own {
		s.add(t, false)
	}
	return s
}

func (s *DisplayTaskSet) add(t service.Task, shared bool) bool {
	if _, dup := s.index[t.ID]; dup {
		return false
	}
	s.index[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, t)
	if shared {
		s.shared[t.ID] = true
	}
	return true
}

// Tasks returns a copy of the tasks in display order.
func (s *DisplayTaskSet) Tasks() []service.Task {
	if s == nil {
		return nil
	}
	return append([]service.Task(nil), s.tasks...)
}

// Len returns the number of tasks.
func (s *DisplayTaskSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tasks)
}

// Contains reports whether the task is displayed.
func (s *DisplayTaskSet) Contains(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// Get returns a displayed task by id.
func (s *DisplayTaskSet) Get(id int64) (service.Task, bool) {
	if s == nil {
		return service.Task{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return service.Task{}, false
	}
	return s.tasks[i], true
}

// Shared reports whether the task is displayed because of an accepted share.
func (s *DisplayTaskSet) Shared(id int64) bool {
	return s != nil && s.shared[id]
}

// Aggregator merges own tasks with accepted shared tasks.
type Aggregator struct {
	resolver Resolver
	log      *slog.Logger
}

// New creates an Aggregator.
func New(resolver Resolver, log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{resolver: resolver, log: log}
}

// Rebuild resolves the tasks behind accepted shares and unions them with own tasks.
// At most one batch fetch is made, none when there is nothing to resolve.
// If the fetch fails the set holds own tasks only.
func (a *Aggregator) Rebuild(ctx context.Context, own []service.Task, accepted []service.ShareRecord) *DisplayTaskSet {
	set := NewDisplayTaskSet(own)

	var ids []int64
	seen := make(map[int64]bool)
	for _, rec := range accepted {
		if rec.Status != service.StatusAccepted || seen[rec.TaskID] || set.Contains(rec.TaskID) {
			continue
		}
		seen[rec.TaskID] = true
		ids = append(ids, rec.TaskID)
	}
	if len(ids) == 0 {
		return set
	}

	fetched, err := a.resolver.FetchTasksByIDs(ctx, ids)
	if err != nil {
		a.log.Warn("shared task fetch failed", "ids", len(ids), "error", err)
		return set
	}

	byID := make(map[int64]service.Task, len(fetched))
	for _, t := range fetched {
		byID[t.ID] = t
	}
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			a.log.Debug("shared task missing from batch", "task_id", id)
			continue
		}
		set.add(t, true)
	}
	return set
}
