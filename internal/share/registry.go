// Package share keeps the current user's view of tasks shared with them.
package share

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"todocal/internal/service"
	"todocal/internal/session"
)

// Source is the backend surface the registry needs.
type Source interface {
	FetchShares(ctx context.Context, userID int64) ([]service.ShareRecord, error)
	RespondToShare(ctx context.Context, shareID int64, decision service.ShareStatus) error
}

// Registry holds the share records addressed to the session user.
// Contents are only ever replaced wholesale by Refresh.
type Registry struct {
	src Source
	log *slog.Logger

	mu       sync.RWMutex
	records  []service.ShareRecord
	inflight map[int64]struct{}
	// gen counts successful writes; a fetch started under an older gen is stale.
	gen uint64

	group singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry(src Source, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		src:      src,
		log:      log,
		inflight: make(map[int64]struct{}),
	}
}

// Refresh refetches the user's shares and replaces the registry contents.
// Backend failures are logged and leave the registry empty; they are never returned.
// Concurrent calls for the same user share one fetch.
func (r *Registry) Refresh(ctx context.Context, sess *session.Session) []service.ShareRecord {
	return r.refresh(ctx, sess, true)
}

// refresh fetches and replaces the records. With coalesce unset the fetch never
// joins one already in flight, so it is guaranteed to start after any prior write.
// Results of fetches that began before a later write are discarded.
func (r *Registry) refresh(ctx context.Context, sess *session.Session, coalesce bool) []service.ShareRecord {
	if !sess.Authenticated() {
		r.replace(nil)
		return nil
	}

	gen := r.generation()
	var fetched []service.ShareRecord
	var err error
	if coalesce {
		var v any
		v, err, _ = r.group.Do(strconv.FormatInt(sess.UserID, 10), func() (any, error) {
			return r.src.FetchShares(ctx, sess.UserID)
		})
		if err == nil {
			fetched = v.([]service.ShareRecord)
		}
	} else {
		fetched, err = r.src.FetchShares(ctx, sess.UserID)
	}
	if err != nil {
		r.log.Warn("share refresh failed", "user_id", sess.UserID, "error", err)
		r.replaceIf(gen, nil)
		return r.Records()
	}

	records := make([]service.ShareRecord, 0, len(fetched))
	for _, rec := range fetched {
		if rec.SharedWithID != sess.UserID {
			r.log.Warn("dropping share addressed to another user", "share_id", rec.ID, "shared_with", rec.SharedWithID)
			continue
		}
		if !rec.Status.Valid() {
			r.log.Warn("dropping share with unknown status", "share_id", rec.ID, "status", rec.Status)
			continue
		}
		records = append(records, rec)
	}
	r.replaceIf(gen, records)
	return r.Records()
}

func (r *Registry) generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// replaceIf replaces the records unless a write happened after gen was read.
func (r *Registry) replaceIf(gen uint64, records []service.ShareRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		r.log.Debug("discarding share fetch started before a write", "gen", gen)
		return
	}
	r.swapLocked(records)
}

func (r *Registry) replace(records []service.ShareRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapLocked(records)
}

func (r *Registry) swapLocked(records []service.ShareRecord) {
	prev := make(map[int64]service.ShareStatus, len(r.records))
	for _, rec := range r.records {
		prev[rec.ID] = rec.Status
	}
	for _, rec := range records {
		old, ok := prev[rec.ID]
		if ok && old != rec.Status && !service.CanTransition(old, rec.Status) {
			r.log.Warn("backend reported regressive share transition", "share_id", rec.ID, "from", old, "to", rec.Status)
		}
	}
	r.records = records
}

// Records returns a copy of every record in fetch order.
func (r *Registry) Records() []service.ShareRecord {
	return r.filter(func(service.ShareRecord) bool { return true })
}

// Pending returns the records still awaiting a decision.
func (r *Registry) Pending() []service.ShareRecord {
	return r.filter(func(rec service.ShareRecord) bool { return rec.Status == service.StatusPending })
}

// Accepted returns the records the user has accepted.
func (r *Registry) Accepted() []service.ShareRecord {
	return r.filter(func(rec service.ShareRecord) bool { return rec.Status == service.StatusAccepted })
}

// Get returns a record by share id.
func (r *Registry) Get(shareID int64) (service.ShareRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID == shareID {
			return rec, true
		}
	}
	return service.ShareRecord{}, false
}

func (r *Registry) filter(keep func(service.ShareRecord) bool) []service.ShareRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []service.ShareRecord
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Respond accepts or rejects a pending share, then refreshes the registry.
// On failure the local record is left untouched and the error is returned.
func (r *Registry) Respond(ctx context.Context, sess *session.Session, shareID int64, decision service.ShareStatus) error {
	if !sess.Authenticated() {
		return service.ErrNotLoggedIn
	}
	if decision != service.StatusAccepted && decision != service.StatusRejected {
		return fmt.Errorf("%w: %q", service.ErrInvalidDecision, decision)
	}
	rec, ok := r.Get(shareID)
	if !ok {
		return fmt.Errorf("%w: %d", service.ErrUnknownShare, shareID)
	}
	if !service.CanTransition(rec.Status, decision) {
		return fmt.Errorf("%w: share %d is %s", service.ErrNotPending, shareID, rec.Status)
	}

	if !r.begin(shareID) {
		return fmt.Errorf("%w: %d", service.ErrResponseInFlight, shareID)
	}
	defer r.end(shareID)

	if err := r.src.RespondToShare(ctx, shareID, decision); err != nil {
		return fmt.Errorf("failed to respond to share %d: %w", shareID, err)
	}
	r.log.Debug("share answered", "share_id", shareID, "decision", decision)

	r.mu.Lock()
	r.gen++
	r.mu.Unlock()
	r.refresh(ctx, sess, false)
	return nil
}

func (r *Registry) begin(shareID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[shareID]; busy {
		return false
	}
	r.inflight[shareID] = struct{}{}
	return true
}

func (r *Registry) end(shareID int64) {
	r.mu.Lock()
	delete(r.inflight, shareID)
	r.mu.Unlock()
}
