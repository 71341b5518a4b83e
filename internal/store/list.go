package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"storefront/internal/model"
	"storefront/internal/reconcile"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_mutations_total",
			Help: "Optimistic list mutations by list, operation and outcome",
		},
		[]string{"list", "op", "outcome"},
	)

	rollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_list_rollbacks_total",
			Help: "Optimistic mutations reverted after the server rejected them",
		},
		[]string{"list", "op"},
	)
)

// errUnchanged lets a build func accept a mutation as a no-op.
var errUnchanged = errors.New("unchanged")

// entry is one list slot. Tombstoned entries (pending-delete) stay in place
// while their removal is in flight so a rollback restores the position.
type entry[T any] struct {
	item     T
	status   model.ItemStatus
	inflight int
}

// EntryView pairs an item with its sync status.
type EntryView[T any] struct {
	Item   T                `json:"item"`
	Status model.ItemStatus `json:"status"`
}

// listHooks binds a syncList to one kind of remote list.
type listHooks[T any] struct {
	kind   ListKind
	idOf   func(T) string
	lines  func([]T) []reconcile.Line
	fetch  func(ctx context.Context) ([]T, error)
	remove func(ctx context.Context, id string) error
	// merge folds the server's canonical item into the optimistic one.
	merge func(local T, canonical *T) T
}

// pendingCleanup is a product left in this list by a half-finished transfer.
// stillElsewhere reports whether the destination list still holds it.
type pendingCleanup struct {
	stillElsewhere func(productID string) bool
}

// syncList is the optimistic, server-reconciled list shared by Cart and Wishlist.
//
// Locking: keys serializes mutations per product id and is always taken
// before mu; mu guards entries and is never held across a remote call.
type syncList[T any] struct {
	hooks  listHooks[T]
	events *Broadcaster
	logger *slog.Logger

	keys  keyedMutex
	loads singleflight.Group

	mu       sync.Mutex
	entries  []*entry[T]
	loaded   bool
	cleanups map[string]pendingCleanup
}

func newSyncList[T any](hooks listHooks[T], events *Broadcaster, logger *slog.Logger) *syncList[T] {
	if events == nil {
		events = NewBroadcaster()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &syncList[T]{
		hooks:    hooks,
		events:   events,
		logger:   logger.With(slog.String("list", string(hooks.kind))),
		cleanups: make(map[string]pendingCleanup),
	}
}

// === Reads ===

// items returns the visible entries in order.
func (l *syncList[T]) items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, 0, len(l.entries))
	for _, e := range l.entries {
		if e.status != model.StatusPendingDelete {
			out = append(out, e.item)
		}
	}
	return out
}

// views returns visible entries with their status.
func (l *syncList[T]) views() []EntryView[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EntryView[T], 0, len(l.entries))
	for _, e := range l.entries {
		if e.status != model.StatusPendingDelete {
			out = append(out, EntryView[T]{Item: e.item, Status: e.status})
		}
	}
	return out
}

func (l *syncList[T]) get(id string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, _ := l.find(id); e != nil && e.status != model.StatusPendingDelete {
		return e.item, true
	}
	var zero T
	return zero, false
}

// status reports the sync state of id, including hidden pending deletes.
func (l *syncList[T]) status(id string) (model.ItemStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, _ := l.find(id); e != nil {
		return e.status, true
	}
	return "", false
}

func (l *syncList[T]) isLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// find returns the entry for id and its index. Caller holds mu.
func (l *syncList[T]) find(id string) (*entry[T], int) {
	for i, e := range l.entries {
		if l.hooks.idOf(e.item) == id {
			return e, i
		}
	}
	return nil, -1
}

// drop removes e by identity. Caller holds mu.
func (l *syncList[T]) drop(e *entry[T]) {
	for i, cur := range l.entries {
		if cur == e {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// === Load ===

// load replaces the list with the server's. Concurrent calls share one fetch.
// Entries with a mutation in flight keep their local state; that mutation
// settles them. On failure the list is left as it was.
func (l *syncList[T]) load(ctx context.Context) error {
	v, err, _ := l.loads.Do("load", func() (any, error) {
		return l.hooks.fetch(ctx)
	})
	if err != nil {
		l.notifyError("", fmt.Errorf("loading %s: %w", l.hooks.kind, err))
		return err
	}
	server := v.([]T)

	l.mu.Lock()
	before := l.visibleLocked()

	byID := make(map[string]*entry[T], len(l.entries))
	for _, e := range l.entries {
		byID[l.hooks.idOf(e.item)] = e
	}

	next := make([]*entry[T], 0, len(server))
	placed := make(map[string]bool, len(server))
	for _, item := range server {
		id := l.hooks.idOf(item)
		if placed[id] {
			continue
		}
		placed[id] = true
		if cur, ok := byID[id]; ok && cur.inflight > 0 {
			next = append(next, cur)
			continue
		}
		next = append(next, &entry[T]{item: item, status: model.StatusConfirmed})
	}
	// In-flight entries the server does not know yet stay until their call settles.
	for _, e := range l.entries {
		if id := l.hooks.idOf(e.item); !placed[id] && e.inflight > 0 {
			next = append(next, e)
		}
	}
	l.entries = next
	l.loaded = true
	after := l.visibleLocked()
	due := l.claimCleanupsLocked()
	l.mu.Unlock()

	diff := reconcile.DiffLines(l.hooks.lines(before), l.hooks.lines(after))
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventLoaded})
	for _, id := range diff.Added {
		l.events.Publish(Event{List: l.hooks.kind, Kind: EventAdded, ProductID: id, Status: model.StatusConfirmed})
	}
	for _, ch := range diff.Changed {
		l.events.Publish(Event{List: l.hooks.kind, Kind: EventChanged, ProductID: ch.ProductID, Status: model.StatusConfirmed})
	}
	for _, id := range diff.Removed {
		l.events.Publish(Event{List: l.hooks.kind, Kind: EventDropped, ProductID: id})
	}

	l.runCleanups(ctx, due, server)
	return nil
}

// visibleLocked returns visible items. Caller holds mu.
func (l *syncList[T]) visibleLocked() []T {
	out := make([]T, 0, len(l.entries))
	for _, e := range l.entries {
		if e.status != model.StatusPendingDelete {
			out = append(out, e.item)
		}
	}
	return out
}

// === Mutations ===

// buildFunc computes the optimistic item from the current one.
// Returning errUnchanged accepts the call without touching the server.
type buildFunc[T any] func(current T, exists bool) (T, error)

// upsertFunc performs the remote write. A nil item means "keep the optimistic one".
type upsertFunc[T any] func(ctx context.Context, next T, existed bool) (*T, error)

// upsert applies build optimistically, runs call, then confirms or rolls back.
func (l *syncList[T]) upsert(ctx context.Context, op, id string, build buildFunc[T], call upsertFunc[T]) (T, error) {
	var zero T
	unlock, err := l.keys.Lock(ctx, id)
	if err != nil {
		return zero, err
	}
	defer unlock()

	l.mu.Lock()
	e, _ := l.find(id)
	existed := e != nil && e.status != model.StatusPendingDelete
	var current T
	if existed {
		current = e.item
	}
	next, err := build(current, existed)
	if errors.Is(err, errUnchanged) {
		l.mu.Unlock()
		return current, nil
	}
	if err != nil {
		l.mu.Unlock()
		return zero, err
	}

	var prev entry[T]
	if existed {
		prev = *e
		e.item = next
		e.status = model.StatusPendingUpsert
		e.inflight++
	} else {
		e = &entry[T]{item: next, status: model.StatusPendingUpsert, inflight: 1}
		l.entries = append(l.entries, e)
	}
	l.mu.Unlock()
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventPending, ProductID: id, Status: model.StatusPendingUpsert})

	canonical, callErr := call(ctx, next, existed)

	l.mu.Lock()
	e.inflight--
	if callErr != nil {
		if existed {
			e.item = prev.item
			e.status = prev.status
		} else {
			l.drop(e)
		}
		l.mu.Unlock()
		l.rolledBack(op, id, callErr)
		return zero, callErr
	}
	e.item = l.hooks.merge(next, canonical)
	if e.inflight == 0 {
		e.status = model.StatusConfirmed
	}
	result := e.item
	l.mu.Unlock()

	mutationsTotal.WithLabelValues(string(l.hooks.kind), op, "ok").Inc()
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventConfirmed, ProductID: id, Status: model.StatusConfirmed})
	return result, nil
}

// remove hides id immediately, deletes it remotely, and restores it in place
// if the server refuses. Removing an absent id fails with NotFoundError
// unless missingOK is set.
func (l *syncList[T]) remove(ctx context.Context, op, id string, missingOK bool) error {
	unlock, err := l.keys.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	l.mu.Lock()
	e, _ := l.find(id)
	if e == nil || e.status == model.StatusPendingDelete {
		l.mu.Unlock()
		if missingOK {
			return nil
		}
		return model.NewNotFoundError(string(l.hooks.kind) + " item")
	}
	prevStatus := e.status
	e.status = model.StatusPendingDelete
	e.inflight++
	l.mu.Unlock()
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventPending, ProductID: id, Status: model.StatusPendingDelete})

	callErr := l.hooks.remove(ctx, id)

	l.mu.Lock()
	e.inflight--
	if callErr != nil {
		e.status = prevStatus
		l.mu.Unlock()
		l.rolledBack(op, id, callErr)
		return callErr
	}
	l.drop(e)
	l.mu.Unlock()

	mutationsTotal.WithLabelValues(string(l.hooks.kind), op, "ok").Inc()
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventRemoved, ProductID: id})
	return nil
}

func (l *syncList[T]) rolledBack(op, id string, err error) {
	mutationsTotal.WithLabelValues(string(l.hooks.kind), op, "rolled_back").Inc()
	rollbacksTotal.WithLabelValues(string(l.hooks.kind), op).Inc()
	l.logger.Warn("mutation rolled back",
		slog.String("op", op),
		slog.String("product_id", id),
		slog.Any("error", err),
	)
	l.events.Publish(Event{List: l.hooks.kind, Kind: EventRolledBack, ProductID: id, Status: model.StatusConfirmed})
	l.notifyError(id, err)
}

// notifyError publishes the shopper-facing toast for err.
func (l *syncList[T]) notifyError(id string, err error) {
	l.events.Publish(Event{
		List:      l.hooks.kind,
		Kind:      EventError,
		ProductID: id,
		Message:   model.UserMessage(err),
		Err:       err,
	})
}

// === Transfer compensation ===

// scheduleCleanup remembers that id should leave this list once the
// destination is confirmed to hold it.
func (l *syncList[T]) scheduleCleanup(id string, stillElsewhere func(string) bool) {
	l.mu.Lock()
	l.cleanups[id] = pendingCleanup{stillElsewhere: stillElsewhere}
	l.mu.Unlock()
}

func (l *syncList[T]) pendingCleanups() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.cleanups))
	for id := range l.cleanups {
		out = append(out, id)
	}
	return out
}

// claimCleanupsLocked takes every scheduled cleanup. Caller holds mu.
func (l *syncList[T]) claimCleanupsLocked() map[string]pendingCleanup {
	if len(l.cleanups) == 0 {
		return nil
	}
	due := l.cleanups
	l.cleanups = make(map[string]pendingCleanup)
	return due
}

// runCleanups removes products the server still lists here and the
// destination still holds. Failures are rescheduled for the next load.
func (l *syncList[T]) runCleanups(ctx context.Context, due map[string]pendingCleanup, server []T) {
	if len(due) == 0 {
		return
	}
	ids := make([]string, 0, len(due))
	for id := range due {
		ids = append(ids, id)
	}
	for _, id := range reconcile.Common(ids, l.hooks.lines(server)) {
		pc := due[id]
		if !pc.stillElsewhere(id) {
			continue
		}
		err := l.remove(ctx, "transfer_cleanup", id, true)
		if err != nil {
			l.logger.Warn("transfer cleanup failed, will retry on next load",
				slog.String("product_id", id),
				slog.Any("error", err),
			)
			l.scheduleCleanup(id, pc.stillElsewhere)
			continue
		}
		compensationsTotal.WithLabelValues("cleaned_on_load").Inc()
	}
}
