package grid

import (
	"context"
	"io"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/picobrain/console/pkg/authz"
)

// Handlers are the caller-supplied mutation and export collaborators for
// one collection.
type Handlers[T any] struct {
	Create func(ctx context.Context, data any) (T, error)
	Update func(ctx context.Context, id string, patch any) (T, error)
	Delete func(ctx context.Context, id string) error
	Export func(ctx context.Context, rows []T) error
}

// BulkAction is a named action over the currently selected rows.
// Permission is the matrix action it is gated by; Destructive actions
// require confirmation like deletes do.
type BulkAction[T any] struct {
	Name        string
	Permission  string
	Destructive bool
	Run         func(ctx context.Context, rows []T) error
}

// PendingAction is a queued destructive intent awaiting confirmation. It is
// destroyed on Confirm (executes) or Cancel (discarded). Action is the
// display name; the matrix permission gating it is carried separately, since
// bulk actions are named freely.
type PendingAction[T any] struct {
	ID     string
	Action string
	// Rows are the records the action will affect, resolved when the
	// action was requested.
	Rows []T

	permission string
	run        func(ctx context.Context) error
}

// Dispatcher maps grid-level intents to the collaborator handlers, gating
// each by the authorization evaluator and, for destructive actions, by an
// explicit confirmation step.
type Dispatcher[T any] struct {
	mu        sync.Mutex
	evaluator *authz.Evaluator
	identity  func() authz.Identity
	resource  string
	ctrl      *Controller[T]
	handlers  Handlers[T]
	bulk      map[string]BulkAction[T]
	pending   map[string]*PendingAction[T]
	logger    *slog.Logger
}

// DispatcherOption mutates Dispatcher construction.
type DispatcherOption[T any] func(*Dispatcher[T])

// WithDispatcherLogger attaches a structured logger.
func WithDispatcherLogger[T any](logger *slog.Logger) DispatcherOption[T] {
	return func(d *Dispatcher[T]) { d.logger = logger }
}

// WithBulkAction registers a named bulk action.
func WithBulkAction[T any](action BulkAction[T]) DispatcherOption[T] {
	return func(d *Dispatcher[T]) { d.bulk[action.Name] = action }
}

// NewDispatcher builds the dispatcher for one controller. resource is the
// authorization resource name of the collection; identity yields the
// current signed-in identity at check time, so a role change after login is
// honored.
func NewDispatcher[T any](ctrl *Controller[T], evaluator *authz.Evaluator, identity func() authz.Identity, resource string, handlers Handlers[T], optFns ...DispatcherOption[T]) *Dispatcher[T] {
	d := &Dispatcher[T]{
		evaluator: evaluator,
		identity:  identity,
		resource:  resource,
		ctrl:      ctrl,
		handlers:  handlers,
		bulk:      make(map[string]BulkAction[T]),
		pending:   make(map[string]*PendingAction[T]),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range optFns {
		fn(d)
	}
	return d
}

// Allowed reports whether the action should be offered at all. The same
// check runs again inside each dispatch; this one only decides rendering.
func (d *Dispatcher[T]) Allowed(action string) bool {
	return d.evaluator.Can(d.identity(), d.resource, action)
}

// Create dispatches a create intent.
func (d *Dispatcher[T]) Create(ctx context.Context, data any) (T, error) {
	var zero T
	if !d.Allowed(authz.ActionCreate) {
		return zero, d.denied(authz.ActionCreate)
	}
	record, err := d.handlers.Create(ctx, data)
	if err != nil {
		return zero, err
	}
	d.invalidate()
	return record, nil
}

// Edit dispatches an edit intent for one record.
func (d *Dispatcher[T]) Edit(ctx context.Context, id string, patch any) (T, error) {
	var zero T
	if !d.Allowed(authz.ActionEdit) {
		return zero, d.denied(authz.ActionEdit)
	}
	record, err := d.handlers.Update(ctx, id, patch)
	if err != nil {
		return zero, err
	}
	d.invalidate()
	return record, nil
}

// Delete queues a delete for the row with the given key. The returned
// PendingAction must be confirmed before anything happens.
func (d *Dispatcher[T]) Delete(ctx context.Context, key string) (*PendingAction[T], error) {
	if !d.Allowed(authz.ActionDelete) {
		return nil, d.denied(authz.ActionDelete)
	}
	return d.enqueue(authz.ActionDelete, authz.ActionDelete, nil, func(ctx context.Context) error {
		if err := d.handlers.Delete(ctx, key); err != nil {
			return err
		}
		d.ctrl.PruneSelection(key)
		d.invalidate()
		return nil
	}), nil
}

// Export dispatches an export of the current page's rows.
func (d *Dispatcher[T]) Export(ctx context.Context) error {
	if !d.Allowed(authz.ActionExport) {
		return d.denied(authz.ActionExport)
	}
	return d.handlers.Export(ctx, d.ctrl.Snapshot().Rows)
}

// Bulk dispatches the named bulk action over the currently selected rows,
// resolved against the latest page; keys that dropped out of the page are
// silently excluded. Destructive bulk actions return a PendingAction that
// must be confirmed; others run immediately and return nil.
func (d *Dispatcher[T]) Bulk(ctx context.Context, name string) (*PendingAction[T], error) {
	d.mu.Lock()
	action, ok := d.bulk[name]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("grid: unknown bulk action %q", name)
	}
	if !d.Allowed(action.Permission) {
		return nil, d.denied(action.Permission)
	}
	rows := d.ctrl.SelectedRows()
	run := func(ctx context.Context) error {
		if err := action.Run(ctx, rows); err != nil {
			return err
		}
		d.ctrl.ClearSelection()
		d.invalidate()
		return nil
	}
	if action.Destructive {
		return d.enqueue(name, action.Permission, rows, run), nil
	}
	return nil, run(ctx)
}

// Confirm executes a pending action. On handler failure the grid state is
// left unchanged and the error is surfaced; the pending action is consumed
// either way.
func (d *Dispatcher[T]) Confirm(ctx context.Context, id string) error {
	d.mu.Lock()
	pending, ok := d.pending[id]
	delete(d.pending, id)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("grid: no pending action %q", id)
	}
	// The gating permission is checked again at dispatch time;
	// rendering-time checks are not the authority.
	if !d.Allowed(pending.permission) {
		return d.denied(pending.permission)
	}
	return pending.run(ctx)
}

// Cancel discards a pending action without executing it.
func (d *Dispatcher[T]) Cancel(id string) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}

func (d *Dispatcher[T]) enqueue(action, permission string, rows []T, run func(ctx context.Context) error) *PendingAction[T] {
	pending := &PendingAction[T]{
		ID:         uuid.NewString(),
		Action:     action,
		Rows:       rows,
		permission: permission,
		run:        run,
	}
	d.mu.Lock()
	d.pending[pending.ID] = pending
	d.mu.Unlock()
	return pending
}

// invalidate drops the collection cache and refetches, so the next render
// reflects the mutation.
func (d *Dispatcher[T]) invalidate() {
	d.ctrl.InvalidateCache()
	d.ctrl.Refresh()
}

func (d *Dispatcher[T]) denied(action string) error {
	identity := d.identity()
	d.logger.Debug("action denied", "resource", d.resource, "action", action, "role", identity.Role)
	return fmt.Errorf("grid: role %q may not %s %s", identity.Role, action, d.resource)
}
