package grid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobrain/console/pkg/authz"
	"github.com/picobrain/console/pkg/sdk"
)

type dispatcherFixture struct {
	ctrl    *Controller[row]
	fetch   *recordingFetch
	updates chan struct{}

	mu       sync.Mutex
	role     string
	deleted  []string
	created  []any
	exported []row
	fail     error
}

func (f *dispatcherFixture) identity() authz.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return authz.Identity{Role: f.role}
}

func (f *dispatcherFixture) setRole(role string) {
	f.mu.Lock()
	f.role = role
	f.mu.Unlock()
}

func (f *dispatcherFixture) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newDispatcherFixture(t *testing.T, role string, optFns ...DispatcherOption[row]) (*dispatcherFixture, *Dispatcher[row]) {
	t.Helper()

	f := &dispatcherFixture{
		updates: make(chan struct{}, 16),
		role:    role,
		fetch: &recordingFetch{
			page: sdk.Page[row]{Items: []row{{ID: "2"}, {ID: "3"}, {ID: "4"}}, Total: 3},
		},
	}
	f.ctrl = NewController("employees", f.fetch.fetch, rowKey, NewCache[row](time.Minute),
		OnUpdate[row](func() { f.updates <- struct{}{} }))
	t.Cleanup(f.ctrl.Close)

	evaluator, err := authz.NewEvaluator()
	require.NoError(t, err)

	handlers := Handlers[row]{
		Create: func(ctx context.Context, data any) (row, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.fail != nil {
				return row{}, f.fail
			}
			f.created = append(f.created, data)
			return row{ID: "9"}, nil
		},
		Update: func(ctx context.Context, id string, patch any) (row, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.fail != nil {
				return row{}, f.fail
			}
			return row{ID: id}, nil
		},
		Delete: func(ctx context.Context, id string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.fail != nil {
				return f.fail
			}
			f.deleted = append(f.deleted, id)
			return nil
		},
		Export: func(ctx context.Context, rows []row) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.exported = rows
			return nil
		},
	}

	d := NewDispatcher(f.ctrl, evaluator, f.identity, authz.ResourceEmployees, handlers, optFns...)

	f.ctrl.Refresh()
	waitUpdate(t, f.updates)
	require.Equal(t, 1, f.fetch.count())
	return f, d
}

func TestDeleteRunsOnlyAfterConfirmation(t *testing.T) {
	f, d := newDispatcherFixture(t, "admin")
	ctx := context.Background()

	f.ctrl.ToggleRowSelection("3")

	pending, err := d.Delete(ctx, "3")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, authz.ActionDelete, pending.Action)

	// Queued, not executed: no handler call, no cache invalidation.
	assert.Empty(t, f.deletedKeys())
	assert.Equal(t, 1, f.fetch.count())

	require.NoError(t, d.Confirm(ctx, pending.ID))
	waitUpdate(t, f.updates)

	assert.Equal(t, []string{"3"}, f.deletedKeys())
	assert.Equal(t, 2, f.fetch.count(), "successful mutation purges the cache and refetches")
	assert.Empty(t, f.ctrl.SelectedRows(), "deleted key pruned from the selection")

	// A pending action is single-use.
	assert.Error(t, d.Confirm(ctx, pending.ID))
}

func TestCancelDiscardsPendingAction(t *testing.T) {
	f, d := newDispatcherFixture(t, "admin")
	ctx := context.Background()

	pending, err := d.Delete(ctx, "3")
	require.NoError(t, err)

	d.Cancel(pending.ID)

	assert.Error(t, d.Confirm(ctx, pending.ID))
	assert.Empty(t, f.deletedKeys())
	assert.Equal(t, 1, f.fetch.count())
}

func TestDeniedActionNeverReachesHandler(t *testing.T) {
	f, d := newDispatcherFixture(t, "finance")
	ctx := context.Background()

	pending, err := d.Delete(ctx, "3")
	assert.Nil(t, pending)
	require.EqualError(t, err, `grid: role "finance" may not delete employees`)

	_, err = d.Create(ctx, map[string]string{"first_name": "Ada"})
	assert.Error(t, err)

	assert.Empty(t, f.deletedKeys())
	assert.Empty(t, f.created)
	assert.Equal(t, 1, f.fetch.count(), "denied intents do not touch the cache")
}

func TestConfirmRechecksPermission(t *testing.T) {
	f, d := newDispatcherFixture(t, "admin")
	ctx := context.Background()

	pending, err := d.Delete(ctx, "3")
	require.NoError(t, err)

	// Role downgraded between rendering the dialog and confirming it.
	f.setRole("readonly")

	err = d.Confirm(ctx, pending.ID)
	require.Error(t, err)
	assert.Empty(t, f.deletedKeys(), "dispatch-time check is the authority, not the rendering-time one")
}

func TestMutationFailureLeavesGridUntouched(t *testing.T) {
	f, d := newDispatcherFixture(t, "admin")
	ctx := context.Background()

	f.ctrl.ToggleRowSelection("3")
	f.mu.Lock()
	f.fail = assert.AnError
	f.mu.Unlock()

	pending, err := d.Delete(ctx, "3")
	require.NoError(t, err)
	require.ErrorIs(t, d.Confirm(ctx, pending.ID), assert.AnError)

	assert.Equal(t, 1, f.fetch.count(), "failed mutation invalidates nothing")
	assert.Len(t, f.ctrl.SelectedRows(), 1, "selection survives a failed delete")

	_, err = d.Create(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, 1, f.fetch.count())
}

func TestCreateAndEditInvalidate(t *testing.T) {
	f, d := newDispatcherFixture(t, "admin")
	ctx := context.Background()

	record, err := d.Create(ctx, map[string]string{"first_name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "9", record.ID)
	waitUpdate(t, f.updates)
	assert.Equal(t, 2, f.fetch.count())

	record, err = d.Edit(ctx, "3", map[string]string{"is_active": "false"})
	require.NoError(t, err)
	assert.Equal(t, "3", record.ID)
	waitUpdate(t, f.updates)
	assert.Equal(t, 3, f.fetch.count())
}

func TestExportSendsCurrentRows(t *testing.T) {
	f, d := newDispatcherFixture(t, "manager")

	require.NoError(t, d.Export(context.Background()))
	assert.Len(t, f.exported, 3)
	assert.Equal(t, 1, f.fetch.count(), "export is not a mutation and invalidates nothing")
}

func TestBulkResolvesSelectionAgainstLatestPage(t *testing.T) {
	var got []row
	run := func(ctx context.Context, rows []row) error {
		got = rows
		return nil
	}
	f, d := newDispatcherFixture(t, "admin", WithBulkAction(BulkAction[row]{
		Name:        "deactivate",
		Permission:  authz.ActionEdit,
		Destructive: true,
		Run:         run,
	}))
	ctx := context.Background()

	f.ctrl.ToggleRowSelection("1")
	f.ctrl.ToggleRowSelection("2")
	f.ctrl.ToggleRowSelection("3")

	pending, err := d.Bulk(ctx, "deactivate")
	require.NoError(t, err)
	require.NotNil(t, pending, "destructive bulk actions wait for confirmation")
	require.Len(t, pending.Rows, 2, "selected keys missing from the page are dropped")
	assert.Equal(t, "2", pending.Rows[0].ID)
	assert.Equal(t, "3", pending.Rows[1].ID)

	require.NoError(t, d.Confirm(ctx, pending.ID))
	waitUpdate(t, f.updates)

	assert.Equal(t, pending.Rows, got)
	assert.Empty(t, f.ctrl.SelectedRows())
	assert.Equal(t, 2, f.fetch.count())
}

func TestBulkConfirmGatedByPermissionNotName(t *testing.T) {
	var got []row
	f, d := newDispatcherFixture(t, "manager", WithBulkAction(BulkAction[row]{
		Name:        "deactivate",
		Permission:  authz.ActionEdit,
		Destructive: true,
		Run: func(ctx context.Context, rows []row) error {
			got = rows
			return nil
		},
	}))
	ctx := context.Background()

	f.ctrl.ToggleRowSelection("2")

	pending, err := d.Bulk(ctx, "deactivate")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, "deactivate", pending.Action)

	// Manager holds edit on employees; confirming must run the action even
	// though no matrix entry carries the action's display name.
	require.NoError(t, d.Confirm(ctx, pending.ID))
	waitUpdate(t, f.updates)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	// The dispatch-time re-check applies to the gating permission.
	f.ctrl.ToggleRowSelection("3")
	pending, err = d.Bulk(ctx, "deactivate")
	require.NoError(t, err)
	f.setRole("readonly")
	require.EqualError(t, d.Confirm(ctx, pending.ID), `grid: role "readonly" may not edit employees`)
	assert.Len(t, got, 1, "denied confirm must not execute")
}

func TestNonDestructiveBulkRunsImmediately(t *testing.T) {
	var got []row
	f, d := newDispatcherFixture(t, "manager", WithBulkAction(BulkAction[row]{
		Name:       "tag",
		Permission: authz.ActionEdit,
		Run: func(ctx context.Context, rows []row) error {
			got = rows
			return nil
		},
	}))

	f.ctrl.ToggleRowSelection("4")

	pending, err := d.Bulk(context.Background(), "tag")
	require.NoError(t, err)
	assert.Nil(t, pending)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].ID)
	waitUpdate(t, f.updates)
	assert.Equal(t, 2, f.fetch.count())
}

func TestUnknownBulkAction(t *testing.T) {
	_, d := newDispatcherFixture(t, "admin")

	_, err := d.Bulk(context.Background(), "vaporize")
	assert.EqualError(t, err, `grid: unknown bulk action "vaporize"`)
}

func TestPrivilegedIdentityBypassesMatrix(t *testing.T) {
	f, d := newDispatcherFixture(t, "readonly")

	assert.False(t, d.Allowed(authz.ActionDelete))

	privileged := func() authz.Identity { return authz.Identity{Role: "readonly", Privileged: true} }
	d2 := NewDispatcher(f.ctrl, mustEvaluator(t), privileged, authz.ResourceEmployees, Handlers[row]{
		Delete: func(ctx context.Context, id string) error { return nil },
	})
	assert.True(t, d2.Allowed(authz.ActionDelete))
}

func mustEvaluator(t *testing.T) *authz.Evaluator {
	t.Helper()
	evaluator, err := authz.NewEvaluator()
	require.NoError(t, err)
	return evaluator
}
