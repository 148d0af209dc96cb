package grid

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/picobrain/console/pkg/sdk"
)

// DefaultDebounceWindow is the quiet window for search input: only the last
// SetSearch call within it takes effect.
const DefaultDebounceWindow = 500 * time.Millisecond

// FetchFunc retrieves one page for the derived parameters. It must be
// idempotent and side-effect free; it is supplied per collection by the
// surrounding page.
type FetchFunc[T any] func(ctx context.Context, params Params) (sdk.Page[T], error)

// Snapshot is the rendered view of a controller: the rows of the latest
// good page plus control state. Fetch errors leave the previous page
// visible, so the grid never flashes empty on a transient failure.
type Snapshot[T any] struct {
	Rows     []T
	Total    int
	State    QueryState
	Selected []string
	Loading  bool
	Err      error
}

// Controller owns the query state for one collection view and turns state
// transitions into fetches. Every transition that changes the query bumps
// the query version; a response is applied only if its version is still
// current, so results land in query order, not arrival order.
type Controller[T any] struct {
	mu         sync.Mutex
	collection string
	fetch      FetchFunc[T]
	rowKey     func(T) string
	cache      *Cache[T]
	clock      clock.Clock
	logger     *slog.Logger
	window     time.Duration
	onUpdate   func()

	state         QueryState
	selected      map[string]struct{}
	version       uint64
	page          sdk.Page[T]
	hasPage       bool
	fetchErr      error
	loading       bool
	pendingSearch string
	debounce      *clock.Timer
	closed        bool
}

// ControllerOption mutates Controller construction.
type ControllerOption[T any] func(*Controller[T])

// WithControllerClock overrides the debounce clock, for tests.
func WithControllerClock[T any](c clock.Clock) ControllerOption[T] {
	return func(ctrl *Controller[T]) { ctrl.clock = c }
}

// WithControllerLogger attaches a structured logger.
func WithControllerLogger[T any](logger *slog.Logger) ControllerOption[T] {
	return func(ctrl *Controller[T]) { ctrl.logger = logger }
}

// WithDebounceWindow overrides the search quiet window.
func WithDebounceWindow[T any](d time.Duration) ControllerOption[T] {
	return func(ctrl *Controller[T]) { ctrl.window = d }
}

// OnUpdate registers a callback invoked after every snapshot change, so the
// UI layer can re-render. The callback runs outside the controller lock.
func OnUpdate[T any](fn func()) ControllerOption[T] {
	return func(ctrl *Controller[T]) { ctrl.onUpdate = fn }
}

// NewController binds a controller to a collection. rowKey must return a
// stable key per row; cache is the collection's shared cache.
func NewController[T any](collection string, fetch FetchFunc[T], rowKey func(T) string, cache *Cache[T], optFns ...ControllerOption[T]) *Controller[T] {
	ctrl := &Controller[T]{
		collection: collection,
		fetch:      fetch,
		rowKey:     rowKey,
		cache:      cache,
		clock:      clock.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		window:     DefaultDebounceWindow,
		state:      defaultQueryState(),
		selected:   make(map[string]struct{}),
	}
	for _, fn := range optFns {
		fn(ctrl)
	}
	return ctrl
}

// Collection returns the collection name the controller is bound to.
func (c *Controller[T]) Collection() string {
	return c.collection
}

// Refresh triggers a fetch for the current query state. Call once after
// construction to load the first page.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloadLocked()
}

// SetSearch updates the free-text search, debounced: the fetch is issued
// only from the quiet-window timer, and each call cancels the previous
// pending timer. The effective search resets the page to 1.
func (c *Controller[T]) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pendingSearch = text
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = c.clock.AfterFunc(c.window, c.applySearch)
}

func (c *Controller[T]) applySearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Search = c.pendingSearch
	c.state.Page = 1
	c.reloadLocked()
}

// SetSort orders by the given column and resets the page to 1. An empty
// column clears the sort.
func (c *Controller[T]) SetSort(column string, direction SortDirection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SortBy = column
	c.state.SortDir = direction
	c.state.Page = 1
	c.reloadLocked()
}

// SetFilter merges the accepted values for a column into the filter set and
// resets the page to 1. An empty value set removes the column's filter.
func (c *Controller[T]) SetFilter(column string, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Filters == nil {
		c.state.Filters = make(map[string][]string)
	}
	if len(values) == 0 {
		delete(c.state.Filters, column)
	} else {
		c.state.Filters[column] = append([]string(nil), values...)
	}
	c.state.Page = 1
	c.reloadLocked()
}

// SetPage moves to page n (1-based).
func (c *Controller[T]) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.state.Page = n
	c.reloadLocked()
}

// SetPageSize changes the page size and resets the page to 1.
func (c *Controller[T]) SetPageSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = DefaultPageSize
	}
	c.state.PageSize = n
	c.state.Page = 1
	c.reloadLocked()
}

// ToggleRowSelection flips one row's membership in the selection set. No
// fetch is triggered.
func (c *Controller[T]) ToggleRowSelection(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[key]; ok {
		delete(c.selected, key)
	} else {
		c.selected[key] = struct{}{}
	}
}

// SelectAll selects every row of the latest page.
func (c *Controller[T]) SelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.page.Items {
		c.selected[c.rowKey(row)] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]struct{})
}

// PruneSelection drops the given keys from the selection set, e.g. after
// the rows were deleted.
func (c *Controller[T]) PruneSelection(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.selected, key)
	}
}

// SelectedRows resolves the selection against the latest fetched page.
// Selected keys no longer present in the page are silently dropped.
func (c *Controller[T]) SelectedRows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rows []T
	for _, row := range c.page.Items {
		if _, ok := c.selected[c.rowKey(row)]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// Params derives the current fetch parameters. Exposed for collaborators
// that need the exact query, e.g. an export of the filtered view.
func (c *Controller[T]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Params()
}

// Snapshot returns the current rendered state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected := make([]string, 0, len(c.selected))
	for key := range c.selected {
		selected = append(selected, key)
	}
	snap := Snapshot[T]{
		Rows:     append([]T(nil), c.page.Items...),
		Total:    c.page.Total,
		State:    c.state,
		Selected: selected,
		Loading:  c.loading,
		Err:      c.fetchErr,
	}
	snap.State.Filters = c.state.Params().Filters
	return snap
}

// InvalidateCache drops the collection's cached pages. Called by the action
// dispatcher after a successful mutation.
func (c *Controller[T]) InvalidateCache() {
	c.cache.Invalidate()
}

// Reset returns the query state to defaults and clears the selection, as
// when the controller is re-keyed to a different view of the collection.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = defaultQueryState()
	c.selected = make(map[string]struct{})
	c.reloadLocked()
}

// Close tears the controller down: the pending debounce is cancelled and
// any in-flight fetch result will be discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.version++
}

// reloadLocked starts a fetch for the current state under a fresh query
// version. Changing the state again before the response arrives supersedes
// it; the stale result is discarded on arrival rather than aborted.
func (c *Controller[T]) reloadLocked() {
	if c.closed {
		return
	}
	c.version++
	version := c.version
	params := c.state.Params()
	c.loading = true
	go c.runFetch(version, params)
}

func (c *Controller[T]) runFetch(version uint64, params Params) {
	ctx, cancel := context.WithTimeout(context.Background(), sdk.RequestTimeout)
	defer cancel()

	key := params.cacheKey()
	page, err := c.cache.Fetch(ctx, key, func(ctx context.Context) (sdk.Page[T], error) {
		return c.fetch(ctx, params)
	})

	c.mu.Lock()
	if c.version != version {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Stale-while-error: the previous good page stays visible.
		c.fetchErr = err
		c.logger.Warn("fetch failed", "collection", c.collection, "kind", sdk.KindOf(err), "error", err)
	} else {
		if page.Total == 0 && len(page.Items) > 0 {
			page.Total = len(page.Items)
		}
		c.page = page
		c.hasPage = true
		c.fetchErr = nil
	}
	c.loading = false
	notify := c.onUpdate
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}
