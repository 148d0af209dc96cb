package records

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/picobrain/console/cmd/picoctl/internal/config"
	"github.com/picobrain/console/pkg/authz"
	"github.com/picobrain/console/pkg/grid"
	"github.com/picobrain/console/pkg/sdk"
)

// view binds a grid controller and dispatcher to one collection for the
// duration of a command.
type view[T any] struct {
	ctrl       *grid.Controller[T]
	dispatcher *grid.Dispatcher[T]
	updates    chan struct{}
	exportOut  io.Writer
	spec       collection[T]
}

// openView wires the grid stack for one command invocation: the SDK
// collection as the fetch collaborator, a fresh page cache, and the
// dispatcher gated by the signed-in identity.
func openView[T any](cmd *cobra.Command, spec collection[T]) (*view[T], error) {
	ctx := cmd.Context()
	cfg := config.MustFromContext(ctx)

	apiClient, err := cfg.Provider.SDKClient()
	if err != nil {
		return nil, err
	}
	evaluator, err := cfg.Provider.Evaluator()
	if err != nil {
		return nil, err
	}
	identity, err := cfg.Provider.Identity(ctx)
	if err != nil {
		return nil, err
	}

	col := sdk.NewCollection[T](apiClient, spec.name)
	v := &view[T]{
		updates:   make(chan struct{}, 16),
		exportOut: cmd.OutOrStdout(),
		spec:      spec,
	}

	fetch := func(ctx context.Context, params grid.Params) (sdk.Page[T], error) {
		return col.List(ctx, params.Values())
	}
	v.ctrl = grid.NewController(spec.name, fetch, spec.rowKey, grid.CacheFor[T](cfg.Provider.GridRegistry(), spec.name),
		grid.WithControllerLogger[T](cfg.Logger),
		grid.OnUpdate[T](func() {
			select {
			case v.updates <- struct{}{}:
			default:
			}
		}))

	handlers := grid.Handlers[T]{
		Create: col.Create,
		Update: col.Update,
		Delete: col.Delete,
		Export: func(ctx context.Context, rows []T) error {
			return writeCSV(v.exportOut, spec, rows)
		},
	}
	v.dispatcher = grid.NewDispatcher(v.ctrl, evaluator,
		func() authz.Identity { return identity },
		spec.resource, handlers,
		grid.WithDispatcherLogger[T](cfg.Logger))
	return v, nil
}

func (v *view[T]) close() {
	v.ctrl.Close()
}

// await blocks until a settled snapshot for the wanted query arrives.
// Superseded fetches never notify, so only the final query's completion can
// satisfy it.
func (v *view[T]) await(ctx context.Context, wantQuery string) (grid.Snapshot[T], error) {
	ctx, cancel := context.WithTimeout(ctx, sdk.RequestTimeout+grid.DefaultDebounceWindow+time.Second)
	defer cancel()
	for {
		select {
		case <-v.updates:
		case <-ctx.Done():
			return grid.Snapshot[T]{}, fmt.Errorf("waiting for %s: %w", v.spec.name, ctx.Err())
		}
		snap := v.ctrl.Snapshot()
		if snap.Loading || snap.State.Params().Values().Encode() != wantQuery {
			continue
		}
		if snap.Err != nil {
			return snap, snap.Err
		}
		return snap, nil
	}
}

// queryFlags are the shared listing flags: pagination, search, sort and
// per-column filters.
type queryFlags struct {
	search   string
	page     int
	pageSize int
	sortBy   string
	order    string
	filters  []string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.search, "search", "", "Free-text search (forces page 1)")
	cmd.Flags().IntVar(&q.page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&q.pageSize, "page-size", 0, "Rows per page")
	cmd.Flags().StringVar(&q.sortBy, "sort", "", "Column to sort by")
	cmd.Flags().StringVar(&q.order, "order", "asc", "Sort direction: asc or desc")
	cmd.Flags().StringArrayVar(&q.filters, "filter", nil, "Column filter as column=value[,value...] (repeatable)")
}

func (q *queryFlags) parseFilters() (map[string][]string, error) {
	if len(q.filters) == 0 {
		return nil, nil
	}
	filters := make(map[string][]string, len(q.filters))
	for _, raw := range q.filters {
		column, value, ok := strings.Cut(raw, "=")
		if !ok || column == "" || value == "" {
			return nil, fmt.Errorf("invalid --filter %q, expected column=value", raw)
		}
		filters[column] = strings.Split(value, ",")
	}
	return filters, nil
}

func (q *queryFlags) sortDirection() grid.SortDirection {
	if strings.EqualFold(q.order, string(grid.SortDesc)) {
		return grid.SortDesc
	}
	return grid.SortAsc
}

// runQuery replays the flags as controller transitions and waits for the
// resulting page. A search always lands on page 1, like every other
// query-changing transition.
func runQuery[T any](ctx context.Context, v *view[T], q *queryFlags) (grid.Snapshot[T], error) {
	filters, err := q.parseFilters()
	if err != nil {
		return grid.Snapshot[T]{}, err
	}

	desired := grid.QueryState{
		Page:     1,
		PageSize: grid.DefaultPageSize,
		Search:   q.search,
		Filters:  filters,
		SortBy:   q.sortBy,
	}
	if q.pageSize > 0 {
		desired.PageSize = q.pageSize
	}
	if q.sortBy != "" {
		desired.SortDir = q.sortDirection()
	}

	applied := false
	if q.pageSize > 0 {
		v.ctrl.SetPageSize(q.pageSize)
		applied = true
	}
	for column, values := range filters {
		v.ctrl.SetFilter(column, values...)
		applied = true
	}
	if q.sortBy != "" {
		v.ctrl.SetSort(q.sortBy, q.sortDirection())
		applied = true
	}
	switch {
	case q.search != "":
		v.ctrl.SetSearch(q.search)
		applied = true
	case q.page > 1:
		desired.Page = q.page
		v.ctrl.SetPage(q.page)
		applied = true
	}
	if !applied {
		v.ctrl.Refresh()
	}

	return v.await(ctx, desired.Params().Values().Encode())
}
