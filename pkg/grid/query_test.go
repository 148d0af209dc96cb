package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsAreAPureFunctionOfState(t *testing.T) {
	state := QueryState{
		Page:     3,
		PageSize: 25,
		Search:   "smith",
		Filters:  map[string][]string{"role": {"doctor", "nurse"}, "is_active": {"true"}},
		SortBy:   "last_name",
		SortDir:  SortDesc,
	}

	first := state.Params()
	second := state.Params()

	assert.Equal(t, first, second, "replaying the same state yields the same parameters")
	assert.Equal(t, 50, first.Offset)
	assert.Equal(t, 25, first.Limit)
	assert.Equal(t, "smith", first.Search)
	assert.Equal(t, "last_name", first.SortBy)
	assert.Equal(t, "desc", first.SortOrder)
	assert.Equal(t, first.cacheKey(), second.cacheKey())
}

func TestParamsOmitUnsetSort(t *testing.T) {
	params := QueryState{Page: 1, PageSize: 20}.Params()

	assert.Zero(t, params.Offset)
	assert.Empty(t, params.SortBy)
	assert.Empty(t, params.SortOrder)

	values := params.Values()
	assert.Equal(t, "0", values.Get("offset"))
	assert.Equal(t, "20", values.Get("limit"))
	assert.False(t, values.Has("search"))
	assert.False(t, values.Has("sort_by"))
}

func TestParamsValuesCarryFilters(t *testing.T) {
	state := QueryState{Page: 2, PageSize: 10, Filters: map[string][]string{"role": {"doctor", "nurse"}}}
	values := state.Params().Values()

	assert.Equal(t, "10", values.Get("offset"))
	assert.Equal(t, []string{"doctor", "nurse"}, values["role"])
}

func TestCacheKeyIgnoresFilterMapOrder(t *testing.T) {
	a := Params{Offset: 0, Limit: 20, Filters: map[string][]string{
		"role":      {"nurse", "doctor"},
		"is_active": {"true"},
	}}
	b := Params{Offset: 0, Limit: 20, Filters: map[string][]string{
		"is_active": {"true"},
		"role":      {"doctor", "nurse"},
	}}

	assert.Equal(t, a.cacheKey(), b.cacheKey())
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	base := Params{Offset: 0, Limit: 20}
	searched := Params{Offset: 0, Limit: 20, Search: "smith"}
	paged := Params{Offset: 20, Limit: 20}

	assert.NotEqual(t, base.cacheKey(), searched.cacheKey())
	assert.NotEqual(t, base.cacheKey(), paged.cacheKey())
}
