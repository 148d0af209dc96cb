// Package grid implements the remote-data grid controller behind every
// record-collection screen: query state, debounced search, fetch derivation
// and caching, and the permission-gated action dispatcher.
package grid

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPageSize is used until the caller picks another page size.
const DefaultPageSize = 20

// SortDirection orders a sorted column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// QueryState is the full user-driven query for one grid: pagination, free
// text search, per-column filters and the optional sort. It is owned
// exclusively by one Controller and mutated only through its transitions.
type QueryState struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string][]string
	SortBy   string
	SortDir  SortDirection
}

func defaultQueryState() QueryState {
	return QueryState{Page: 1, PageSize: DefaultPageSize}
}

// Params derives the flat fetch parameters from the state. The derivation
// is a pure function: replaying the same state always yields the same
// parameters.
func (q QueryState) Params() Params {
	p := Params{
		Offset:  (q.Page - 1) * q.PageSize,
		Limit:   q.PageSize,
		Search:  q.Search,
		SortBy:  q.SortBy,
		Filters: make(map[string][]string, len(q.Filters)),
	}
	for column, values := range q.Filters {
		p.Filters[column] = append([]string(nil), values...)
	}
	if q.SortBy != "" {
		p.SortOrder = string(q.SortDir)
		if p.SortOrder == "" {
			p.SortOrder = string(SortAsc)
		}
	}
	return p
}

// Params is the flat parameter object handed to the fetch collaborator.
type Params struct {
	Offset    int
	Limit     int
	Search    string
	Filters   map[string][]string
	SortBy    string
	SortOrder string
}

// Values encodes the parameters as URL query values for REST collaborators.
func (p Params) Values() url.Values {
	values := url.Values{}
	values.Set("offset", strconv.Itoa(p.Offset))
	values.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.SortBy != "" {
		values.Set("sort_by", p.SortBy)
		values.Set("sort_order", p.SortOrder)
	}
	for column, accepted := range p.Filters {
		for _, v := range accepted {
			values.Add(column, v)
		}
	}
	return values
}

// cacheKey renders the parameter tuple deterministically so identical
// queries share a cache entry regardless of filter map iteration order.
func (p Params) cacheKey() string {
	var b strings.Builder
	b.WriteString("o=")
	b.WriteString(strconv.Itoa(p.Offset))
	b.WriteString("&l=")
	b.WriteString(strconv.Itoa(p.Limit))
	if p.Search != "" {
		b.WriteString("&q=")
		b.WriteString(p.Search)
	}
	if p.SortBy != "" {
		b.WriteString("&s=")
		b.WriteString(p.SortBy)
		b.WriteString(":")
		b.WriteString(p.SortOrder)
	}
	columns := make([]string, 0, len(p.Filters))
	for column := range p.Filters {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		accepted := append([]string(nil), p.Filters[column]...)
		sort.Strings(accepted)
		b.WriteString("&f:")
		b.WriteString(column)
		b.WriteString("=")
		b.WriteString(strings.Join(accepted, "|"))
	}
	return b.String()
}
