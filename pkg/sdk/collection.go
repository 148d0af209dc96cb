package sdk

import (
	"context"
	"fmt"
	"net/url"
)

// Collection is the typed client for one record collection. It fulfills the
// fetch and mutation contracts the grid controller expects: List is
// idempotent and side-effect free, mutations return the affected record.
type Collection[T any] struct {
	client   *Client
	name     string
	basePath string
}

// NewCollection binds a collection client to the named collection. The name
// doubles as the authorization resource and the cache key, e.g. "employees".
func NewCollection[T any](client *Client, name string) *Collection[T] {
	return &Collection[T]{
		client:   client,
		name:     name,
		basePath: "/api/v1/" + name,
	}
}

// Name returns the collection's resource name.
func (c *Collection[T]) Name() string {
	return c.name
}

// List fetches one page using the flat query parameters derived by the grid
// controller.
func (c *Collection[T]) List(ctx context.Context, query url.Values) (Page[T], error) {
	var page Page[T]
	if err := c.client.get(ctx, c.basePath, query, &page); err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

// Get retrieves a single record by ID.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var record T
	if err := c.client.get(ctx, c.basePath+"/"+url.PathEscape(id), nil, &record); err != nil {
		return record, err
	}
	return record, nil
}

// Create inserts a new record and returns the stored form.
func (c *Collection[T]) Create(ctx context.Context, data any) (T, error) {
	var record T
	if err := c.client.post(ctx, c.basePath, data, &record); err != nil {
		return record, err
	}
	return record, nil
}

// Update applies a partial patch to the record with the given ID.
func (c *Collection[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var record T
	if err := c.client.put(ctx, c.basePath+"/"+url.PathEscape(id), patch, &record); err != nil {
		return record, err
	}
	return record, nil
}

// Delete removes the record with the given ID.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.client.delete(ctx, c.basePath+"/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	return nil
}
