package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistrySharesCachePerCollection(t *testing.T) {
	registry := NewRegistry(time.Minute)

	a := CacheFor[row](registry, "employees")
	b := CacheFor[row](registry, "employees")
	other := CacheFor[row](registry, "clients")

	assert.Same(t, a, b, "controllers on one collection share a cache")
	assert.NotSame(t, a, other)
}

func TestRegistryRowTypeMismatchDetaches(t *testing.T) {
	registry := NewRegistry(time.Minute)

	_ = CacheFor[row](registry, "employees")
	detached := CacheFor[int](registry, "employees")
	assert.NotNil(t, detached)

	// The original registration is untouched.
	again := CacheFor[row](registry, "employees")
	assert.Same(t, CacheFor[row](registry, "employees"), again)
}
