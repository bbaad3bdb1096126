package domain

import (
	"context"
	"time"
)

// ListFilter selects the visible candidate set for a search.
type ListFilter struct {
	// Type restricts results to one resource type when set.
	Type *ResourceType
	// CreatedBefore keeps only resources created strictly before this instant.
	CreatedBefore *time.Time
	// AfterID, with CreatedBefore, also keeps resources created exactly at
	// CreatedBefore whose id sorts after it. List orders ties by id.
	AfterID string
}

// ResourceRepository is the persistence boundary for resources.
//
// Get, Update and Delete return an error wrapping ErrNotFound for unknown ids.
type ResourceRepository interface {
	Create(ctx context.Context, resource *Resource) error
	Get(ctx context.Context, id string) (*Resource, error)
	Update(ctx context.Context, resource *Resource) error
	Delete(ctx context.Context, id string) error

	// List returns every visible resource matching f, newest first.
	List(ctx context.Context, f ListFilter) ([]*Resource, error)
}
