package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
)

// MemoryIndex is an in-process ResourceRepository. It backs the "memory"
// database driver for local runs and the HTTP tests.
// Stored resources are copied on the way in and out.
type MemoryIndex struct {
	mu        sync.RWMutex
	resources map[string]domain.Resource // ID -> Resource
	owners    map[string]string          // user ID -> display name
	seeded    map[string]struct{}        // ids ever produced by the seed file
}

var _ domain.ResourceRepository = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		resources: make(map[string]domain.Resource),
		owners:    make(map[string]string),
		seeded:    make(map[string]struct{}),
	}
}

// Create stores a new resource. Ids are never reused.
func (idx *MemoryIndex) Create(ctx context.Context, res *domain.Resource) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.resources[res.ID]; exists {
		return fmt.Errorf("resource %s already exists", res.ID)
	}
	idx.resources[res.ID] = *res
	return nil
}

// Get retrieves a resource by ID, visible or not.
func (idx *MemoryIndex) Get(ctx context.Context, id string) (*domain.Resource, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	res, ok := idx.resources[id]
	if !ok {
		return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	return idx.withOwnerLocked(res), nil
}

// Update replaces the owner-editable fields of an existing resource.
func (idx *MemoryIndex) Update(ctx context.Context, res *domain.Resource) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current, ok := idx.resources[res.ID]
	if !ok {
		return fmt.Errorf("%w: resource %s", domain.ErrNotFound, res.ID)
	}

	updated := *res
	updated.OwnerID = current.OwnerID
	updated.StarCount = current.StarCount
	updated.CreatedAt = current.CreatedAt
	idx.resources[res.ID] = updated
	return nil
}

// Delete removes a resource from the index.
func (idx *MemoryIndex) Delete(ctx context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.resources[id]; !ok {
		return fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	delete(idx.resources, id)
	return nil
}

// List returns visible resources matching f, newest first.
func (idx *MemoryIndex) List(ctx context.Context, f domain.ListFilter) ([]*domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Resource, 0, len(idx.resources))
	for _, res := range idx.resources {
		if !res.IsVisible {
			continue
		}
		if f.Type != nil && res.Type != *f.Type {
			continue
		}
		if f.CreatedBefore != nil && !beforeCursor(res, *f.CreatedBefore, f.AfterID) {
			continue
		}
		out = append(out, idx.withOwnerLocked(res))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpsertOwner records a user's display name.
func (idx *MemoryIndex) UpsertOwner(ctx context.Context, id, name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.owners[id] = name
	return nil
}

// WasSeeded reports whether MarkSeeded was ever called for id.
func (idx *MemoryIndex) WasSeeded(ctx context.Context, id string) (bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, ok := idx.seeded[id]
	return ok, nil
}

func (idx *MemoryIndex) MarkSeeded(ctx context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.seeded[id] = struct{}{}
	return nil
}

// Count returns the number of stored resources, hidden ones included.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.resources)
}

func beforeCursor(res domain.Resource, before time.Time, afterID string) bool {
	if res.CreatedAt.Before(before) {
		return true
	}
	return afterID != "" && res.CreatedAt.Equal(before) && res.ID > afterID
}

func (idx *MemoryIndex) withOwnerLocked(res domain.Resource) *domain.Resource {
	res.OwnerName = idx.owners[res.OwnerID]
	return &res
}
