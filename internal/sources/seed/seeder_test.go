package seed

import (
	"context"
	"sync"
	"testing"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Resource
}

func (r *memRepo) Create(ctx context.Context, res *domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[res.ID] = res
	return nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.rows[id]; ok {
		return res, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memRepo) Update(ctx context.Context, res *domain.Resource) error { return nil }
func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}
func (r *memRepo) List(ctx context.Context, f domain.ListFilter) ([]*domain.Resource, error) {
	return nil, nil
}

type ownerRecorder map[string]string

func (o ownerRecorder) UpsertOwner(ctx context.Context, id, name string) error {
	o[id] = name
	return nil
}

type memLedger map[string]bool

func (l memLedger) WasSeeded(ctx context.Context, id string) (bool, error) { return l[id], nil }
func (l memLedger) MarkSeeded(ctx context.Context, id string) error {
	l[id] = true
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateAll() { c.calls++ }

func TestSeederApply(t *testing.T) {
	t.Setenv("SEED_TEST_BASE_URL", "https://notes.example.com")

	repo := &memRepo{rows: make(map[string]*domain.Resource)}
	owners := ownerRecorder{}
	inv := &countingInvalidator{}
	seeder := NewSeeder(writeSeed(t, sampleYAML), repo, owners, memLedger{}, inv, logger.NewNop())
	ctx := context.Background()

	res, err := seeder.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Created != 3 || res.Existing != 0 {
		t.Errorf("Apply() = %+v, want 3 created", res)
	}
	if owners["u1"] != "Ada" || owners["u2"] != "Grace" {
		t.Errorf("owners = %v", owners)
	}
	if inv.calls != 1 {
		t.Errorf("invalidations = %d, want 1", inv.calls)
	}

	// A user edit survives a reload.
	edited := repo.rows[ResourceID("u1", "intro-python")]
	edited.Title = "Edited"

	res, err = seeder.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Created != 0 || res.Existing != 3 {
		t.Errorf("second Apply() = %+v, want 3 existing", res)
	}
	if inv.calls != 1 {
		t.Errorf("invalidated without new rows")
	}
	if repo.rows[ResourceID("u1", "intro-python")].Title != "Edited" {
		t.Error("seed overwrote an existing row")
	}
}

func TestSeederDoesNotRecreateDeletedRows(t *testing.T) {
	t.Setenv("SEED_TEST_BASE_URL", "https://notes.example.com")

	tests := []struct {
		name        string
		preexisting bool
	}{
		{name: "created by seed"},
		{name: "adopted from an earlier run", preexisting: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{rows: make(map[string]*domain.Resource)}
			ledger := memLedger{}
			id := ResourceID("u1", "intro-python")
			if tt.preexisting {
				repo.rows[id] = &domain.Resource{ID: id, Title: "Old"}
			}
			seeder := NewSeeder(writeSeed(t, sampleYAML), repo, nil, ledger, &countingInvalidator{}, logger.NewNop())
			ctx := context.Background()

			if _, err := seeder.Apply(ctx); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !ledger[id] {
				t.Fatalf("%s not recorded as seeded", id)
			}
			if err := repo.Delete(ctx, id); err != nil {
				t.Fatal(err)
			}

			res, err := seeder.Apply(ctx)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if res.Created != 0 || res.Existing != 3 {
				t.Errorf("reload = %+v, want 0 created, 3 existing", res)
			}
			if _, err := repo.Get(ctx, id); err != domain.ErrNotFound {
				t.Errorf("deleted row came back, Get() error = %v", err)
			}
		})
	}
}
