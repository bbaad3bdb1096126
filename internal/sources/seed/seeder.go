// Package seed loads resource fixtures from YAML for development and demo
// corpora.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// OwnerWriter records owner display names. Optional.
type OwnerWriter interface {
	UpsertOwner(ctx context.Context, id, name string) error
}

// Ledger remembers every resource id a seed file has produced. An id
// recorded here is never inserted again, even after its row is deleted.
type Ledger interface {
	WasSeeded(ctx context.Context, id string) (bool, error)
	MarkSeeded(ctx context.Context, id string) error
}

// Invalidator drops cached search results after new rows are inserted.
type Invalidator interface {
	InvalidateAll()
}

// Result summarizes one Apply.
type Result struct {
	Created  int
	Existing int // applied by an earlier run, present or since deleted
	Skipped  int
}

// Seeder inserts seeded resources that were never applied before. Existing
// rows are left untouched so edits made through the API survive a reload,
// and rows deleted through the API stay deleted.
type Seeder struct {
	loader      *Loader
	mapper      *Mapper
	repo        domain.ResourceRepository
	owners      OwnerWriter
	ledger      Ledger
	invalidator Invalidator
	logger      logger.Logger
}

// NewSeeder creates a seeder for filePath. owners may be nil.
func NewSeeder(
	filePath string,
	repo domain.ResourceRepository,
	owners OwnerWriter,
	ledger Ledger,
	invalidator Invalidator,
	log logger.Logger,
) *Seeder {
	return &Seeder{
		loader:      NewLoader(filePath),
		mapper:      NewMapper(nil),
		repo:        repo,
		owners:      owners,
		ledger:      ledger,
		invalidator: invalidator,
		logger:      log,
	}
}

// Apply loads the file and inserts missing resources.
func (s *Seeder) Apply(ctx context.Context) (Result, error) {
	file, err := s.loader.Load()
	if err != nil {
		return Result{}, err
	}

	mapped, err := s.mapper.Map(file)
	if err != nil {
		return Result{}, fmt.Errorf("failed to map seed file: %w", err)
	}

	for _, reason := range mapped.Skipped {
		s.logger.Warn("skipping seed entry", logger.String("reason", reason))
	}

	if s.owners != nil {
		for _, owner := range mapped.Owners {
			if owner.Name == "" {
				continue
			}
			if err := s.owners.UpsertOwner(ctx, owner.ID, owner.Name); err != nil {
				return Result{}, err
			}
		}
	}

	res := Result{Skipped: len(mapped.Skipped)}
	for _, r := range mapped.Resources {
		seeded, err := s.ledger.WasSeeded(ctx, r.ID)
		if err != nil {
			return res, err
		}
		if seeded {
			res.Existing++
			continue
		}

		// Rows created before the ledger recorded them are adopted as is.
		_, err = s.repo.Get(ctx, r.ID)
		switch {
		case err == nil:
			res.Existing++
		case errors.Is(err, domain.ErrNotFound):
			if err := s.repo.Create(ctx, r); err != nil {
				return res, err
			}
			res.Created++
		default:
			return res, err
		}

		if err := s.ledger.MarkSeeded(ctx, r.ID); err != nil {
			return res, err
		}
	}

	if res.Created > 0 && s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}

	s.logger.Info("seed applied",
		logger.Int("created", res.Created),
		logger.Int("existing", res.Existing),
		logger.Int("skipped", res.Skipped))

	return res, nil
}
