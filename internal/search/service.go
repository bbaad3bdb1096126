// Package search ranks visible resources against a free-text query and serves
// repeated identical requests from the page cache.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/cache"
	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// Page is one page of search results. Total counts every match, not just the page.
type Page struct {
	Total   int
	Results []*domain.Resource
}

// Service orchestrates a search request.
type Service struct {
	repo   domain.ResourceRepository
	pages  *cache.ResultCache[Page]
	logger logger.Logger
}

// NewService creates a search service over repo, caching pages in pages.
func NewService(repo domain.ResourceRepository, pages *cache.ResultCache[Page], log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		pages:  pages,
		logger: log,
	}
}

// Search returns the requested page. Repository failures propagate and are
// never cached.
func (s *Service) Search(ctx context.Context, req Request) (Page, error) {
	if req.Limit <= 0 {
		return Page{}, fmt.Errorf("%w: limit must be a positive integer, got %d", domain.ErrValidation, req.Limit)
	}
	if req.Type != nil && !req.Type.Valid() {
		return Page{}, fmt.Errorf("%w: unknown resource type %q", domain.ErrValidation, *req.Type)
	}

	key := PageKey(req)
	if page, ok := s.pages.Get(key); ok {
		s.logger.Debug("search cache hit",
			logger.String("key", key),
			logger.Int("total", page.Total))
		return page, nil
	}

	// Taken before reading so a mutation that lands during the read
	// keeps this page out of the cache.
	gen := s.pages.Generation()

	start := time.Now()
	candidates, err := s.repo.List(ctx, domain.ListFilter{
		Type:          req.Type,
		CreatedBefore: req.CreatedBefore,
		AfterID:       req.AfterID,
	})
	if err != nil {
		s.logger.Error("failed to list search candidates",
			logger.String("key", key),
			logger.Error(err))
		return Page{}, fmt.Errorf("failed to list resources: %w", err)
	}

	var page Page
	if strings.TrimSpace(req.Query) == "" {
		page = newestFirst(candidates, req.Limit)
	} else {
		page = ranked(req.Query, candidates, req.Limit)
	}

	s.logger.Debug("search computed",
		logger.String("key", key),
		logger.Int("candidates", len(candidates)),
		logger.Int("total", page.Total),
		logger.Int("returned", len(page.Results)),
		logger.Duration("duration", time.Since(start)))

	// Empty pages are not cached so a resource created moments later is
	// discoverable immediately.
	if len(page.Results) > 0 && !s.pages.SetIf(key, page, gen) {
		s.logger.Debug("search page not cached, invalidated while computing",
			logger.String("key", key))
	}

	return page, nil
}

// newestFirst orders candidates by CreatedAt desc and keeps the first limit.
func newestFirst(candidates []*domain.Resource, limit int) Page {
	ordered := make([]*domain.Resource, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	n := min(limit, len(ordered))
	return Page{Total: len(ordered), Results: ordered[:n:n]}
}

// ranked scores every candidate and keeps the best limit above the threshold.
func ranked(query string, candidates []*domain.Resource, limit int) Page {
	scored := domain.RankCandidates(query, candidates, domain.RelevanceThreshold)

	n := min(limit, len(scored))
	results := make([]*domain.Resource, 0, n)
	for _, c := range scored[:n] {
		results = append(results, c.Resource)
	}
	return Page{Total: len(scored), Results: results}
}
