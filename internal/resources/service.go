// Package resources owns the mutation path for resources: ownership checks,
// persistence and cache invalidation.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/4lexxe/DevsProject-sub004/internal/cache"
	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/search"
)

// Publisher fans out invalidations to sibling instances.
type Publisher interface {
	PublishInvalidation(ctx context.Context, resourceID string) error
	PublishFlush(ctx context.Context) error
}

// CreateInput carries the client-supplied fields of a new resource.
type CreateInput struct {
	Title       string
	Description *string
	URL         string
	Type        domain.ResourceType
	CoverImage  *string
	IsVisible   *bool
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	URL         *string
	Type        *domain.ResourceType
	CoverImage  *string
	IsVisible   *bool
}

// Service performs guarded mutations and serves single-resource reads.
type Service struct {
	repo      domain.ResourceRepository
	pages     *cache.ResultCache[search.Page]
	entities  *cache.ResultCache[*domain.Resource]
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher enables cross-instance invalidation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	repo domain.ResourceRepository,
	pages *cache.ResultCache[search.Page],
	entities *cache.ResultCache[*domain.Resource],
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		pages:    pages,
		entities: entities,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new resource owned by actor.
func (s *Service) Create(ctx context.Context, actor *domain.Actor, in CreateInput) (*domain.Resource, error) {
	if actor == nil || actor.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	now := s.now().UTC()
	res := &domain.Resource{
		ID:          uuid.NewString(),
		OwnerID:     actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: emptyToNil(in.Description),
		URL:         strings.TrimSpace(in.URL),
		Type:        in.Type,
		CoverImage:  emptyToNil(in.CoverImage),
		IsVisible:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsVisible != nil {
		res.IsVisible = *in.IsVisible
	}

	if err := res.Validate(); err != nil {
		return nil, err
	}
	res.Normalized()

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	s.logger.Info("resource created",
		logger.String("id", res.ID),
		logger.String("owner", res.OwnerID),
		logger.String("type", string(res.Type)))

	s.invalidate(ctx, res.ID)
	return res, nil
}

// Update applies a partial update after the ownership check.
func (s *Service) Update(ctx context.Context, actor *domain.Actor, id string, in UpdateInput) (*domain.Resource, error) {
	res, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		res.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		res.Description = emptyToNil(in.Description)
	}
	if in.URL != nil {
		res.URL = strings.TrimSpace(*in.URL)
	}
	if in.Type != nil {
		res.Type = *in.Type
	}
	if in.CoverImage != nil {
		res.CoverImage = emptyToNil(in.CoverImage)
	}
	if in.IsVisible != nil {
		res.IsVisible = *in.IsVisible
	}

	return s.save(ctx, actor, res)
}

// SetVisibility toggles whether the resource appears in listing and search.
func (s *Service) SetVisibility(ctx context.Context, actor *domain.Actor, id string, visible bool) (*domain.Resource, error) {
	res, err := s.loadForMutation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	res.IsVisible = visible
	return s.save(ctx, actor, res)
}

// Delete removes the resource permanently.
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, id string) error {
	if _, err := s.loadForMutation(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete resource %s: %w", id, err)
	}

	s.logger.Info("resource deleted",
		logger.String("id", id),
		logger.String("actor", actor.ID))

	s.invalidate(ctx, id)
	return nil
}

// Get returns one resource. Hidden resources are reported as not found
// unless actor may mutate them. actor may be nil.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id string) (*domain.Resource, error) {
	key := search.EntityKey(id)

	res, ok := s.entities.Get(key)
	if !ok {
		gen := s.entities.Generation()
		var err error
		res, err = s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to get resource %s: %w", id, err)
		}
		s.entities.SetIf(key, res, gen)
	}

	if !res.IsVisible && !domain.CanMutate(actor, res) {
		return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}

	cp := *res
	return &cp, nil
}

// InvalidateResource drops every cached page and the cached copy of id on
// this instance.
func (s *Service) InvalidateResource(id string) {
	s.pages.InvalidateAll()
	s.entities.Invalidate(search.EntityKey(id))
}

// InvalidateAll drops every cached page and entity on this instance.
func (s *Service) InvalidateAll() {
	s.pages.InvalidateAll()
	s.entities.InvalidateAll()
}

// Flush drops every cache here and on sibling instances. Elevated actors only.
func (s *Service) Flush(ctx context.Context, actor *domain.Actor) error {
	if actor == nil || actor.ID == "" {
		return domain.ErrUnauthenticated
	}
	if !actor.Role.Elevated() {
		return fmt.Errorf("%w: cache flush requires an elevated role", domain.ErrForbidden)
	}

	s.InvalidateAll()
	s.logger.Info("caches flushed", logger.String("actor", actor.ID))

	if s.publisher != nil {
		if err := s.publisher.PublishFlush(ctx); err != nil {
			s.logger.Warn("failed to publish cache flush", logger.Error(err))
		}
	}
	return nil
}

// loadForMutation fetches a fresh copy from the repository and applies the guard.
func (s *Service) loadForMutation(ctx context.Context, actor *domain.Actor, id string) (*domain.Resource, error) {
	if actor == nil || actor.ID == "" {
		return nil, domain.ErrUnauthenticated
	}

	res, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get resource %s: %w", id, err)
	}

	if !domain.CanMutate(actor, res) {
		s.logger.Warn("mutation denied",
			logger.String("id", id),
			logger.String("actor", actor.ID),
			logger.String("role", string(actor.Role)))
		return nil, fmt.Errorf("%w: resource %s", domain.ErrForbidden, id)
	}

	cp := *res
	return &cp, nil
}

func (s *Service) save(ctx context.Context, actor *domain.Actor, res *domain.Resource) (*domain.Resource, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	res.Normalized()
	res.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to update resource %s: %w", res.ID, err)
	}

	s.logger.Info("resource updated",
		logger.String("id", res.ID),
		logger.String("actor", actor.ID),
		logger.Bool("visible", res.IsVisible))

	s.invalidate(ctx, res.ID)
	return res, nil
}

// invalidate runs after every successful mutation.
func (s *Service) invalidate(ctx context.Context, id string) {
	s.InvalidateResource(id)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishInvalidation(ctx, id); err != nil {
		s.logger.Warn("failed to publish cache invalidation",
			logger.String("id", id),
			logger.Error(err))
	}
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
