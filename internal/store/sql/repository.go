// Package sql persists resources with gorm on Postgres or SQLite.
package sql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// Repository implements domain.ResourceRepository.
type Repository struct {
	db  *gorm.DB
	log logger.Logger
}

var _ domain.ResourceRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB, log logger.Logger) *Repository {
	return &Repository{db: db, log: log.With(logger.String("repo", "resources"))}
}

// Migrate creates or updates the tables this service needs.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRow{}, &resourceRow{}, &seedRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, res *domain.Resource) error {
	if err := r.db.WithContext(ctx).Create(toRow(res)).Error; err != nil {
		return fmt.Errorf("failed to insert resource %s: %w", res.ID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Resource, error) {
	var rows []resourceWithOwner
	if err := r.joined(ctx).
		Where("resources.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load resource %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	return rows[0].toDomain(), nil
}

// Update writes the owner-editable content, the search columns and UpdatedAt.
// ID, OwnerID, StarCount and CreatedAt are never written.
func (r *Repository) Update(ctx context.Context, res *domain.Resource) error {
	row := toRow(res)
	tx := r.db.WithContext(ctx).
		Model(&resourceRow{}).
		Where("id = ?", res.ID).
		Updates(map[string]any{
			"title":              row.Title,
			"description":        row.Description,
			"url":                row.URL,
			"type":               row.Type,
			"cover_image":        row.CoverImage,
			"is_visible":         row.IsVisible,
			"search_title":       row.SearchTitle,
			"search_description": row.SearchDescription,
			"updated_at":         row.UpdatedAt,
		})
	if tx.Error != nil {
		return fmt.Errorf("failed to update resource %s: %w", res.ID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %s", domain.ErrNotFound, res.ID)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&resourceRow{})
	if tx.Error != nil {
		return fmt.Errorf("failed to delete resource %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
	}
	return nil
}

// List returns visible resources matching f, newest first.
func (r *Repository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Resource, error) {
	q := r.joined(ctx).Where("resources.is_visible = ?", true)
	if f.Type != nil {
		q = q.Where("resources.type = ?", string(*f.Type))
	}
	switch {
	case f.CreatedBefore != nil && f.AfterID != "":
		before := f.CreatedBefore.UTC()
		q = q.Where("resources.created_at < ? OR (resources.created_at = ? AND resources.id > ?)",
			before, before, f.AfterID)
	case f.CreatedBefore != nil:
		q = q.Where("resources.created_at < ?", f.CreatedBefore.UTC())
	}

	var rows []resourceWithOwner
	if err := q.
		Order("resources.created_at DESC").
		Order("resources.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	out := make([]*domain.Resource, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// UpsertOwner records a user's display name. Used by seeding and tests;
// in production the users table is written by the account subsystem.
func (r *Repository) UpsertOwner(ctx context.Context, id, name string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&userRow{ID: id, Name: name}).Error
	if err != nil {
		return fmt.Errorf("failed to upsert owner %s: %w", id, err)
	}
	return nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("resources").
		Select("resources.*, COALESCE(users.name, '') AS owner_name").
		Joins("LEFT JOIN users ON users.id = resources.owner_id")
}

// WasSeeded reports whether the seed file ever produced id.
func (r *Repository) WasSeeded(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&seedRow{}).Where("resource_id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to read seed ledger for %s: %w", id, err)
	}
	return n > 0, nil
}

// MarkSeeded records id in the seed ledger. Marking twice is a no-op.
func (r *Repository) MarkSeeded(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seedRow{ResourceID: id, AppliedAt: time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to record seeded resource %s: %w", id, err)
	}
	return nil
}
