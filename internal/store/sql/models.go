package sql

import (
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
)

// resourceRow is the persisted shape of a resource.
// search_title and search_description hold the write-time normalized text.
type resourceRow struct {
	ID                string  `gorm:"primaryKey;type:varchar(36)"`
	OwnerID           string  `gorm:"type:varchar(64);not null;index"`
	Title             string  `gorm:"not null"`
	Description       *string `gorm:"type:text"`
	URL               string  `gorm:"column:url;not null"`
	Type              string  `gorm:"type:varchar(16);not null;index"`
	CoverImage        *string
	IsVisible         bool   `gorm:"not null;index"`
	SearchTitle       string `gorm:"not null"`
	SearchDescription string `gorm:"type:text;not null"`
	StarCount         int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (resourceRow) TableName() string { return "resources" }

// userRow is the slice of the users table this service reads.
// The table is owned by the account subsystem.
type userRow struct {
	ID   string `gorm:"primaryKey;type:varchar(64)"`
	Name string `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// seedRow records a resource id produced by the seed file. Rows outlive
// the resource so a reload never recreates a deleted id.
type seedRow struct {
	ResourceID string    `gorm:"primaryKey;type:varchar(36)"`
	AppliedAt  time.Time `gorm:"not null;autoCreateTime:false"`
}

func (seedRow) TableName() string { return "seeded_resources" }

// resourceWithOwner is a resource joined with its owner's display name.
type resourceWithOwner struct {
	resourceRow `gorm:"embedded"`
	OwnerName   string
}

func toRow(r *domain.Resource) *resourceRow {
	return &resourceRow{
		ID:                r.ID,
		OwnerID:           r.OwnerID,
		Title:             r.Title,
		Description:       r.Description,
		URL:               r.URL,
		Type:              string(r.Type),
		CoverImage:        r.CoverImage,
		IsVisible:         r.IsVisible,
		SearchTitle:       r.SearchTitle,
		SearchDescription: r.SearchDescription,
		StarCount:         r.StarCount,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

func (row *resourceWithOwner) toDomain() *domain.Resource {
	return &domain.Resource{
		ID:                row.ID,
		OwnerID:           row.OwnerID,
		OwnerName:         row.OwnerName,
		Title:             row.Title,
		Description:       row.Description,
		URL:               row.URL,
		Type:              domain.ResourceType(row.Type),
		CoverImage:        row.CoverImage,
		IsVisible:         row.IsVisible,
		SearchTitle:       row.SearchTitle,
		SearchDescription: row.SearchDescription,
		StarCount:         row.StarCount,
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}
