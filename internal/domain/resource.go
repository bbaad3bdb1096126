package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ResourceType is the closed set of resource kinds.
type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourceDocument ResourceType = "document"
	ResourceImage    ResourceType = "image"
	ResourceLink     ResourceType = "link"
)

// ResourceTypes lists every valid ResourceType.
var ResourceTypes = []ResourceType{ResourceVideo, ResourceDocument, ResourceImage, ResourceLink}

// Valid reports whether t is a member of the enumeration.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceVideo, ResourceDocument, ResourceImage, ResourceLink:
		return true
	}
	return false
}

// ParseResourceType parses a type filter value. Matching is exact after trimming.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown resource type %q", ErrValidation, s)
	}
	return t, nil
}

// Resource is a user-submitted learning resource.
//
// Resources are created, mutated and destroyed only through the mutation path.
// The search core reads them and never writes.
type Resource struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned at creation and never reused.
	ID string

	// OwnerID is the user who created the resource.
	OwnerID string

	// OwnerName is the owner's display name, denormalized on read.
	OwnerName string

	// ─────────────────────────────
	// Content (owner editable)
	// ─────────────────────────────

	Title       string
	Description *string
	URL         string
	Type        ResourceType
	CoverImage  *string

	// IsVisible hides the resource from default listing and search when false.
	IsVisible bool

	// ─────────────────────────────
	// Search columns
	// (derived at write time, never set by clients)
	// ─────────────────────────────

	// SearchTitle is Normalize(Title).
	SearchTitle string

	// SearchDescription is Normalize(Description), empty when absent.
	SearchDescription string

	// ─────────────────────────────
	// Externally maintained
	// ─────────────────────────────

	// StarCount is owned by the rating subsystem and only read here.
	StarCount int

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is the pagination cursor and default sort key.
	CreatedAt time.Time

	// UpdatedAt is updated on any mutation.
	UpdatedAt time.Time
}

// Normalized fills the derived search columns from the current content.
func (r *Resource) Normalized() *Resource {
	r.SearchTitle = Normalize(r.Title)
	r.SearchDescription = ""
	if r.Description != nil {
		r.SearchDescription = Normalize(*r.Description)
	}
	return r
}

// Validate checks the persisted-record invariants.
func (r *Resource) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := validateURL("url", r.URL); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: type must be one of video, document, image, link", ErrValidation)
	}
	if r.CoverImage != nil && *r.CoverImage != "" {
		if err := validateURL("coverImage", *r.CoverImage); err != nil {
			return err
		}
	}
	if r.StarCount < 0 {
		return fmt.Errorf("%w: starCount must not be negative", ErrValidation)
	}
	return nil
}

// validateURL accepts absolute http(s) URLs with a host.
func validateURL(field, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %s must be a valid http(s) URL", ErrValidation, field)
	}
	return nil
}
