package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
)

// namespace derives stable ids for seeded resources.
var namespace = uuid.MustParse("6f1c2a7e-3d4b-5c8e-9a0f-1b2c3d4e5f60")

// ResourceID returns the id a seeded resource gets.
func ResourceID(ownerID, key string) string {
	return uuid.NewSHA1(namespace, []byte(ownerID+"/"+key)).String()
}

// Mapped is the result of mapping a seed file.
type Mapped struct {
	Owners    []Owner
	Resources []*domain.Resource
	Skipped   []string // "owner/key: reason" for entries that failed validation
}

// Mapper converts seed entries into domain resources.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a mapper. now stamps entries without createdAt.
func NewMapper(now func() time.Time) *Mapper {
	if now == nil {
		now = time.Now
	}
	return &Mapper{now: now}
}

// Map validates every entry. Invalid entries are skipped, not fatal;
// a file with no valid entry is an error.
func (m *Mapper) Map(file *File) (*Mapped, error) {
	out := &Mapped{}
	now := m.now().UTC()
	seen := make(map[string]bool)

	for _, owner := range file.Owners {
		owner.ID = strings.TrimSpace(owner.ID)
		if owner.ID == "" {
			out.Skipped = append(out.Skipped, "owner without id")
			continue
		}
		out.Owners = append(out.Owners, owner)

		for _, entry := range owner.Resources {
			label := owner.ID + "/" + entry.Key
			if strings.TrimSpace(entry.Key) == "" {
				out.Skipped = append(out.Skipped, label+": missing key")
				continue
			}

			res, err := m.mapResource(owner.ID, entry, now)
			if err != nil {
				out.Skipped = append(out.Skipped, fmt.Sprintf("%s: %v", label, err))
				continue
			}
			if seen[res.ID] {
				out.Skipped = append(out.Skipped, label+": duplicate key")
				continue
			}
			seen[res.ID] = true
			out.Resources = append(out.Resources, res)
		}
	}

	if len(out.Resources) == 0 {
		return nil, fmt.Errorf("no valid resources found in seed file")
	}
	return out, nil
}

func (m *Mapper) mapResource(ownerID string, entry Resource, now time.Time) (*domain.Resource, error) {
	typ, err := domain.ParseResourceType(entry.Type)
	if err != nil {
		return nil, err
	}

	createdAt := now
	if entry.CreatedAt != nil {
		createdAt = entry.CreatedAt.UTC()
	}

	res := &domain.Resource{
		ID:          ResourceID(ownerID, entry.Key),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(entry.Title),
		Description: optional(entry.Description),
		URL:         strings.TrimSpace(entry.URL),
		Type:        typ,
		CoverImage:  optional(entry.CoverImage),
		IsVisible:   entry.Visible == nil || *entry.Visible,
		StarCount:   entry.Stars,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res.Normalized(), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
