package domain

import (
	"errors"
	"testing"
)

func validResource() *Resource {
	return &Resource{
		ID:        "r1",
		OwnerID:   "u1",
		Title:     "Intro to Python",
		URL:       "https://example.com/python",
		Type:      ResourceVideo,
		IsVisible: true,
	}
}

func TestResourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Resource)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *Resource) {}},
		{name: "blank title", mutate: func(r *Resource) { r.Title = "   " }, wantErr: true},
		{name: "missing url", mutate: func(r *Resource) { r.URL = "" }, wantErr: true},
		{name: "relative url", mutate: func(r *Resource) { r.URL = "/videos/1" }, wantErr: true},
		{name: "ftp url", mutate: func(r *Resource) { r.URL = "ftp://example.com/file" }, wantErr: true},
		{name: "unknown type", mutate: func(r *Resource) { r.Type = "podcast" }, wantErr: true},
		{name: "bad cover image", mutate: func(r *Resource) { r.CoverImage = ptr("not a url") }, wantErr: true},
		{name: "empty cover image", mutate: func(r *Resource) { r.CoverImage = ptr("") }},
		{name: "negative stars", mutate: func(r *Resource) { r.StarCount = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResource()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Validate() = %v, want ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestParseResourceType(t *testing.T) {
	for _, typ := range ResourceTypes {
		got, err := ParseResourceType(string(typ))
		if err != nil || got != typ {
			t.Errorf("ParseResourceType(%q) = %v, %v", typ, got, err)
		}
	}

	if _, err := ParseResourceType("podcast"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseResourceType(podcast) error = %v, want ErrValidation", err)
	}
}

func TestResourceNormalized(t *testing.T) {
	r := validResource()
	r.Title = "  Intro to PYTHON "
	r.Description = ptr("Café  basics")
	r.Normalized()

	if r.SearchTitle != "intro to python" {
		t.Errorf("SearchTitle = %q", r.SearchTitle)
	}
	if r.SearchDescription != "cafe basics" {
		t.Errorf("SearchDescription = %q", r.SearchDescription)
	}

	r.Description = nil
	r.Normalized()
	if r.SearchDescription != "" {
		t.Errorf("SearchDescription = %q after clearing description, want empty", r.SearchDescription)
	}
}
