package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
	"github.com/4lexxe/DevsProject-sub004/internal/resources"
)

type createResourceRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	Type        string  `json:"type"`
	CoverImage  *string `json:"coverImage"`
	IsVisible   *bool   `json:"isVisible"`
}

type updateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Type        *string `json:"type"`
	CoverImage  *string `json:"coverImage"`
	IsVisible   *bool   `json:"isVisible"`
}

type visibilityRequest struct {
	IsVisible *bool `json:"isVisible"`
}

// GetResource serves GET /api/resources/{id}.
func GetResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Resources.Get(r.Context(), mw.ActorFrom(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResourceJSON(res))
	}
}

// CreateResource serves POST /api/resources.
func CreateResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createResourceRequest
		if err := decodeJSON(w, r, d.MaxRequestBodySize, &body); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		res, err := d.Resources.Create(r.Context(), mw.ActorFrom(r.Context()), resources.CreateInput{
			Title:       body.Title,
			Description: body.Description,
			URL:         body.URL,
			Type:        domain.ResourceType(body.Type),
			CoverImage:  body.CoverImage,
			IsVisible:   body.IsVisible,
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		w.Header().Set("Location", "/api/resources/"+res.ID)
		writeJSON(w, http.StatusCreated, toResourceJSON(res))
	}
}

// UpdateResource serves PATCH /api/resources/{id}.
func UpdateResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateResourceRequest
		if err := decodeJSON(w, r, d.MaxRequestBodySize, &body); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		in := resources.UpdateInput{
			Title:       body.Title,
			Description: body.Description,
			URL:         body.URL,
			CoverImage:  body.CoverImage,
			IsVisible:   body.IsVisible,
		}
		if body.Type != nil {
			t, err := domain.ParseResourceType(*body.Type)
			if err != nil {
				writeError(w, r, d.Logger, err)
				return
			}
			in.Type = &t
		}

		res, err := d.Resources.Update(r.Context(), mw.ActorFrom(r.Context()), chi.URLParam(r, "id"), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResourceJSON(res))
	}
}

// SetVisibility serves PATCH /api/resources/{id}/visibility.
func SetVisibility(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body visibilityRequest
		if err := decodeJSON(w, r, d.MaxRequestBodySize, &body); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if body.IsVisible == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "isVisible is required"})
			return
		}

		res, err := d.Resources.SetVisibility(r.Context(), mw.ActorFrom(r.Context()), chi.URLParam(r, "id"), *body.IsVisible)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResourceJSON(res))
	}
}

// DeleteResource serves DELETE /api/resources/{id}.
func DeleteResource(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Resources.Delete(r.Context(), mw.ActorFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
