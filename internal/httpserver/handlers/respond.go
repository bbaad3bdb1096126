package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// resourceJSON is the wire shape of a resource.
type resourceJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName"`
	IsVisible   bool      `json:"isVisible"`
	CoverImage  *string   `json:"coverImage"`
	StarCount   int       `json:"starCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toResourceJSON(r *domain.Resource) resourceJSON {
	return resourceJSON{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
		Type:        string(r.Type),
		OwnerID:     r.OwnerID,
		OwnerName:   r.OwnerName,
		IsVisible:   r.IsVisible,
		CoverImage:  r.CoverImage,
		StarCount:   r.StarCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error class to its status. Anything unclassified is a
// 500 whose detail stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var status int
	msg := err.Error()

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, domain.ErrUnauthenticated.Error()
	case errors.Is(err, domain.ErrForbidden):
		status, msg = http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, domain.ErrNotFound.Error()
	default:
		status, msg = http.StatusInternalServerError, "internal error"
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON body of at most maxBytes. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}
