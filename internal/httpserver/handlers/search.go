package handlers

import (
	"net/http"
	"strings"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/search"
)

type searchResponse struct {
	Total      int            `json:"total"`
	Results    []resourceJSON `json:"results"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// Search serves GET /api/resources/search?q=&limit=&cursor=&type=.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		req, err := search.ParseRequest(search.RawRequest{
			Query:         q.Get("q"),
			Limit:         q.Get("limit"),
			CreatedBefore: q.Get("cursor"),
			Type:          q.Get("type"),
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		page, err := d.Search.Search(r.Context(), req)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		resp := searchResponse{
			Total:   page.Total,
			Results: make([]resourceJSON, 0, len(page.Results)),
		}
		for _, res := range page.Results {
			resp.Results = append(resp.Results, toResourceJSON(res))
		}

		// Newest-first pages continue from the oldest result shown.
		if strings.TrimSpace(req.Query) == "" && len(page.Results) == req.Limit && page.Total > req.Limit {
			resp.NextCursor = search.Cursor(page.Results[len(page.Results)-1])
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
