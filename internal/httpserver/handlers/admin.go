package handlers

import (
	"net/http"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
)

type statusResponse struct {
	Status string `json:"status"`
}

// FlushCache serves POST /api/admin/cache/flush. Elevated roles only.
func FlushCache(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Resources.Flush(r.Context(), mw.ActorFrom(r.Context())); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, statusResponse{Status: "flushed"})
	}
}
