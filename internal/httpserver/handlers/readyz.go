package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready when the database answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.DBPing != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := d.DBPing(ctx); err != nil {
				d.Logger.Warn("readiness check failed", logger.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "database unavailable"})
				return
			}
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
