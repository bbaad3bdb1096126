package handlers

import (
	"fmt"
	"net/http"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// ReloadSeed serves POST /api/admin/seed/reload. Elevated roles only.
func ReloadSeed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := mw.ActorFrom(r.Context())
		if actor == nil {
			writeError(w, r, d.Logger, domain.ErrUnauthenticated)
			return
		}
		if !actor.Role.Elevated() {
			writeError(w, r, d.Logger, fmt.Errorf("%w: seed reload requires an elevated role", domain.ErrForbidden))
			return
		}

		if d.SeedReloadTrigger == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "seeding is disabled"})
			return
		}

		select {
		case d.SeedReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed reload triggered via endpoint",
				logger.String("actor", actor.ID),
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, statusResponse{Status: "reload triggered"})
		default:
			d.Logger.Warn("seed reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, statusResponse{Status: "reload already in progress"})
		}
	}
}
