package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/handlers"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(cidrOnly(d))
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.Authenticate(d.Auth, d.Logger))
		r.Use(mw.RequireActor)

		r.Post("/cache/flush", handlers.FlushCache(d))
		r.Post("/seed/reload", handlers.ReloadSeed(d))
	})
}
