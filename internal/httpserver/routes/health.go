package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/handlers"
)

func init() {
	Register(registerHealthz)
	Register(registerProbes, cidrOnly)
}

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
}
