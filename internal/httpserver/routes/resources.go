package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/handlers"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	r.Route("/api/resources", func(r chi.Router) {
		r.Use(mw.Authenticate(d.Auth, d.Logger))

		r.Get("/{id}", handlers.GetResource(d))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireActor)
			r.Post("/", handlers.CreateResource(d))
			r.Patch("/{id}", handlers.UpdateResource(d))
			r.Patch("/{id}/visibility", handlers.SetVisibility(d))
			r.Delete("/{id}", handlers.DeleteResource(d))
		})
	})
}
