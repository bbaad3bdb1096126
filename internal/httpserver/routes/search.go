package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/handlers"
)

func init() { Register(registerSearch, rateLimited) }

func registerSearch(r chi.Router, d deps.Deps) {
	r.Get("/api/resources/search", handlers.Search(d))
}
