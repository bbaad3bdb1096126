package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler

	// MiddlewareFactory builds a middleware once the dependencies are known.
	MiddlewareFactory func(d deps.Deps) Middleware
)

type entry struct {
	reg Registrar
	mws []MiddlewareFactory
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...MiddlewareFactory) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll mounts every registrar. Called once from New.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]Middleware, 0, len(e.mws))
		for _, f := range e.mws {
			built = append(built, f(d))
		}
		e.reg(r.With(built...), d)
	}
}

// rateLimited applies the per-IP search limit.
func rateLimited(d deps.Deps) Middleware {
	cfg := d.RateLimit
	cfg.TrustProxy = d.TrustProxy
	return mw.RateLimit(cfg)
}

// cidrOnly restricts a route to the configured networks.
func cidrOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}
