package mw

import (
	"net/http"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/utils"
)

// AllowOnlyCIDRS restricts a route to the given addresses and prefixes.
// An empty list disables the filter. trustProxy resolves the caller from
// proxy headers; set it only behind a trusted reverse proxy.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("cidr filter disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("cidr filter enabled",
		logger.Int("rules", m.Len()),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request rejected by cidr filter",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
