package mw

import (
	"net/http"
	"strings"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/utils"
)

// EnforceHost admits a request only if its Host matches one of the
// allowed patterns. "*.example.com" matches any subdomain. Ports are
// ignored and matching is case-insensitive. An empty list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			patterns = append(patterns, h)
		}
	}
	if len(patterns) == 0 {
		log.Debug("host enforcement disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.HostOnly(r.Host))
			for _, p := range patterns {
				if matchHost(host, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("request rejected by host enforcement", logger.String("host", r.Host))
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func matchHost(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	}
	return false
}
