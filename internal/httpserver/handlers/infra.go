package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Entries    *int   `json:"entries,omitempty"`
	Capacity   *int   `json:"capacity,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every backing component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"database":     checkDatabase(r.Context(), d),
			"redis":        checkRedis(r.Context(), d),
			"page_cache":   cacheStatus(d.PageCache),
			"entity_cache": cacheStatus(d.EntityCache),
		}
		if d.SeedLastReload != nil {
			components["seed"] = seedStatus(d.SeedLastReload())
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if db, ok := components["database"]; ok && !db.OK {
		return "critical" // search and mutations fail without the database
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded" // sibling instances serve stale pages until TTL
	}
	return "operational"
}

func checkDatabase(ctx context.Context, d deps.Deps) componentStatus {
	if d.DBPing == nil {
		return componentStatus{OK: true, Mode: d.DBDriver}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.DBPing(ctx); err != nil {
		return componentStatus{OK: false, Mode: d.DBDriver, Error: "unreachable"}
	}
	return componentStatus{OK: true, Mode: d.DBDriver}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "single-instance-invalidation",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "cross-instance-invalidation-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "cross-instance-invalidation-enabled",
	}
}

func cacheStatus(c deps.CacheStats) componentStatus {
	if c == nil {
		return componentStatus{OK: false, Error: "not configured"}
	}
	entries, capacity := c.Len(), c.Capacity()
	return componentStatus{OK: true, Entries: &entries, Capacity: &capacity}
}

func seedStatus(last time.Time) componentStatus {
	if last.IsZero() {
		return componentStatus{OK: false, LastReload: "never"}
	}
	return componentStatus{OK: true, LastReload: last.UTC().Format(time.RFC3339)}
}
