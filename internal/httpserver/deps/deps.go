package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/resources"
	"github.com/4lexxe/DevsProject-sub004/internal/search"
)

// CacheStats reports the size of one result cache.
type CacheStats interface {
	Len() int
	Capacity() int
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Search    *search.Service    // ranked search over visible resources
	Resources *resources.Service // guarded mutations and single-resource reads

	PageCache   CacheStats                      // search page cache, reported by /infra
	EntityCache CacheStats                      // single resource cache, reported by /infra
	DBDriver    string                          // "postgres" | "sqlite" | "memory"
	DBPing      func(ctx context.Context) error // readiness probe for the database
	RedisClient *redis.Client                   // nil when the invalidation bus is disabled

	Auth      mw.AuthConfig      // bearer verification
	RateLimit mw.RateLimitConfig // per-IP limit on search

	AllowedHosts       []string      // Host headers allowed to reach admin endpoints
	AllowedCIDRS       []string      // IPs allowed to access infra and admin endpoints
	TrustProxy         bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	SeedReloadTrigger  chan struct{} // manual seed reload (nil if seeding disabled)
	SeedLastReload     func() time.Time
	MaxRequestBodySize int64 // bytes accepted on JSON bodies
}
