package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database drivers accepted by DEVS_DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler timeout (ex: 5s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Database
	DBDriver          string        // "postgres" | "sqlite" | "memory"
	DBDSN             string        // required unless DBDriver is "memory"
	DBAutoMigrate     bool          // create tables on startup (dev / sqlite)
	DBMaxOpenConns    int           // connection pool size (0 = driver default)
	DBMaxIdleConns    int           // idle pool size (0 = driver default)
	DBConnMaxLifetime time.Duration // recycle connections after this long (0 = never)
	DBSlowThreshold   time.Duration // log queries slower than this
	DBConnectTimeout  time.Duration // total time to retry connecting (ex: 30s)
	DBRetryInterval   time.Duration // initial wait between retries (ex: 2s, grows exponentially)
	DBMaxWait         time.Duration // max wait between retries (ex: 10s)
	DBPingTimeout     time.Duration // timeout for each ping attempt (ex: 5s)
	DBWarnThreshold   int           // warn after this many attempts

	// Auth
	JWTSecret string // required, HS256 key used to verify bearer tokens
	JWTIssuer string // optional, expected "iss" claim

	// Caches
	CacheTTL      time.Duration // lifetime of cached pages and entities (default: 300s)
	CacheCapacity int           // max entries per cache (default: 1000)

	// Seed
	SeedFile           string        // optional YAML fixture file (empty = no seeding)
	SeedReloadInterval time.Duration // re-apply the seed file on this interval (0 = once at startup)

	// Redis invalidation bus (empty address = single instance, bus disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Search rate limiting (per client IP token bucket)
	RateLimitBurst      int // bucket size
	RateLimitRefill     int // tokens added per IP per minute
	RateLimitMaxEntries int // sweep idle buckets when this many are tracked

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to specific networks (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	CORSAllowedOrigins []string // browser origins allowed to call the API, "*" for any
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("DEVS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DEVS_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("DEVS_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("DEVS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DEVS_PRETTY_LOG", false),

		// Database settings
		DBDriver:          getenv("DEVS_DB_DRIVER", DriverPostgres),
		DBDSN:             getenv("DEVS_DB_DSN", ""),
		DBAutoMigrate:     mustBool("DEVS_DB_AUTOMIGRATE", false),
		DBMaxOpenConns:    getenvInt("DEVS_DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    getenvInt("DEVS_DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: mustDuration("DEVS_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		DBSlowThreshold:   mustDuration("DEVS_DB_SLOW_THRESHOLD", time.Second),
		DBConnectTimeout:  mustDuration("DEVS_DB_CONNECT_TIMEOUT", 30*time.Second),
		DBRetryInterval:   mustDuration("DEVS_DB_RETRY_INTERVAL", 2*time.Second),
		DBMaxWait:         mustDuration("DEVS_DB_MAX_WAIT", 10*time.Second),
		DBPingTimeout:     mustDuration("DEVS_DB_PING_TIMEOUT", 5*time.Second),
		DBWarnThreshold:   getenvInt("DEVS_DB_WARN_THRESHOLD", 3),

		// Auth
		JWTSecret: requireEnv("DEVS_JWT_SECRET"),
		JWTIssuer: getenv("DEVS_JWT_ISSUER", ""),

		// Caches
		CacheTTL:      mustDuration("DEVS_CACHE_TTL", 300*time.Second),
		CacheCapacity: getenvInt("DEVS_CACHE_CAPACITY", 1000),

		// Seed
		SeedFile:           getenv("DEVS_SEED_FILE", ""),
		SeedReloadInterval: mustDuration("DEVS_SEED_RELOAD_INTERVAL", 0),

		// Redis settings
		RedisAddr:             getenv("DEVS_REDIS_ADDR", ""),
		RedisUser:             getenv("DEVS_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("DEVS_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("DEVS_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("DEVS_REDIS_DB", 0),
		RedisDT:               mustDuration("DEVS_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("DEVS_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("DEVS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("DEVS_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("DEVS_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("DEVS_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("DEVS_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("DEVS_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("DEVS_REDIS_WARN_THRESHOLD", 3),

		// Rate limiting
		RateLimitBurst:      getenvInt("DEVS_RATE_LIMIT_BURST", 30),
		RateLimitRefill:     getenvInt("DEVS_RATE_LIMIT_REFILL_PER_MIN", 120),
		RateLimitMaxEntries: getenvInt("DEVS_RATE_LIMIT_MAX_ENTRIES", 10000),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("DEVS_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("DEVS_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DEVS_TRUST_PROXY", false),

		CORSAllowedOrigins: splitAndTrim(getenv("DEVS_CORS_ALLOWED_ORIGINS", "*")),
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite:
		cfg.DBDSN = requireEnv("DEVS_DB_DSN")
	case DriverMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: DEVS_DB_DRIVER must be postgres, sqlite or memory, got %q", cfg.DBDriver))
	}

	if cfg.CacheTTL <= 0 || cfg.CacheCapacity <= 0 {
		panic("❌ FATAL: DEVS_CACHE_TTL and DEVS_CACHE_CAPACITY must be positive")
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: DEVS_REDIS_PASSWORD is required when DEVS_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	cp.DBDSN = "***REDACTED***"
	cp.JWTSecret = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// RedisEnabled reports whether the invalidation bus is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
