package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/4lexxe/DevsProject-sub004/internal/cache"
	"github.com/4lexxe/DevsProject-sub004/internal/config"
	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
	"github.com/4lexxe/DevsProject-sub004/internal/index"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/redis"
	"github.com/4lexxe/DevsProject-sub004/internal/resources"
	"github.com/4lexxe/DevsProject-sub004/internal/scheduler"
	"github.com/4lexxe/DevsProject-sub004/internal/search"
	"github.com/4lexxe/DevsProject-sub004/internal/sources/seed"
	sqlstore "github.com/4lexxe/DevsProject-sub004/internal/store/sql"
	redisstore "github.com/4lexxe/DevsProject-sub004/internal/store/redis"
	"github.com/4lexxe/DevsProject-sub004/internal/utils"
	"github.com/4lexxe/DevsProject-sub004/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *gorm.DB
	redisClient *goredis.Client
	subscriber  *redisstore.Subscriber
	reloader    *scheduler.SeedReloader
}

// store is what the app needs from a backing repository.
type store interface {
	domain.ResourceRepository
	seed.OwnerWriter
	seed.Ledger
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog,
		logger.String("service", "resourcesearch"),
		logger.String("version", version.Version))

	startCtx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout+cfg.RedisConnectTimeout+time.Second)
	defer cancel()

	// Database - fail fast if unavailable
	var (
		repo   store
		db     *gorm.DB
		dbPing func(ctx context.Context) error
	)
	if cfg.DBDriver == config.DriverMemory {
		loggerClient.Warn("using in-memory storage, data is lost on restart")
		repo = index.NewMemoryIndex()
	} else {
		loggerClient.Info("connecting to database", logger.String("driver", cfg.DBDriver))
		var err error
		db, err = sqlstore.Open(startCtx, sqlstore.ConnectOptions{
			Driver:          cfg.DBDriver,
			DSN:             cfg.DBDSN,
			AutoMigrate:     cfg.DBAutoMigrate,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			SlowThreshold:   cfg.DBSlowThreshold,
			Retry: utils.Backoff{
				Initial: cfg.DBRetryInterval,
				Max:     cfg.DBMaxWait,
				Total:   cfg.DBConnectTimeout,
				Attempt: cfg.DBPingTimeout,
			},
			WarnThreshold: cfg.DBWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		repo = sqlstore.NewRepository(db, loggerClient)
		dbPing = func(ctx context.Context) error { return sqlstore.Ping(ctx, db) }
		loggerClient.Info("database initialized successfully")
	}

	// Caches and services
	cacheOpts := cache.Options{TTL: cfg.CacheTTL, Capacity: cfg.CacheCapacity}
	pages := cache.New[search.Page](cacheOpts)
	entities := cache.New[*domain.Resource](cacheOpts)

	searchSvc := search.NewService(repo, pages, loggerClient)

	// Redis invalidation bus (optional)
	var (
		redisClient *goredis.Client
		subscriber  *redisstore.Subscriber
		svcOpts     []resources.Option
		bus         *redisstore.Bus
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		var err error
		redisClient, err = redis.New(startCtx, redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry: utils.Backoff{
				Initial: cfg.RedisRetryInterval,
				Max:     cfg.RedisMaxWait,
				Total:   cfg.RedisConnectTimeout,
				Attempt: cfg.RedisPingTimeout,
			},
			WarnThreshold: cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		bus = redisstore.NewBus(redisClient, loggerClient)
		svcOpts = append(svcOpts, resources.WithPublisher(bus))
		loggerClient.Info("Redis initialized successfully", logger.String("instance", bus.Instance()))
	} else {
		loggerClient.Info("redis not configured, cache invalidation stays local to this instance")
	}

	resourceSvc := resources.NewService(repo, pages, entities, loggerClient, svcOpts...)
	if bus != nil {
		subscriber = redisstore.NewSubscriber(bus, resourceSvc)
	}

	// Seeding (optional)
	var (
		reloader       *scheduler.SeedReloader
		reloadTrigger  chan struct{}
		seedLastReload func() time.Time
	)
	if cfg.SeedFile != "" {
		reloadTrigger = make(chan struct{}, 1)
		seeder := seed.NewSeeder(cfg.SeedFile, repo, repo, repo, resourceSvc, loggerClient)
		reloader = scheduler.NewSeedReloader(seeder, loggerClient, cfg.SeedReloadInterval, reloadTrigger)
		seedLastReload = func() time.Time {
			at, _ := reloader.LastReload()
			return at
		}
	} else {
		loggerClient.Info("seed file not configured, seeding disabled")
	}

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		Search:      searchSvc,
		Resources:   resourceSvc,
		PageCache:   pages,
		EntityCache: entities,
		DBDriver:    cfg.DBDriver,
		DBPing:      dbPing,
		RedisClient: redisClient,
		Auth: mw.AuthConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
		},
		RateLimit: mw.RateLimitConfig{
			Burst:             cfg.RateLimitBurst,
			RefillPerIPPerMin: cfg.RateLimitRefill,
			MaxEntries:        cfg.RateLimitMaxEntries,
		},
		AllowedHosts:       cfg.AllowedHosts,
		AllowedCIDRS:       cfg.AllowedCIDRS,
		TrustProxy:         cfg.TrustProxy,
		SeedReloadTrigger:  reloadTrigger,
		SeedLastReload:     seedLastReload,
		MaxRequestBodySize: 1 << 20,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
		subscriber:  subscriber,
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting resource search v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("resourcesearch %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.subscriber != nil {
		if err := a.subscriber.Start(ctx); err != nil {
			return fmt.Errorf("failed to start invalidation subscriber: %w", err)
		}
		a.logger.Info("invalidation subscriber started")
	}

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.SeedReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}
	if a.subscriber != nil {
		a.subscriber.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("Redis closed cleanly")
		}
	}
	if a.db != nil {
		if err := sqlstore.Close(a.db); err != nil {
			a.logger.Warnf("failed to close database: %v", err)
		} else {
			a.logger.Info("database closed cleanly")
		}
	}

	a.logger.Info("resource search stopped cleanly")
	return nil
}
