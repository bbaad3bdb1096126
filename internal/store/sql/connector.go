package sql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConnectOptions defines the database connection and its startup retry behavior.
type ConnectOptions struct {
	Driver          string        // "postgres" or "sqlite"
	DSN             string        // driver specific data source name
	AutoMigrate     bool          // create tables on startup
	MaxOpenConns    int           // 0 leaves the driver default
	MaxIdleConns    int           // 0 leaves the driver default
	ConnMaxLifetime time.Duration // 0 means connections are reused forever
	SlowThreshold   time.Duration // queries slower than this are logged as warnings

	Retry         utils.Backoff // startup ping policy
	WarnThreshold int           // escalate to error after this many attempts
}

// Open connects to the database and pings it until it answers or the retry
// budget runs out.
func Open(ctx context.Context, opts ConnectOptions, log logger.Logger) (*gorm.DB, error) {
	if err := opts.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	dialector, err := dialectorFor(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.String("driver", opts.Driver))

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   NewGormLogger(log, opts.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	log.Info("connecting to database", logger.Duration("timeout", opts.Retry.Total))

	start := time.Now()
	attempts, err := utils.Retry(ctx, opts.Retry,
		func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		func(ev utils.RetryEvent) {
			fields := []logger.Field{
				logger.Int("attempt", ev.Attempt),
				logger.Duration("next_retry_in", ev.NextWait),
				logger.Error(ev.Err),
			}
			if ev.Attempt <= opts.WarnThreshold {
				log.Warn("database connection failed, retrying", fields...)
			} else {
				log.Error("database still unavailable - connection attempts failing", fields...)
			}
		},
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database unavailable after %d attempts (timeout: %v): %w",
			attempts, opts.Retry.Total, err)
	}

	log.Info("connected to database",
		logger.Int("attempts", attempts),
		logger.Duration("elapsed", time.Since(start)))

	if opts.AutoMigrate {
		if err := Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		log.Info("database schema migrated")
	}

	return db, nil
}

// Ping checks that the database answers. Used by readiness probes.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want %s or %s)", driver, DriverPostgres, DriverSQLite)
	}
}
