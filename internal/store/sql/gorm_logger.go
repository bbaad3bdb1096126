package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
)

// gormLogger routes gorm's logging through the service logger.
type gormLogger struct {
	log           logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger returns a gorm logger that reports errors and slow queries.
// Record-not-found is not an error here.
func NewGormLogger(log logger.Logger, slowThreshold time.Duration) gormlogger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = time.Second
	}
	return &gormLogger{
		log:           log,
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		query, rows := fc()
		l.log.Error("query failed",
			logger.String("sql", query),
			logger.Int("rows", int(rows)),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		query, rows := fc()
		l.log.Warn("slow query",
			logger.String("sql", query),
			logger.Int("rows", int(rows)),
			logger.Duration("elapsed", elapsed),
			logger.Duration("threshold", l.slowThreshold))
	case l.level >= gormlogger.Info:
		query, rows := fc()
		l.log.Debug("query",
			logger.String("sql", query),
			logger.Int("rows", int(rows)),
			logger.Duration("elapsed", elapsed))
	}
}
