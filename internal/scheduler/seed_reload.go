package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/sources/seed"
)

// Applier applies a seed file. Implemented by seed.Seeder.
type Applier interface {
	Apply(ctx context.Context) (seed.Result, error)
}

// SeedReloader applies the seed file at startup, then on every interval tick
// and manual trigger.
type SeedReloader struct {
	applier       Applier
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu         sync.RWMutex
	lastReload time.Time
	lastResult seed.Result
}

// NewSeedReloader creates a reloader. interval <= 0 disables periodic reloads;
// manualTrigger may be nil.
func NewSeedReloader(
	applier Applier,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *SeedReloader {
	return &SeedReloader{
		applier:       applier,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start applies the seed once and starts the background loop.
func (sr *SeedReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed failed: %w", err)
	}

	var tick <-chan time.Time
	var ticker *time.Ticker
	if sr.interval > 0 {
		ticker = time.NewTicker(sr.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed", logger.Error(err))
				}
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				if err := sr.Reload(ctx); err != nil {
					sr.logger.Error("failed to reload seed", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the background loop. Safe to call more than once.
func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Reload applies the seed file now.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	sr.logger.Info("applying seed file")

	res, err := sr.applier.Apply(ctx)
	if err != nil {
		return err
	}

	sr.mu.Lock()
	sr.lastReload = time.Now()
	sr.lastResult = res
	sr.mu.Unlock()

	return nil
}

// LastReload returns when the seed was last applied successfully and its result.
func (sr *SeedReloader) LastReload() (time.Time, seed.Result) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.lastReload, sr.lastResult
}
