package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"streak-service/internal/logger"
)

// Sweeper is a dedup store that can drop expired keys
type Sweeper interface {
	Sweep() int
}

// DedupSweeper periodically drops expired notification keys
type DedupSweeper struct {
	store    Sweeper
	cron     *cron.Cron
	interval time.Duration
}

// NewDedupSweeper creates a new dedup sweeper
func NewDedupSweeper(store Sweeper, interval time.Duration) *DedupSweeper {
	return &DedupSweeper{
		store:    store,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start starts the sweeper
func (d *DedupSweeper) Start() error {
	cronExpr := fmt.Sprintf("@every %s", d.interval.String())

	if _, err := d.cron.AddFunc(cronExpr, d.sweep); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	d.cron.Start()
	logger.Info("dedup sweeper started", "interval", d.interval)
	return nil
}

// Stop stops the sweeper
func (d *DedupSweeper) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	logger.Info("dedup sweeper stopped")
}

func (d *DedupSweeper) sweep() {
	if removed := d.store.Sweep(); removed > 0 {
		logger.Debug("expired notification keys removed", "count", removed)
	}
}
