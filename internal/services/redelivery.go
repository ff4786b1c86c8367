package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reclaimer takes over messages other consumers left pending.
type Reclaimer interface {
	Reclaim(ctx context.Context) (int, error)
}

// Janitor drops dead letters older than a point in time.
type Janitor interface {
	Cleanup(olderThan time.Time) (int, error)
}

// RedeliveryConfig controls the sweeper schedule.
type RedeliveryConfig struct {
	Schedule  string
	Timeout   time.Duration
	Retention time.Duration
}

// RedeliverySweeper periodically reclaims abandoned messages so they are
// delivered again, and expires old dead letters.
type RedeliverySweeper struct {
	reclaimer Reclaimer
	janitor   Janitor
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RedeliveryConfig
}

func NewRedeliverySweeper(reclaimer Reclaimer, janitor Janitor, logger *zap.Logger, cfg RedeliveryConfig) (*RedeliverySweeper, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 15s"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rs := &RedeliverySweeper{
		reclaimer: reclaimer,
		janitor:   janitor,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	if _, err := rs.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := rs.Sweep(ctx); err != nil {
			rs.logger.Error("redelivery sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	return rs, nil
}

// Start launches the cron scheduler.
func (rs *RedeliverySweeper) Start() {
	if rs == nil || rs.cron == nil {
		return
	}
	rs.cron.Start()
	rs.logger.Info("redelivery sweeper started", zap.String("schedule", rs.cfg.Schedule))
}

// Stop waits for a running sweep or ctx, whichever ends first.
func (rs *RedeliverySweeper) Stop(ctx context.Context) {
	if rs == nil || rs.cron == nil {
		return
	}
	stopCtx := rs.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	rs.logger.Info("redelivery sweeper stopped")
}

// Sweep runs one pass synchronously.
func (rs *RedeliverySweeper) Sweep(ctx context.Context) error {
	var result error
	if rs.reclaimer != nil {
		claimed, err := rs.reclaimer.Reclaim(ctx)
		if err != nil {
			result = errors.Join(result, err)
		}
		if claimed > 0 {
			rs.logger.Info("reclaimed pending messages", zap.Int("count", claimed))
		}
	}
	if rs.janitor != nil && rs.cfg.Retention > 0 {
		removed, err := rs.janitor.Cleanup(time.Now().Add(-rs.cfg.Retention))
		if err != nil {
			result = errors.Join(result, err)
		}
		if removed > 0 {
			rs.logger.Info("expired dead letters", zap.Int("count", removed))
		}
	}
	return result
}
