package service

import (
	"context"
	"time"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/metrics"
)

// IdleEnder ends sessions that have not been touched since a point in time.
type IdleEnder interface {
	EndIdle(ctx context.Context, before time.Time) (int64, error)
}

// Janitor periodically ends sessions idle for longer than maxIdle. Stores with
// native expiry (redis) do not need one.
type Janitor struct {
	store    IdleEnder
	maxIdle  time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

func NewJanitor(store IdleEnder, maxIdle, interval time.Duration, logger *logger.Logger) *Janitor {
	return &Janitor{
		store:    store,
		maxIdle:  maxIdle,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = j.Sweep(ctx)
		}
	}
}

// Sweep ends idle sessions once and returns how many were ended.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	n, err := j.store.EndIdle(ctx, j.now().Add(-j.maxIdle))
	if err != nil {
		j.logger.Error("Session janitor: sweep failed", "error", err.Error())
		return 0, err
	}
	if n > 0 {
		metrics.SessionEventsTotal.WithLabelValues("expired").Add(float64(n))
		j.logger.Info("Session janitor: ended idle sessions", "count", n)
	}
	return n, nil
}
