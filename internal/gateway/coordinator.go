package gateway

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/metrics"
	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/token"
)

// refreshKey is the only singleflight key: one refresh per coordinator at a time,
// whatever refresh token the callers hold.
const refreshKey = "refresh"

// DefaultRefreshTimeout bounds a single refresh operation including the sink update.
const DefaultRefreshTimeout = 30 * time.Second

// Coordinator collapses concurrent refresh requests into one refresh operation.
// One Coordinator serves one session.
type Coordinator struct {
	refresher model.Refresher
	sink      model.SessionSink
	logger    *logger.Logger
	timeout   time.Duration

	group   singleflight.Group
	pending atomic.Bool
}

// NewCoordinator creates a Coordinator that refreshes through refresher and
// hands every new pair to sink before any waiter sees it.
func NewCoordinator(refresher model.Refresher, sink model.SessionSink, logger *logger.Logger) *Coordinator {
	return &Coordinator{
		refresher: refresher,
		sink:      sink,
		logger:    logger,
		timeout:   DefaultRefreshTimeout,
	}
}

// WithTimeout overrides DefaultRefreshTimeout. Zero disables the bound.
func (c *Coordinator) WithTimeout(d time.Duration) *Coordinator {
	c.timeout = d
	return c
}

// Pending reports whether a refresh operation is running.
func (c *Coordinator) Pending() bool {
	return c.pending.Load()
}

// RefreshOnce starts a refresh with refreshToken, or joins the one already running.
// All callers joined to the same operation get the same pair or the same error.
// The operation itself is not cancelled by ctx; ctx only stops this caller waiting.
func (c *Coordinator) RefreshOnce(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	started := false
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		started = true
		return c.refresh(context.WithoutCancel(ctx), refreshToken)
	})

	select {
	case res := <-ch:
		if !started {
			metrics.RefreshWaitersTotal.Inc()
		}
		if res.Err != nil {
			return model.TokenPair{}, res.Err
		}
		return res.Val.(model.TokenPair), nil
	case <-ctx.Done():
		return model.TokenPair{}, ctx.Err()
	}
}

func (c *Coordinator) refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	c.pending.Store(true)
	defer c.pending.Store(false)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Debug("Gateway: refreshing token pair",
		"refresh_fp", token.Fingerprint(refreshToken))

	pair, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("Gateway: token refresh failed",
			"refresh_fp", token.Fingerprint(refreshToken),
			"error", err.Error())
		return model.TokenPair{}, err
	}
	if err := pair.Validate(); err != nil {
		metrics.RefreshTotal.WithLabelValues("malformed").Inc()
		c.logger.Warn("Gateway: refresh returned incomplete token pair",
			"refresh_fp", token.Fingerprint(refreshToken))
		return model.TokenPair{}, fmt.Errorf("refresh response: %w", err)
	}

	if err := c.sink.UpdateTokens(ctx, pair); err != nil {
		metrics.RefreshTotal.WithLabelValues("sink_failed").Inc()
		c.logger.Error("Gateway: failed to propagate refreshed tokens",
			"access_fp", token.Fingerprint(pair.Access),
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("propagate refreshed tokens: %w", err)
	}

	metrics.RefreshTotal.WithLabelValues("succeeded").Inc()
	c.logger.Info("Gateway: token pair refreshed",
		"access_fp", token.Fingerprint(pair.Access),
		"duration_ms", time.Since(start).Milliseconds())

	return pair, nil
}
