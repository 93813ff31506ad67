// Package health reports backing-store availability through the standard
// gRPC health service.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/agentconsole/internal/logger"
)

// ServiceSessions is the health service name of the session store.
const ServiceSessions = "agentconsole.sessions"

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Checker periodically runs probes and publishes their state.
type Checker struct {
	server   *health.Server
	probes   map[string]Probe
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

// NewChecker creates a Checker publishing to server. Probes are keyed by
// health service name.
func NewChecker(server *health.Server, probes map[string]Probe, interval time.Duration, logger *logger.Logger) *Checker {
	return &Checker{
		server:   server,
		probes:   probes,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Run checks every probe once, then every interval until ctx ends. On return
// all services are marked NOT_SERVING.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.CheckOnce(ctx)
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// CheckOnce runs every probe and updates the health server. The overall
// service ("") is SERVING only when all probes pass.
func (c *Checker) CheckOnce(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING

	for name, probe := range c.probes {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := probe(pctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
			c.logger.Warn("Health checker: probe failed",
				"service", name,
				"error", err)
		}
		c.server.SetServingStatus(name, st)
	}

	c.server.SetServingStatus("", overall)
}
