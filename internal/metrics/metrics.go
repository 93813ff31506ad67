// Package metrics holds the Prometheus collectors of the console.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agentconsole"

var (
	// RefreshTotal counts physical refresh operations by result.
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "refresh_total",
		Help:      "Token refresh operations by result.",
	}, []string{"result"})

	// RefreshWaitersTotal counts callers that joined an already running refresh.
	RefreshWaitersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "refresh_waiters_total",
		Help:      "Requests that waited on a refresh started by another request.",
	})

	// RetriesTotal counts requests re-issued after a successful refresh.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "retries_total",
		Help:      "Requests re-issued with a refreshed access token.",
	})

	ProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxy",
		Name:      "upstream_requests_total",
		Help:      "Forwarded requests by route and upstream status.",
	}, []string{"route", "status"})

	ProxyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxy",
		Name:      "upstream_failures_total",
		Help:      "Forwarding failures by route and class.",
	}, []string{"route", "class"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served by route pattern and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	SessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "events_total",
		Help:      "Session lifecycle events.",
	}, []string{"event"})
)
