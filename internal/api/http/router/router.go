package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/agentconsole/internal/api/http/handler"
	"github.com/dtroode/agentconsole/internal/api/http/middleware"
	"github.com/dtroode/agentconsole/internal/api/http/proxy"
	"github.com/dtroode/agentconsole/internal/logger"
)

// Options tunes the cross-cutting HTTP middleware.
type Options struct {
	CORSOrigins  []string
	RateLimit    int
	RateWindow   time.Duration
	LightTimeout time.Duration
	HeavyTimeout time.Duration
}

// Router wires the console HTTP surface.
type Router struct {
	session  *handler.Session
	refresh  *handler.Refresh
	resolver *middleware.Session
	proxy    *proxy.Client
	logger   *logger.Logger
	opts     Options
}

// New creates new HTTP Router instance.
func New(
	session *handler.Session,
	refresh *handler.Refresh,
	resolver *middleware.Session,
	forwarder *proxy.Client,
	logger *logger.Logger,
	opts Options,
) *Router {
	if opts.LightTimeout <= 0 {
		opts.LightTimeout = proxy.LightTimeout
	}
	if opts.HeavyTimeout <= 0 {
		opts.HeavyTimeout = proxy.HeavyTimeout
	}
	return &Router{
		session:  session,
		refresh:  refresh,
		resolver: resolver,
		proxy:    forwarder,
		logger:   logger,
		opts:     opts,
	}
}

// Register builds the chi router with all routes and middleware.
func (rt *Router) Register() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLogging(rt.logger).Handle)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAll(rt.opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if rt.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.opts.RateLimit, rt.opts.RateWindow))
		}
		r.Use(rt.resolver.Handle)

		r.Route("/session", func(r chi.Router) {
			r.Post("/", rt.session.Create)
			r.Get("/", rt.session.Get)
			r.Delete("/", rt.session.Delete)
			r.Put("/tokens", rt.session.UpdateTokens)
		})
		r.Post("/auth/refresh", rt.refresh.Refresh)

		r.Route("/api", rt.registerForwardRoutes)
	})

	return r
}

func (rt *Router) registerForwardRoutes(r chi.Router) {
	light := func(name, upstream string) http.HandlerFunc {
		return rt.proxy.Forward(proxy.Route{Name: name, Upstream: upstream, Timeout: rt.opts.LightTimeout})
	}
	heavy := func(name, upstream string) http.HandlerFunc {
		return rt.proxy.Forward(proxy.Route{Name: name, Upstream: upstream, Timeout: rt.opts.HeavyTimeout})
	}

	r.Get("/dashboard", heavy("dashboard", "/dashboard/"))

	r.Get("/orders", light("orders.list", "/orders/"))
	r.Post("/orders", heavy("orders.create", "/orders/"))
	r.Get("/orders/*", light("orders.get", "/orders/"))
	r.Put("/orders/*", heavy("orders.update", "/orders/"))
	r.Patch("/orders/*", heavy("orders.update", "/orders/"))
	r.Delete("/orders/*", heavy("orders.delete", "/orders/"))

	r.Get("/offices", light("offices.list", "/offices/"))
	r.Get("/offices/*", light("offices.get", "/offices/"))

	r.Get("/wallets", light("wallets.list", "/wallets/"))
	r.Get("/wallets/*", light("wallets.get", "/wallets/"))
	r.Post("/wallets/*", heavy("wallets.operate", "/wallets/"))
}

func originsOrAll(in []string) []string {
	out := []string{}
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
