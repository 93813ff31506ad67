package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	goredis "github.com/redis/go-redis/v9"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/reflection"

	grpchealth "github.com/dtroode/agentconsole/internal/api/grpc/health"
	grpcrouter "github.com/dtroode/agentconsole/internal/api/grpc/router"
	grpcServer "github.com/dtroode/agentconsole/internal/api/grpc/server"
	httpctx "github.com/dtroode/agentconsole/internal/api/http/context"
	"github.com/dtroode/agentconsole/internal/api/http/handler"
	"github.com/dtroode/agentconsole/internal/api/http/middleware"
	"github.com/dtroode/agentconsole/internal/api/http/proxy"
	httprouter "github.com/dtroode/agentconsole/internal/api/http/router"
	httpServer "github.com/dtroode/agentconsole/internal/api/http/server"
	"github.com/dtroode/agentconsole/internal/config"
	"github.com/dtroode/agentconsole/internal/identity"
	"github.com/dtroode/agentconsole/internal/logger"
	"github.com/dtroode/agentconsole/internal/model"
	"github.com/dtroode/agentconsole/internal/repository/postgres"
	"github.com/dtroode/agentconsole/internal/server"
	"github.com/dtroode/agentconsole/internal/service"
	miniostore "github.com/dtroode/agentconsole/internal/storage/minio"
	redisstore "github.com/dtroode/agentconsole/internal/storage/redis"
	"github.com/dtroode/agentconsole/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const healthInterval = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	store, probe, janitor, closeStore := openSessionStore(ctx, cfg, logger)
	defer closeStore()

	sessions := service.NewSession(store, token.NewInspector(), logger)
	ctxMgr := httpctx.NewManager()
	refresher := identity.NewClient(cfg.Identity.RefreshURL, cfg.Identity.Timeout, logger)

	rt := httprouter.New(
		handler.NewSession(sessions, ctxMgr, handler.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTL,
		}, logger),
		handler.NewRefresh(refresher, sessions, ctxMgr, logger),
		middleware.NewSession(sessions, ctxMgr, cfg.Session.CookieName, logger),
		proxy.New(cfg.Backend.URL, ctxMgr, logger),
		logger,
		httprouter.Options{
			CORSOrigins:  cfg.HTTP.CORSOrigins,
			RateLimit:    cfg.HTTP.RateLimit,
			RateWindow:   cfg.HTTP.RateWindow,
			LightTimeout: cfg.Backend.LightTimeout,
			HeavyTimeout: cfg.Backend.HeavyTimeout,
		},
	)
	consoleServer := httpServer.NewHTTPServer(rt.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.Backend.HeavyTimeout+5*time.Second)

	healthServer := health.NewServer()
	grpcSrv := grpcrouter.New(healthServer, logger).Register()
	reflection.Register(grpcSrv)
	healthGRPCServer := grpcServer.NewGRPCServer(grpcSrv, fmt.Sprintf(":%s", cfg.GRPC.Port))

	checker := grpchealth.NewChecker(healthServer, map[string]grpchealth.Probe{
		grpchealth.ServiceSessions: probe,
	}, healthInterval, logger)

	var wg sync.WaitGroup
	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}()
	}
	start(consoleServer, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName))
	start(healthGRPCServer, server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName))

	wg.Add(1)
	go func() {
		defer wg.Done()
		checker.Run(ctx)
	}()

	if janitor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			janitor.Run(ctx)
		}()
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range []model.Server{consoleServer, healthGRPCServer} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// openSessionStore connects the configured session backend. The janitor is
// nil for backends that expire sessions on their own.
func openSessionStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.SessionStore, grpchealth.Probe, *service.Janitor, func()) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		probe := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return redisstore.NewSessionStore(rdb, cfg.Redis.Prefix, cfg.Session.TTL), probe, nil, func() { _ = rdb.Close() }

	case config.SessionBackendMinio:
		minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		objects, err := miniostore.NewClient(ctx, minioClient, cfg.Storage.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		probe := func(ctx context.Context) error {
			_, err := objects.Exists(ctx, "health")
			return err
		}
		return miniostore.NewSessionStore(objects), probe, nil, func() {}

	default:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN, postgres.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		repo := postgres.NewSessionRepository(db)
		var janitor *service.Janitor
		if cfg.Session.JanitorInterval > 0 {
			janitor = service.NewJanitor(repo, cfg.Session.TTL, cfg.Session.JanitorInterval, logger)
		}
		return repo, db.Ping, janitor, func() { _ = db.Close() }
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
