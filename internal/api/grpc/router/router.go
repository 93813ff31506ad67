package router

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dtroode/agentconsole/internal/api/grpc/middleware"
	"github.com/dtroode/agentconsole/internal/logger"
)

// Router represents the gRPC surface of the console: the health service.
type Router struct {
	health *health.Server
	logger *logger.Logger
}

// New creates new gRPC Router instance.
func New(health *health.Server, logger *logger.Logger) *Router {
	return &Router{health: health, logger: logger}
}

// Register builds the gRPC server with logging and panic recovery.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoverOpt := recovery.WithRecoveryHandlerContext(func(_ context.Context, p any) error {
		r.logger.Error("gRPC handler panicked", "panic", fmt.Sprint(p))
		return status.Error(codes.Internal, "internal server error")
	})

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoverOpt),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoverOpt),
		),
	)
	healthpb.RegisterHealthServer(s, r.health)

	return s
}
