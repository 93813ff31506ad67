package middleware

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/agentconsole/internal/logger"
)

const healthPrefix = "/grpc.health.v1.Health/"

// Logging is a unary interceptor that logs gRPC requests and results.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// HandleGRPC logs method, duration and status of each unary request. Health
// probes are logged at debug level only.
func (l *Logging) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"status", code.String(),
	}

	switch {
	case err != nil && code != codes.NotFound:
		l.logger.Error("gRPC request failed", append(args, "error", err.Error())...)
	case strings.HasPrefix(info.FullMethod, healthPrefix):
		l.logger.Debug("gRPC request completed", args...)
	default:
		l.logger.Info("gRPC request completed", args...)
	}

	return resp, err
}
