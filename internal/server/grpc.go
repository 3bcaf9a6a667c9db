package server

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/skatclub/skat-server-go/internal/config"
	"github.com/skatclub/skat-server-go/internal/session"
)

// TableService is the health service name reporting whether tables can be opened.
const TableService = "skat.Table"

// NewGRPCServer builds the gRPC server with the interceptor chain and a registered health
// service. Both the overall and the TableService status start as SERVING.
func NewGRPCServer(cfg config.GRPCConfig, logger *zap.Logger) (*grpc.Server, *health.Server) {
	streams := cfg.MaxConcurrentStreams
	if streams <= 0 {
		streams = 100
	}
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(streams)),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(TableService, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	return srv, healthSrv
}

// updateTableHealth reports TableService as NOT_SERVING while the table limit is reached.
func updateTableHealth(healthSrv *health.Server, sessions *session.Manager, maxTables int) {
	st := healthpb.HealthCheckResponse_SERVING
	if maxTables > 0 && sessions.Count() >= maxTables {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	healthSrv.SetServingStatus(TableService, st)
}

// ReportTableCapacity refreshes the TableService status every interval until ctx is cancelled.
func ReportTableCapacity(ctx context.Context, healthSrv *health.Server, sessions *session.Manager, maxTables int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	updateTableHealth(healthSrv, sessions, maxTables)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateTableHealth(healthSrv, sessions, maxTables)
		}
	}
}

// ChainUnaryInterceptors runs the interceptors in order, the first one outermost.
func ChainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		chained := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			next := chained
			chained = func(ctx context.Context, req any) (any, error) {
				return interceptor(ctx, req, info, next)
			}
		}
		return chained(ctx, req)
	}
}

// RecoveryInterceptor turns a panic in a handler into an Internal error.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, fmt.Sprintf("internal error: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every call with its duration and status code.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("host", extractHostFromContext(ctx)),
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err != nil {
			logger.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("rpc", fields...)
		}
		return resp, err
	}
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != net.Addr(nil) {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
