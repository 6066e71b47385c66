package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

// UnaryChain builds the interceptor chain applied to every call:
// request ID propagation, panic recovery, metrics, logging.
func UnaryChain(logger *slog.Logger, metrics *RPCMetrics) grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		requestIDInterceptor(),
		recoveryInterceptor(logger),
		metricsInterceptor(metrics),
		loggingInterceptor(logger),
	)
}

func requestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			md = metadata.MD{}
		}

		var requestID string
		if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
			requestID = ids[0]
		} else {
			requestID = uuid.NewString()
			md.Set(requestIDHeader, requestID)
			ctx = metadata.NewIncomingContext(ctx, md)
		}

		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
		return handler(ctx, req)
	}
}

func recoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func metricsInterceptor(metrics *RPCMetrics) grpc.UnaryServerInterceptor {
	if metrics == nil {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			return handler(ctx, req)
		}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		metrics.Observe(info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		fields := []any{
			"method", info.FullMethod,
			"duration", elapsed,
		}
		if rid := RequestIDFromContext(ctx); rid != "" {
			fields = append(fields, "request_id", rid)
		}
		if err != nil {
			fields = append(fields, "error", err.Error())
			logger.Error("grpc request failed", fields...)
		} else {
			logger.Debug("grpc request completed", fields...)
		}
		return resp, err
	}
}

type requestIDKey struct{}

// RequestIDFromContext extracts the request ID set by the interceptor.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}
