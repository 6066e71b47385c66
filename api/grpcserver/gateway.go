package grpcserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/subdarkdex/subdex-parachain/api/subdexpb"
)

// GatewayConfig carries the per-process listen addresses. The registry
// collects both node and RPC metrics so one scrape endpoint serves all.
type GatewayConfig struct {
	GRPCListenAddr    string
	MetricsListenAddr string
	Registry          *prometheus.Registry
	Logger            *slog.Logger
}

// Gateway bundles the gRPC server and the sidecar metrics listener.
// Main registers the Node service on GRPC() before calling Serve.
type Gateway struct {
	cfg           GatewayConfig
	logger        *slog.Logger
	grpcServer    *grpc.Server
	healthServer  *health.Server
	metricsServer *http.Server
	services      []string
}

// NewGateway builds a gateway with health and reflection enabled and the
// unary interceptor chain wired. The server codec handles both the
// hand-rolled subdexpb messages and the stock proto services.
func NewGateway(cfg GatewayConfig) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(subdexpb.Codec{}),
		UnaryChain(logger, NewRPCMetrics(reg)),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              cfg.MetricsListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Gateway{
		cfg:           cfg,
		logger:        logger,
		grpcServer:    grpcServer,
		healthServer:  healthServer,
		metricsServer: metricsServer,
		services:      make([]string, 0, 2),
	}
}

// Serve starts both listeners and blocks until context cancellation.
// Shutdown drains ongoing RPCs and gives the metrics listener 15
// seconds to finish in-flight scrapes.
func (g *Gateway) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.cfg.GRPCListenAddr)
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)

	go func() {
		g.logger.Info("metrics server starting", "addr", g.cfg.MetricsListenAddr)
		if err := g.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	go func() {
		g.logger.Info("grpc server starting", "addr", g.cfg.GRPCListenAddr)
		g.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		for _, svc := range g.services {
			g.healthServer.SetServingStatus(svc, grpc_health_v1.HealthCheckResponse_SERVING)
		}
		if err := g.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		g.logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	g.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	for _, svc := range g.services {
		g.healthServer.SetServingStatus(svc, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	g.grpcServer.GracefulStop()
	if err := g.metricsServer.Shutdown(shutdownCtx); err != nil {
		g.logger.Warn("metrics shutdown error", "error", err)
	}
	return nil
}

// GRPC exposes the server for service registration.
func (g *Gateway) GRPC() *grpc.Server {
	return g.grpcServer
}

// TrackService registers a service name with the health server so its
// status flips alongside the global one.
func (g *Gateway) TrackService(name string) {
	if name == "" {
		return
	}
	g.services = append(g.services, name)
	g.healthServer.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}
