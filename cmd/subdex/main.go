package main

// cmd/subdex is the shard node entrypoint. It wires config, logging,
// persistence, the node, the outbox broadcaster, and the gRPC gateway,
// then blocks until a shutdown signal.

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/subdarkdex/subdex-parachain/api/grpcserver"
	"github.com/subdarkdex/subdex-parachain/api/subdexpb"
	"github.com/subdarkdex/subdex-parachain/config"
	"github.com/subdarkdex/subdex-parachain/infra/journal"
	"github.com/subdarkdex/subdex-parachain/infra/kafka"
	"github.com/subdarkdex/subdex-parachain/infra/logging"
	"github.com/subdarkdex/subdex-parachain/infra/store"
	"github.com/subdarkdex/subdex-parachain/jobs/broadcaster"
	"github.com/subdarkdex/subdex-parachain/service"
)

var version = "dev"

func main() {
	var (
		configPath   string
		printVersion bool
	)
	flag.StringVar(&configPath, "config", "subdex.yaml", "path to the node configuration file")
	flag.BoolVar(&printVersion, "version", false, "print version information and exit")
	flag.Parse()

	if printVersion {
		fmt.Printf("subdex-node version %s\n", version)
		return
	}

	logger := logging.Setup()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("configuration rejected", "path", configPath, "error", err)
		os.Exit(1)
	}
	genesis, err := cfg.RuntimeGenesis()
	if err != nil {
		logger.Error("genesis rejected", "error", err)
		os.Exit(1)
	}

	logger.Info("starting subdex node",
		"version", version,
		"para", cfg.Chain.ParaID,
		"data_dir", cfg.Node.DataDir,
		"grpc_addr", cfg.Node.GRPCListenAddr,
		"metrics_addr", cfg.Node.MetricsListenAddr,
	)

	jnl, err := journal.Open(journal.Config{
		Dir:         filepath.Join(cfg.Node.DataDir, "journal"),
		SegmentSize: cfg.Node.JournalSegmentSize,
	})
	if err != nil {
		logger.Error("journal open failed", "error", err)
		os.Exit(1)
	}
	defer jnl.Close()

	st, err := store.Open(filepath.Join(cfg.Node.DataDir, "store"))
	if err != nil {
		logger.Error("store open failed", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var feed service.EventFeed
	if len(cfg.Feed.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Feed.Brokers, cfg.Feed.EventsTopic)
		defer producer.Close()
		feed = producer
	}

	staged := service.NewStagedQueue()
	node, err := service.NewNode(service.Options{
		Genesis:      genesis,
		Journal:      jnl,
		Store:        st,
		Feed:         feed,
		Inbound:      staged,
		Metrics:      service.NewMetrics(registry),
		Logger:       logger,
		PoolCapacity: cfg.Node.PoolCapacity,
	})
	if err != nil {
		logger.Error("node boot failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	node.StartSnapshotJob(ctx, time.Duration(cfg.Node.SnapshotIntervalS)*time.Second)

	if len(cfg.Feed.Brokers) > 0 {
		bc, err := broadcaster.New(st, cfg.Feed.Brokers, cfg.Feed.OutboundTopic, logger)
		if err != nil {
			logger.Error("broadcaster init failed", "error", err)
			os.Exit(1)
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	if cfg.Node.BlockIntervalMS > 0 {
		go authorLoop(ctx, cancel, node, time.Duration(cfg.Node.BlockIntervalMS)*time.Millisecond, logger)
	}

	gw := grpcserver.NewGateway(grpcserver.GatewayConfig{
		GRPCListenAddr:    cfg.Node.GRPCListenAddr,
		MetricsListenAddr: cfg.Node.MetricsListenAddr,
		Registry:          registry,
		Logger:            logger,
	})
	subdexpb.RegisterNodeServer(gw.GRPC(), grpcserver.NewServer(node, staged))
	gw.TrackService(subdexpb.Node_ServiceDesc.ServiceName)

	if err := gw.Serve(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// authorLoop seals a block on every tick. A sealing error is fatal:
// after a failed commit the in-memory state may be ahead of disk, and
// the only safe recovery is a restart through journal replay.
func authorLoop(ctx context.Context, cancel context.CancelFunc, node *service.Node, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := node.AuthorBlock(ctx, 0); err != nil {
				logger.Error("block authoring failed", "error", err)
				cancel()
				return
			}
		}
	}
}
