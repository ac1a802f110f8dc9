// Command simflow runs the reference random-walk simulation with the plugin
// scheduling core attached: an iteration-limit reporter, an exponential save
// scheduler, and a wall-clock progress logger.
//
// Usage:
//
//	simflow                       # run with defaults
//	simflow -config config.yaml   # run with a config file
//	simflow -resume <run-id>      # resume a checkpointed run
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/simflow/checkpoint"
	"github.com/BaSui01/simflow/config"
	"github.com/BaSui01/simflow/internal/metrics"
	"github.com/BaSui01/simflow/internal/telemetry"
	"github.com/BaSui01/simflow/plugin"
	"github.com/BaSui01/simflow/sim"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	resumeID := flag.String("resume", "", "run ID to resume from its latest checkpoint")
	flag.Parse()

	if err := run(*configPath, *resumeID); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "simflow: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, resumeID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector("simflow", registry, logger)

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, registry, logger)
	}

	store, err := openStore(cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer store.Close()

	if resumeID != "" {
		return resumeRun(ctx, cfg, store, collector, logger, resumeID)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Run.Replicas; i++ {
		seed := cfg.Run.Seed + uint64(i)
		g.Go(func() error {
			runner := newRunner(cfg, store, collector, logger,
				sim.NewRandomWalk(seed, cfg.Run.Temperature))
			return runner.Run(ctx)
		})
	}
	return g.Wait()
}

// newRunner assembles one replica: a fresh walk, its plugin set, and the
// shared store and collector. Each replica gets its own manager, since
// scheduling state is only meaningful for one plugin list.
func newRunner(cfg config.Config, store checkpoint.Store, collector *metrics.Collector,
	logger *zap.Logger, walk *sim.RandomWalk) *sim.Runner {

	plugins := []plugin.Plugin[*sim.State]{
		plugin.NewReport[*sim.State](cfg.Run.MaxMoves, logger),
	}
	if cfg.Run.SaveSchedule {
		plugins = append(plugins, plugin.NewSaver[*sim.State]())
	}
	if cfg.Run.WallClockInterval > 0 {
		plugins = append(plugins, plugin.NewWallClockLogger[*sim.State](
			cfg.Run.WallClockInterval, cfg.Run.WallClockStepPeriod))
	}

	return sim.NewRunner(walk, plugins,
		sim.WithStore(store),
		sim.WithCollector(collector),
		sim.WithLogger(logger),
		sim.WithMaxSteps(cfg.Run.MaxSteps),
	)
}

func resumeRun(ctx context.Context, cfg config.Config, store checkpoint.Store,
	collector *metrics.Collector, logger *zap.Logger, runID string) error {

	runner := newRunner(cfg, store, collector, logger,
		sim.NewRandomWalk(cfg.Run.Seed, cfg.Run.Temperature))
	if err := runner.Resume(ctx, runID); err != nil {
		return err
	}
	return runner.Run(ctx)
}

func openStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Type {
	case checkpoint.StoreTypeFile:
		return checkpoint.NewFileStore(cfg.Dir)
	case checkpoint.StoreTypeRedis:
		return checkpoint.NewRedisStore(cfg.Redis)
	case checkpoint.StoreTypeSQLite:
		return checkpoint.NewGormStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown checkpoint store type %q", cfg.Type)
	}
}

// startMetricsServer serves prometheus metrics until ctx is cancelled.
func startMetricsServer(ctx context.Context, addr string, registry *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
