package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	archiveimpl "github.com/foxseedlab/jimakun/external/archive"
	audioimpl "github.com/foxseedlab/jimakun/external/audio"
	configloader "github.com/foxseedlab/jimakun/external/config"
	recognizerimpl "github.com/foxseedlab/jimakun/external/recognizer"
	webhookimpl "github.com/foxseedlab/jimakun/external/webhook"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
)

const (
	startTimeout     = 20 * time.Second
	snapshotInterval = 10 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching captioning pipeline")
	runCaptioner(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	archiveimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	recognizerimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	pipeline.RegisterDI(injector)

	return injector
}

func runCaptioner(cfg *config.Config, injector do.Injector) {
	p, err := do.Invoke[*pipeline.Pipeline](injector)
	if err != nil {
		slog.Error("failed to resolve pipeline", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		registry, err := do.Invoke[*prometheus.Registry](injector)
		if err != nil {
			slog.Error("failed to resolve metrics registry", "error", err)
			os.Exit(1)
		}
		go serveMetrics(cfg.MetricsAddr, registry)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	if err := p.Start(ctx); err != nil {
		slog.Error("failed to start capture session", "error", err)
		os.Exit(1)
	}

	stopWatching := make(chan struct{})
	go watchEvents(p, stopWatching)
	go logSnapshots(p, stopWatching)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	close(stopWatching)

	if err := p.Stop("signal received"); err != nil {
		slog.Error("capture session ended with error", "error", err)
		os.Exit(1)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	slog.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}

// watchEvents logs the pipeline's anomaly stream. The pipeline itself never
// blocks on this consumer.
func watchEvents(p *pipeline.Pipeline, stop <-chan struct{}) {
	for {
		select {
		case e := <-p.Events():
			switch e.Kind {
			case pipeline.EventOverrun:
				slog.Warn("ring buffer overrun", "dropped_seq", e.DroppedSeq)
			case pipeline.EventDecodeFailure:
				slog.Warn("decode failure event", "error", e.Err)
			case pipeline.EventDiscontinuity:
				slog.Warn("audio discontinuity event", "last_missed_seq", e.DroppedSeq)
			case pipeline.EventStreamFatal:
				slog.Error("stream fatal event", "error", e.Err)
			}
		case <-stop:
			return
		}
	}
}

func logSnapshots(p *pipeline.Pipeline, stop <-chan struct{}) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := p.Snapshot()
			attrs := []any{
				"chunks", snap.Chunks,
				"p50_ms", snap.P50Ms,
				"p95_ms", snap.P95Ms,
				"cpu_percent", snap.CPUPercent,
				"segments", p.Store().Len(),
			}
			if live, ok := p.LiveCaption(); ok {
				attrs = append(attrs, "live_caption", live.Text)
			}
			slog.Debug("pipeline snapshot", attrs...)
		case <-stop:
			return
		}
	}
}
