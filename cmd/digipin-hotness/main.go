// Command digipin-hotness consumes lookup events published by every
// digipin-server and serves the cluster-wide hot areas.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/digipin/internal/core/config"
	"github.com/mohammed-shakir/digipin/internal/core/health"
	middleware "github.com/mohammed-shakir/digipin/internal/core/middleware"
	"github.com/mohammed-shakir/digipin/internal/core/observability"
	"github.com/mohammed-shakir/digipin/internal/core/router"
	"github.com/mohammed-shakir/digipin/internal/hitevents"
	"github.com/mohammed-shakir/digipin/internal/hotness"
	"github.com/mohammed-shakir/digipin/internal/hotness/expdecay"
	"github.com/mohammed-shakir/digipin/internal/logger"
	"github.com/mohammed-shakir/digipin/internal/metrics"
)

var Version = "dev"

const pruneBelow = 0.01

// trackerSource adapts the tracker to the hot-areas handler.
type trackerSource struct{ t *expdecay.Tracker }

func (s trackerSource) HotAreas(n int) []hotness.Scored { return s.t.Top(n) }

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", "", "optional .env file loaded before reading the environment")
	oldest := flag.Bool("from-oldest", false, "start a new consumer group from the oldest offset")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("config", "err", err)
		return 1
	}
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "digipin-hotness",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	appLog.Info("starting digipin-hotness",
		"addr", cfg.Addr,
		"version", Version,
		"brokers", cfg.Events.Brokers,
		"topic", cfg.Events.Topic)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov := metrics.Init(metrics.Config{
		Addr:  cfg.Metrics.Addr,
		Path:  cfg.Metrics.Path,
		Build: metrics.BuildInfo{Version: Version},
	})

	tracker := expdecay.New(cfg.HotHalfLife)
	consumer := hitevents.NewConsumer(hitevents.ConsumerConfig{
		Brokers:             cfg.Events.Brokers,
		Topic:               cfg.Events.Topic,
		GroupID:             cfg.Events.GroupID,
		InitialOffsetOldest: *oldest,
	}, appLog, tracker)

	errCh := make(chan error, 2)
	go func() { errCh <- consumer.Start(ctx) }()
	go maintain(ctx, tracker, cfg.HotHalfLife, appLog)

	r := chi.NewRouter()
	r.Use(middleware.Recover(appLog))
	r.Use(middleware.Logging(appLog))
	r.Use(middleware.CORS())
	r.Get("/healthz", health.Liveness())
	r.Method(http.MethodGet, cfg.Metrics.Path, prov.Handler())
	r.Get("/areas/hot", router.HandleHotAreas(appLog, trackerSource{tracker}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		appLog.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			appLog.Error("digipin-hotness exited with error", "err", err)
			code = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	appLog.Info("digipin-hotness stopped")
	return code
}

// maintain prunes cold areas and refreshes the tracked-areas gauge.
func maintain(ctx context.Context, t *expdecay.Tracker, every time.Duration, l *slog.Logger) {
	if every <= 0 {
		every = time.Minute
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n := t.Prune(pruneBelow)
			observability.SetHotKeysGauge("cluster", t.Size())
			if top := t.Top(1); len(top) > 0 {
				l.Debug("hot areas", "pruned", n, "tracked", t.Size(), "top", top[0].Area, "score", top[0].Score)
			}
		}
	}
}
