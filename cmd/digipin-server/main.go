package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/digipin/internal/cache"
	"github.com/mohammed-shakir/digipin/internal/cache/memory"
	"github.com/mohammed-shakir/digipin/internal/cache/redisstore"
	"github.com/mohammed-shakir/digipin/internal/core/config"
	"github.com/mohammed-shakir/digipin/internal/core/health"
	"github.com/mohammed-shakir/digipin/internal/core/server"
	"github.com/mohammed-shakir/digipin/internal/hitevents"
	"github.com/mohammed-shakir/digipin/internal/hotness/expdecay"
	"github.com/mohammed-shakir/digipin/internal/logger"
	"github.com/mohammed-shakir/digipin/internal/lookup"
	h3mapper "github.com/mohammed-shakir/digipin/internal/mapper/h3"
	"github.com/mohammed-shakir/digipin/internal/metrics"
)

var Version = "dev"

// areas whose decayed score falls below this are forgotten
const pruneBelow = 0.01

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", "", "optional .env file loaded before reading the environment")
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
		Component: "digipin-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting digipin-server",
		"addr", cfg.Addr,
		"version", Version,
		"cache", cfg.CacheDriver,
		"events", cfg.Events.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov := metrics.Init(metrics.Config{
		Addr: cfg.Metrics.Addr,
		Path: cfg.Metrics.Path,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})
	deps := server.Deps{Ready: map[string]health.Pinger{}}
	if cfg.Metrics.Enabled {
		go func() {
			if err := prov.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	} else {
		deps.Metrics = prov.Handler()
	}

	store, closeStore, err := openCache(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("cache setup failed", "driver", cfg.CacheDriver, "err", err)
		return 1
	}
	defer closeStore()
	if p, ok := store.(health.Pinger); ok {
		deps.Ready["cache"] = p
	}

	var events hitevents.Sink = hitevents.Discard{}
	if cfg.Events.Enabled {
		pub, err := hitevents.Dial(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.Queue, appLog)
		if err != nil {
			appLog.Error("events setup failed", "brokers", cfg.Events.Brokers, "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("events close", "err", err)
			}
		}()
		events = pub
	}

	tracker := expdecay.New(cfg.HotHalfLife)
	go prune(ctx, tracker, cfg.HotHalfLife, appLog)

	deps.Lookup = lookup.New(lookup.Config{
		TTL:          cfg.CacheTTL,
		TTLHot:       cfg.CacheTTLHot,
		HotThreshold: cfg.HotThreshold,
		OpTimeout:    cfg.CacheOpTimeout,
		H3Res:        cfg.H3Res,
	},
		lookup.WithCache(store),
		lookup.WithHotness(tracker),
		lookup.WithMapper(h3mapper.New()),
		lookup.WithEvents(events),
		lookup.WithLogger(appLog),
	)

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func openCache(ctx context.Context, cfg config.Config, l *slog.Logger) (cache.Interface, func(), error) {
	switch cfg.CacheDriver {
	case "redis":
		c, err := redisstore.New(ctx, cfg.RedisAddr,
			redisstore.WithReadTimeout(cfg.CacheOpTimeout),
			redisstore.WithWriteTimeout(cfg.CacheOpTimeout),
		)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {
			if err := c.Close(); err != nil {
				l.Warn("redis close", "err", err)
			}
		}, nil
	case "none":
		return cache.Nop{}, func() {}, nil
	default:
		return memory.New(cfg.CacheLRUSize), func() {}, nil
	}
}

func prune(ctx context.Context, t *expdecay.Tracker, every time.Duration, l *slog.Logger) {
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
			if n := t.Prune(pruneBelow); n > 0 {
				l.Debug("pruned cold areas", "n", n, "remaining", t.Size())
			}
		}
	}
}
