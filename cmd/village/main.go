// Package main boots the pet village service and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/decay"
	"github.com/easeaico/pet-village/internal/drama"
	"github.com/easeaico/pet-village/internal/handler"
	"github.com/easeaico/pet-village/internal/metrics"
	"github.com/easeaico/pet-village/internal/models"
	"github.com/easeaico/pet-village/internal/narrator"
	"github.com/easeaico/pet-village/internal/notify"
	"github.com/easeaico/pet-village/internal/pet"
	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/scheduler"
	"github.com/easeaico/pet-village/internal/storage"
	"github.com/easeaico/pet-village/internal/telemetry"
	"github.com/easeaico/pet-village/internal/utils"
)

var version = "unknown"

func main() {
	cfg := config.Load()

	level, _ := cfg.SlogLevel()
	logger := slog.New(telemetry.NewTraceHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	slog.SetDefault(logger)
	slog.Info("pet village starting", "version", version, "database", storageKind(cfg.DatabaseURL), "narrator", cfg.Narrator.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing := cfg.TraceEndpoint != ""
	if tracing {
		cleanup, err := telemetry.Setup(ctx, cfg.TraceEndpoint, "pet-village", version)
		if err != nil {
			log.Fatalf("failed to setup tracing: %v", err)
		}
		defer cleanup()
	}

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	scale := relationship.ScaleFromConfig(cfg.Relationship)
	cast := relationship.DefaultCast
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	if err := store.SeedCast(ctx, cast, scale); err != nil {
		log.Fatalf("failed to seed cast: %v", err)
	}
	if err := store.VerifyCast(ctx, cast); err != nil {
		log.Fatalf("store integrity check failed: %v", err)
	}

	sinks := notify.Fanout{notify.NewLogSink(logger)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err.Error())
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis is unreachable, notifications will fail until it recovers", "addr", cfg.RedisAddr, "error", err.Error())
		}
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.NotifyPrefix))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	locks := utils.NewKeyedMutex()
	rng := utils.NewLockedRand(cfg.RandomSeed)
	rels := relationship.NewService(store.NPCs, scale, cast)

	decayOpts := []decay.Option{decay.WithMetrics(m)}
	dramaOpts := []drama.Option{drama.WithMetrics(m)}
	llm, err := models.New(ctx, cfg.Narrator.Provider, cfg.Narrator.Model, cfg.Narrator.APIKey)
	if err != nil {
		log.Fatalf("failed to create narrator model: %v", err)
	}
	if llm != nil {
		n, err := narrator.NewLLM(llm, cast, cfg.Narrator.Timeout)
		if err != nil {
			log.Fatalf("failed to create narrator: %v", err)
		}
		decayOpts = append(decayOpts, decay.WithEpitaphs(n))
		dramaOpts = append(dramaOpts, drama.WithStoryteller(n))
		slog.Info("narrator enabled", "provider", cfg.Narrator.Provider, "model", llm.Name())
	}

	decayEngine := decay.NewEngine(decay.RulesFromConfig(cfg.Decay), store.Pets, sinks, locks, decayOpts...)
	board := drama.NewStoreBoard(cfg.DramaChannel, store.Drama, sinks)
	dramaEngine := drama.NewEngine(rels, store.Drama, board, sinks, rng, drama.SettingsFromConfig(cfg.Drama), dramaOpts...)
	petService := pet.NewService(store.Pets, pet.SettingsFromConfig(cfg.Care, cfg.Decay), locks)

	go func() {
		if err := scheduler.Run(ctx, "drama-recover", dramaEngine.Recover); err != nil {
			m.CycleFailed("drama-recover")
		}
	}()
	go scheduler.Every(ctx, "decay", cfg.Decay.Interval, func(ctx context.Context) error {
		report, err := decayEngine.Tick(ctx)
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "decay tick", "processed", report.Processed, "warned", len(report.Warned), "died", len(report.Died), "failed", report.Failed)
		return nil
	}, m)
	go scheduler.Every(ctx, "drama", cfg.Drama.Interval, dramaEngine.RunCycle, m)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	skipper := func(c echo.Context) bool {
		return c.Path() == "/metrics" || c.Path() == "/health"
	}
	if tracing {
		e.Use(telemetry.EchoMiddleware("api", skipper))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "village",
		Skipper:   skipper,
	}))
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echoprometheus.NewHandler())
	if cfg.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN is not set, admin routes will reject every request")
	}
	handler.New(petService, decayEngine, dramaEngine, rels, cfg.AdminToken).Register(e)

	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown http server", "error", err.Error())
	}
	slog.Info("pet village shutdown complete")
}

func storageKind(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "sqlite://") {
		return "sqlite"
	}
	return "postgres"
}
