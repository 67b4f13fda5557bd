package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	apphttp "github.com/Rollnz/window-man-truth-engine-sub000/internal/http"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/http/router"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/guard"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/db"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Guard store: Redis in production, in-memory otherwise. The guard is
	// best-effort by contract, so a missing Redis never blocks startup.
	var guardStore guard.Store = guard.NewMemoryStore()
	if cfg.IsRedisEnabled() {
		opt, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("invalid redis url", "error", err)
			panic("invalid redis url: " + err.Error())
		}
		redisClient := redis.NewClient(opt)
		defer redisClient.Close()
		guardStore = guard.NewRedisStore(redisClient)
		log.Info("guard store backed by redis")
	} else {
		log.Warn("REDIS_URL not set, guard state is process-local")
	}

	// Optional sink journal persistence.
	var pool *pgxpool.Pool
	var repo *sink.Repository
	if cfg.IsDatabaseEnabled() {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg, "migrations")
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}

		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		repo = sink.NewRepository(pool)
		log.Info("sink journal persistence enabled")
	}

	// Optional collector dispatch. Requires both Redis and a collector URL.
	var dispatcher *sink.Dispatcher
	if cfg.IsRedisEnabled() && cfg.IsCollectorEnabled() {
		dispatcher, err = sink.NewDispatcher(cfg)
		if err != nil {
			log.Error("failed to initialize sink dispatcher", "error", err)
			panic("failed to initialize sink dispatcher: " + err.Error())
		}
		defer dispatcher.Close()
		log.Info("collector dispatch enabled", "collector", cfg.GetCollectorURL())
	} else {
		log.Warn("collector dispatch disabled, records stay in the local sink")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	subscribeDiagnostics(eventBus, log)

	journal := sink.NewJournal(cfg.GetSinkJournalSize())
	sinkSvc := sink.NewService(journal, repo, dispatcher, cfg.GetSessionTTL(), eventBus, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	trackingModule, err := tracking.NewModule(cfg, guardStore, sinkSvc, eventBus, log)
	if err != nil {
		log.Error("failed to initialize tracking module", "error", err)
		panic("failed to initialize tracking module: " + err.Error())
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		EventBus: eventBus,
		Modules:  []apphttp.Module{trackingModule},
	}
	if pool != nil {
		app.Health = pool
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// subscribeDiagnostics attaches the local diagnostics subscribers.
func subscribeDiagnostics(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(events.ConversionRecorded{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.ConversionRecorded); ok {
			log.Info("conversion recorded", "event", ev.Name, "event_id", ev.EventID, "value", ev.Value)
		}
		return nil
	}))
	bus.Subscribe(events.DuplicateSuppressed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.DuplicateSuppressed); ok {
			log.Info("duplicate suppressed", "event", ev.Name, "lead_id", ev.LeadID, "reason", ev.Reason)
		}
		return nil
	}))
}

// withRetry runs op up to attempts times with a fixed delay between tries.
func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, delay time.Duration, op func() error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		log.Warn("retrying", "operation", name, "attempt", i, "error", err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
