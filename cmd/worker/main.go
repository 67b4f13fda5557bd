package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	"github.com/Rollnz/window-man-truth-engine-sub000/internal/sink"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"

	"golang.org/x/sync/errgroup"
)

// The worker consumes the forward queue and delivers send=true records to
// the ad-platform collector. Failed deliveries are dropped and reported as
// diagnostics events; the pipeline never retries.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting sink forwarder", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewInMemoryBus(log)
	eventBus.Subscribe(events.SinkDeliveryFailed{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.SinkDeliveryFailed); ok {
			log.Warn("delivery dropped", "event", ev.Name, "event_id", ev.EventID, "error", ev.Error)
		}
		return nil
	}))

	forwarder, err := sink.NewForwarder(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize forwarder", "error", err)
		panic("failed to initialize forwarder: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(forwarder.Run)
	g.Go(func() error {
		<-gctx.Done()
		forwarder.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("forwarder exited", "error", err)
		os.Exit(1)
	}
	log.Info("forwarder stopped")
}
