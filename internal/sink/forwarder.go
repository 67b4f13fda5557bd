package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/events"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/logger"

	"github.com/hibiken/asynq"
)

// Forwarder is the worker-side consumer of the forward queue. It POSTs
// each record to the ad-platform collector. Failures are published as
// diagnostics events and dropped — never retried.
type Forwarder struct {
	server *asynq.Server
	mux    *asynq.ServeMux

	collectorURL string
	httpClient   *http.Client
	bus          events.Bus
	log          *logger.Logger
}

// ForwarderConfig combines the config surfaces the Forwarder needs.
type ForwarderConfig interface {
	config.SchedulerConfig
	config.SinkConfig
}

// NewForwarder creates the asynq server consuming the forward queue.
func NewForwarder(cfg ForwarderConfig, bus events.Bus, log *logger.Logger) (*Forwarder, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	f := &Forwarder{
		server:       server,
		mux:          mux,
		collectorURL: cfg.GetCollectorURL(),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		bus:          bus,
		log:          log,
	}

	mux.HandleFunc(TaskForward, f.handleForward)

	return f, nil
}

// Run starts the consumer and blocks until the server stops.
func (f *Forwarder) Run() error {
	return f.server.Run(f.mux)
}

// Shutdown stops the consumer gracefully.
func (f *Forwarder) Shutdown() {
	f.server.Shutdown()
}

func (f *Forwarder) handleForward(ctx context.Context, task *asynq.Task) error {
	// The payload is already the wire shape; pull out the identifiers for
	// diagnostics without rebuilding the record.
	var ids struct {
		Event   string `json:"event"`
		EventID string `json:"event_id"`
	}
	_ = json.Unmarshal(task.Payload(), &ids)

	if err := f.deliver(ctx, task.Payload()); err != nil {
		f.log.SinkError("forward", ids.Event, err)
		if f.bus != nil {
			f.bus.Publish(ctx, events.SinkDeliveryFailed{
				BaseEvent: events.NewBaseEvent(),
				EventID:   ids.EventID,
				Name:      ids.Event,
				Error:     err.Error(),
			})
		}
		// Dropped by contract; returning nil keeps asynq from retrying.
		return nil
	}
	return nil
}

func (f *Forwarder) deliver(ctx context.Context, payload []byte) error {
	if f.collectorURL == "" {
		return fmt.Errorf("collector url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.collectorURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned %d", resp.StatusCode)
	}
	return nil
}
