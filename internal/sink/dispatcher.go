package sink

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
	"github.com/Rollnz/window-man-truth-engine-sub000/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskForward is the asynq task type carrying one send=true record to the
// collector forwarder.
const TaskForward = "sink.forward"

// Dispatcher enqueues collector deliveries. Delivery is asynchronous by
// contract: emitters return before the record reaches the collector.
type Dispatcher struct {
	client *asynq.Client
	queue  string
}

// NewDispatcher creates a Dispatcher over the configured Redis queue.
func NewDispatcher(cfg config.SchedulerConfig) (*Dispatcher, error) {
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

	return &Dispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

// Close releases the underlying client.
func (d *Dispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

// Enqueue schedules delivery of one record. Records marked send=false are
// refused here as well: even a misconfigured caller cannot route an
// internal record toward the collector.
func (d *Dispatcher) Enqueue(ctx context.Context, env envelope.Envelope) error {
	if d == nil || d.client == nil {
		return nil
	}
	if !env.Meta.Send {
		return nil
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	// MaxRetry(0): the pipeline never retries; retry, if any, is the
	// caller's responsibility.
	task := asynq.NewTask(TaskForward, payload, asynq.MaxRetry(0))
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
