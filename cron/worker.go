package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deployhub/config"
	"deployhub/services/processor"
	"deployhub/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Deliverer processes one queued notification.
type Deliverer interface {
	Process(ctx context.Context, notificationID string) (*processor.DeliveryResult, error)
}

// Worker runs the asynq server that consumes notification delivery jobs.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	opts   asynq.RedisClientOpt
	logger *zap.Logger
	stop   context.CancelFunc
}

// RedisOpt builds the asynq connection settings from configuration.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

func NewWorker(deliverer Deliverer, logger *zap.Logger) *Worker {
	opts := RedisOpt()
	concurrency := config.AppConfig.QueueConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		opts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueNotifications: 6,
				"default":                1,
			},
			RetryDelayFunc: tasks.RetryDelay,
			Logger:         logger.Sugar(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Warn("Notification job failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Int("retried", retried),
					zap.Int("maxRetry", maxRetry),
					zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationDeliver, HandleDeliverTask(deliverer, logger))

	return &Worker{srv: srv, mux: mux, opts: opts, logger: logger}
}

// Start runs the worker in the background and retries startup with backoff.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.stop = cancel

	go monitorRedisConnection(ctx, w.opts, w.logger)

	go func() {
		w.logger.Info("Starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("Failed to start notification worker",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))

			if attempts == maxAttempts {
				w.logger.Fatal("Max retry attempts reached for notification worker")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempts*2) * time.Second):
			}
		}
	}()
}

// Shutdown stops fetching new jobs and waits for in-flight ones.
func (w *Worker) Shutdown() {
	if w.stop != nil {
		w.stop()
	}
	w.srv.Shutdown()
}

// HandleDeliverTask adapts the processor to asynq. Jobs for missing notifications are not retried.
func HandleDeliverTask(deliverer Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseDeliverPayload(task)
		if err != nil {
			logger.Error("Invalid notification job payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		result, err := deliverer.Process(ctx, p.NotificationID)
		if err != nil {
			if errors.Is(err, processor.ErrNotificationNotFound) {
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}

		if result != nil && !result.Success && !result.Skipped {
			logger.Debug("Notification had no deliverable target",
				zap.String("notificationId", p.NotificationID),
				zap.String("channel", string(result.Channel)))
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, opts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Redis connection lost", zap.Error(err))
			}
		}
	}
}
