package cron

import (
	"context"
	"fmt"
	"time"

	"bookdesk/config"
	"bookdesk/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Expirer is the lifecycle surface the worker drives.
type Expirer interface {
	ExpireIfProposed(ctx context.Context, id string) (bool, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Worker runs the proposal expiry queue and the periodic sweep.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
	stop      context.CancelFunc
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewQueueClient returns the client the lifecycle service enqueues expiries with.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// NewWorker builds the server, mux and scheduler without starting them.
func NewWorker(expirer Expirer, ttl time.Duration, logger *zap.Logger) *Worker {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)
	scheduler := asynq.NewScheduler(redisOpts(), &asynq.SchedulerOpts{Logger: logger.Sugar()})

	return &Worker{
		srv:       srv,
		scheduler: scheduler,
		mux:       NewMux(expirer, ttl, logger),
		logger:    logger,
	}
}

// NewMux registers the task handlers.
func NewMux(expirer Expirer, ttl time.Duration, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeExpireProposal, handleExpireTask(expirer, logger))
	mux.HandleFunc(tasks.TypeSweepProposals, handleSweepTask(expirer, ttl, logger))
	return mux
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	minutes := config.AppConfig.ExpirySweepMinutes
	if minutes <= 0 {
		minutes = 15
	}
	if _, err := w.scheduler.Register(fmt.Sprintf("@every %dm", minutes), tasks.NewSweepProposalsTask()); err != nil {
		return fmt.Errorf("failed to register proposal sweep: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.stop = cancel
	go monitorRedisConnection(ctx, w.logger)

	go func() {
		w.logger.Info("starting expiry worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Start(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("failed to start expiry worker",
				zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Fatal("expiry worker gave up")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return nil
}

// Shutdown stops the scheduler and waits for in-flight tasks.
func (w *Worker) Shutdown() {
	if w.stop != nil {
		w.stop()
	}
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func handleExpireTask(expirer Expirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseExpirePayload(task)
		if err != nil {
			logger.Error("invalid expire payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		expired, err := expirer.ExpireIfProposed(ctx, p.BookingID)
		if err != nil {
			logger.Error("failed to expire proposal", zap.String("booking_id", p.BookingID), zap.Error(err))
			return err
		}
		logger.Info("proposal expiry processed", zap.String("booking_id", p.BookingID), zap.Bool("expired", expired))
		return nil
	}
}

func handleSweepTask(expirer Expirer, ttl time.Duration, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		cutoff := time.Now().UTC().Add(-ttl)
		n, err := expirer.ExpireStale(ctx, cutoff)
		if err != nil {
			logger.Error("proposal sweep failed", zap.Int("expired", n), zap.Error(err))
			return err
		}
		if n > 0 {
			logger.Info("proposal sweep expired bookings", zap.Int("expired", n))
		}
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically to surface outages.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
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
				logger.Warn("queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
