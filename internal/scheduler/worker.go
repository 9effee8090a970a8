package scheduler

import (
	"context"
	"fmt"

	"outreach_backend/internal/cadence/reconcile"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	reconcile *reconcile.Service
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, recon *reconcile.Service, log *logger.Logger) (*Worker, error) {
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
	w := &Worker{
		server:    server,
		mux:       mux,
		reconcile: recon,
		log:       log,
	}

	mux.HandleFunc(TaskCadenceReconcile, w.handleCadenceReconcile)

	return w, nil
}

func (w *Worker) handleCadenceReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCadenceReconcilePayload(task)
	if err != nil {
		return err
	}

	res, err := w.reconcile.RunWithBatchSize(ctx, payload.BatchSize)
	if err != nil {
		w.log.Error("reconcile run failed", "trigger", payload.Trigger, "error", err)
		return err
	}
	if res.Skipped {
		w.log.Info("reconcile run skipped", "trigger", payload.Trigger)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
