package scheduler

import (
	"context"

	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

// ReconcileDispatcher enqueues the periodic reconciliation task on a cron
// schedule. The worker (possibly another instance) picks it up; the redis
// run lock keeps overlapping runs from racing.
type ReconcileDispatcher struct {
	client *Client
	cron   *cron.Cron
	spec   string
	log    *logger.Logger
}

func NewReconcileDispatcher(cfg config.SchedulerConfig, client *Client, log *logger.Logger) *ReconcileDispatcher {
	spec := cfg.GetReconcileCron()
	if spec == "" {
		spec = "@every 15m"
	}
	return &ReconcileDispatcher{
		client: client,
		cron:   cron.New(),
		spec:   spec,
		log:    log,
	}
}

// Run starts the cron loop and blocks until ctx is cancelled.
func (d *ReconcileDispatcher) Run(ctx context.Context) error {
	_, err := d.cron.AddFunc(d.spec, func() {
		if err := d.client.enqueueReconcile(ctx, "scheduled", 0); err != nil {
			d.log.Warn("reconcile enqueue failed", "error", err)
			return
		}
		d.log.Debug("reconcile task enqueued", "schedule", d.spec)
	})
	if err != nil {
		return err
	}

	d.cron.Start()
	<-ctx.Done()

	stopCtx := d.cron.Stop()
	<-stopCtx.Done()
	return nil
}
