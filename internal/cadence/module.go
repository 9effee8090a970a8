// Package cadence provides the contact-cadence domain module: phone ledger,
// priority scoring, the cadence state machine, the operator queue and the
// reconciliation pass.
package cadence

import (
	"context"

	"outreach_backend/internal/cadence/handler"
	"outreach_backend/internal/cadence/queue"
	"outreach_backend/internal/cadence/reconcile"
	"outreach_backend/internal/cadence/repository"
	"outreach_backend/internal/cadence/scoring"
	"outreach_backend/internal/cadence/service"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the cadence domain module.
type Module struct {
	handler *handler.Handler

	Service   *service.Service
	Queue     *queue.Service
	Scorer    *scoring.Service
	Repo      *repository.Repository
	Reconcile *reconcile.Service
}

// Deps carries the cross-cutting dependencies the module cannot build itself.
type Deps struct {
	Pool      *pgxpool.Pool
	Bus       events.Bus
	Log       *logger.Logger
	Validator *validator.Validator
	Config    config.EngineConfig
	// Trigger enqueues a manual reconciliation run; nil disables the route's
	// backing action (the scheduler binary wires the real one).
	Trigger handler.ReconcileTrigger
	// Locker serializes reconciliation runs; required when Reconcile is used.
	Locker reconcile.Locker
}

// NewModule creates the cadence module with all dependencies wired.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	scorer := scoring.New(repo, deps.Log)
	svc := service.New(repo, scorer, deps.Bus, deps.Log)
	queueSvc := queue.NewService(repo, deps.Log, deps.Config.GetQueueSectionCap())

	var recon *reconcile.Service
	if deps.Locker != nil {
		recon = reconcile.New(repo, deps.Locker, deps.Bus, deps.Log, reconcile.Config{
			BatchSize:  deps.Config.GetReconcileBatchSize(),
			MaxRecords: deps.Config.GetReconcileMaxRecords(),
		})
	}

	trigger := deps.Trigger
	if trigger == nil {
		trigger = noopTrigger{}
	}

	m := &Module{
		handler:   handler.New(svc, queueSvc, trigger, deps.Validator),
		Service:   svc,
		Queue:     queueSvc,
		Scorer:    scorer,
		Repo:      repo,
		Reconcile: recon,
	}
	registerActivityWriter(deps.Bus, repo, deps.Log)
	return m
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "cadence"
}

// RegisterRoutes registers the module's routes under /api/v1/cadence.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cadence := ctx.Protected.Group("/cadence")
	m.handler.RegisterRoutes(cadence)
}

type noopTrigger struct{}

func (noopTrigger) TriggerReconcile(context.Context, int) error { return nil }

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
