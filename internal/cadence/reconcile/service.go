// Package reconcile implements the periodic repair pass that fixes time-based
// drift no single event triggers: expired snoozes, deep-prospect leads that
// regained a dialable number, and stale-lead detection.
package reconcile

import (
	"context"
	"time"

	"outreach_backend/internal/cadence/domain"
	"outreach_backend/internal/cadence/repository"
	"outreach_backend/internal/events"
	"outreach_backend/platform/logger"
)

const (
	runTypeScheduled = "SCHEDULED"

	StatusSuccess = "SUCCESS"
	StatusPartial = "PARTIAL"
)

// Store is the repository slice the reconciler needs.
type Store interface {
	repository.ReconciliationStore
	SaveLead(ctx context.Context, lead domain.Lead) (domain.Lead, error)
}

// Locker serializes runs across scheduler instances.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Config bounds a single run.
type Config struct {
	BatchSize       int
	MaxRecords      int
	StalenessWindow time.Duration
}

// Result summarizes one run.
type Result struct {
	Status           string
	RecordsProcessed int
	IssuesFound      int
	IssuesFixed      int
	Unsnoozed        int
	Reactivated      int
	StaleCount       int
	Skipped          bool
	Errors           []string
}

type Service struct {
	store  Store
	locker Locker
	bus    events.Bus
	log    *logger.Logger
	cfg    Config
	now    func() time.Time
}

func New(store Store, locker Locker, bus events.Bus, log *logger.Logger, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRecords <= 0 {
		cfg.MaxRecords = 5000
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = domain.StalenessWindow
	}
	return &Service{
		store:  store,
		locker: locker,
		bus:    bus,
		log:    log,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one reconciliation pass with the configured batch size.
func (s *Service) Run(ctx context.Context) (Result, error) {
	return s.RunWithBatchSize(ctx, 0)
}

// RunWithBatchSize executes one reconciliation pass. A positive batchSize
// overrides the configured one for this run only; manual triggers use it to
// bound themselves. Individual lead failures are collected, never fatal: the
// run continues and is marked PARTIAL. Each batch commits independently, so
// an interrupted run keeps its completed batches. A run that finds nothing to
// fix changes nothing, which makes back-to-back runs idempotent.
func (s *Service) RunWithBatchSize(ctx context.Context, batchSize int) (Result, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}

	acquired, err := s.locker.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	if !acquired {
		s.log.Info("reconcile run skipped, another run holds the lock")
		return Result{Skipped: true, Status: StatusSuccess}, nil
	}
	defer func() {
		if err := s.locker.Release(ctx); err != nil {
			s.log.Warn("reconcile lock release failed", "error", err)
		}
	}()

	started := s.now()
	var res Result

	s.unsnoozeExpired(ctx, batchSize, &res)
	s.reactivateDeepProspects(ctx, batchSize, &res)
	s.countStale(ctx, &res)

	res.Status = StatusSuccess
	if len(res.Errors) > 0 {
		res.Status = StatusPartial
	}

	entry := repository.ReconciliationEntry{
		RunType:          runTypeScheduled,
		Status:           res.Status,
		RecordsProcessed: res.RecordsProcessed,
		IssuesFound:      res.IssuesFound,
		IssuesFixed:      res.IssuesFixed,
		Details: map[string]any{
			"unsnoozed":   res.Unsnoozed,
			"reactivated": res.Reactivated,
			"stale_count": res.StaleCount,
			"errors":      res.Errors,
		},
		CreatedAt: s.now(),
	}
	if err := s.store.AppendReconciliationLog(ctx, entry); err != nil {
		s.log.Error("reconciliation log write failed", "error", err)
	}

	s.bus.Publish(ctx, events.ReconcileCompleted{
		BaseEvent:        events.NewBaseEvent(),
		Status:           res.Status,
		RecordsProcessed: res.RecordsProcessed,
		IssuesFound:      res.IssuesFound,
		IssuesFixed:      res.IssuesFixed,
		Duration:         s.now().Sub(started),
	})
	s.log.ReconcileRun(res.Status, res.RecordsProcessed, res.IssuesFound, res.IssuesFixed)

	return res, nil
}

// unsnoozeExpired reactivates every snoozed lead whose window has passed,
// batch by batch up to the run's record cap.
func (s *Service) unsnoozeExpired(ctx context.Context, batchSize int, res *Result) {
	now := s.now()
	for res.RecordsProcessed < s.cfg.MaxRecords {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err().Error())
			return
		}

		batch := batchSize
		if remaining := s.cfg.MaxRecords - res.RecordsProcessed; remaining < batch {
			batch = remaining
		}

		leads, err := s.store.ListExpiredSnoozes(ctx, now, batch)
		if err != nil {
			res.Errors = append(res.Errors, "list expired snoozes: "+err.Error())
			return
		}
		if len(leads) == 0 {
			return
		}

		fixedThisBatch := 0
		for _, lead := range leads {
			res.RecordsProcessed++
			res.IssuesFound++
			before := lead
			updated := domain.Resume(lead, now)
			if _, err := s.store.SaveLead(ctx, updated); err != nil {
				res.Errors = append(res.Errors, "unsnooze "+lead.ID.String()+": "+err.Error())
				continue
			}
			res.IssuesFixed++
			res.Unsnoozed++
			fixedThisBatch++
			s.publishPhaseChange(ctx, before, updated)
		}

		// A batch where nothing moved would re-list the same leads forever.
		if len(leads) < batch || fixedThisBatch == 0 {
			return
		}
	}
}

// reactivateDeepProspects escalates deep-prospect leads whose ledger gained a
// never-dialed viable number.
func (s *Service) reactivateDeepProspects(ctx context.Context, batchSize int, res *Result) {
	now := s.now()
	for res.RecordsProcessed < s.cfg.MaxRecords {
		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err().Error())
			return
		}

		batch := batchSize
		if remaining := s.cfg.MaxRecords - res.RecordsProcessed; remaining < batch {
			batch = remaining
		}

		leads, err := s.store.ListReactivatableDeepProspects(ctx, batch)
		if err != nil {
			res.Errors = append(res.Errors, "list deep prospects: "+err.Error())
			return
		}
		if len(leads) == 0 {
			return
		}

		fixedThisBatch := 0
		for _, lead := range leads {
			res.RecordsProcessed++
			res.IssuesFound++
			before := lead
			updated := domain.PromotePhone(lead, now)
			if _, err := s.store.SaveLead(ctx, updated); err != nil {
				res.Errors = append(res.Errors, "reactivate "+lead.ID.String()+": "+err.Error())
				continue
			}
			res.IssuesFixed++
			res.Reactivated++
			fixedThisBatch++
			s.publishPhaseChange(ctx, before, updated)
		}

		if len(leads) < batch || fixedThisBatch == 0 {
			return
		}
	}
}

// countStale surfaces leads drifting without attention. Counted, not fixed.
func (s *Service) countStale(ctx context.Context, res *Result) {
	cutoff := s.now().Add(-s.cfg.StalenessWindow)
	count, err := s.store.CountStaleActive(ctx, cutoff)
	if err != nil {
		res.Errors = append(res.Errors, "count stale: "+err.Error())
		return
	}
	res.StaleCount = count
	res.IssuesFound += count
}

func (s *Service) publishPhaseChange(ctx context.Context, before, after domain.Lead) {
	if before.CadencePhase == after.CadencePhase && before.CadenceState == after.CadenceState {
		return
	}
	s.bus.Publish(ctx, events.PhaseChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    after.ID,
		OwnerID:   after.OwnerID,
		FromPhase: string(before.CadencePhase),
		ToPhase:   string(after.CadencePhase),
		FromState: string(before.CadenceState),
		ToState:   string(after.CadenceState),
		Source:    "reconcile",
	})
}
