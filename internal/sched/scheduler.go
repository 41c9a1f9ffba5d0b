package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"scalper/internal/journal"
)

// BalanceSource reports the authoritative quote balance.
type BalanceSource interface {
	QuoteBalance(ctx context.Context) (float64, error)
}

// BalanceSyncer reconciles the engine's ledger with a reported balance.
type BalanceSyncer interface {
	SyncBalance(real float64)
}

// Summarizer aggregates one UTC day of closed trades.
type Summarizer interface {
	DailySummary(ctx context.Context, day time.Time) (journal.Summary, error)
}

// Scheduler runs the periodic maintenance jobs: balance reconciliation
// against the venue and the end-of-day trade summary.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	source  BalanceSource
	engine  BalanceSyncer
	journal Summarizer

	now func() time.Time
}

// New creates a scheduler. The journal may be nil; the summary job then
// logs an empty day.
func New(ctx context.Context, source BalanceSource, engine BalanceSyncer, j Summarizer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
		source:  source,
		engine:  engine,
		journal: j,
		now:     time.Now,
	}
}

// Register wires the jobs to their cron expressions.
func (s *Scheduler) Register(summaryCron, syncCron string) error {
	if _, err := s.cron.AddFunc(summaryCron, s.dailySummary); err != nil {
		return errors.Wrap(err, "register summary job")
	}
	if _, err := s.cron.AddFunc(syncCron, s.syncBalance); err != nil {
		return errors.Wrap(err, "register sync job")
	}
	return nil
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	logs.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logs.Info("scheduler stopped")
}

// syncBalance pulls the venue balance and reconciles the ledger with it.
func (s *Scheduler) syncBalance() {
	balance, err := s.source.QuoteBalance(s.ctx)
	if err != nil {
		logs.Warnf("balance sync skipped: %+v", err)
		return
	}
	if balance <= 0 {
		logs.Warnf("balance sync skipped: reported %.4f", balance)
		return
	}
	s.engine.SyncBalance(balance)
}

// dailySummary logs the aggregate of the UTC day that just ended.
func (s *Scheduler) dailySummary() {
	if s.journal == nil {
		return
	}
	day := s.now().UTC().AddDate(0, 0, -1)
	sum, err := s.journal.DailySummary(s.ctx, day)
	if err != nil {
		logs.Errorf("daily summary failed: %+v", err)
		return
	}
	logs.Infof("daily summary %s: trades %d wins %d profit %.4f",
		day.Format("2006-01-02"), sum.Trades, sum.Wins, sum.Profit)
}
