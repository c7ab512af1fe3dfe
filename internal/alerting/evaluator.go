package alerting

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/models"
)

// Notifier delivers alerts to operators. Delivery failures are logged
// and never block the evaluator.
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) error
}

// StateStore persists the evaluator's last-run timestamp so the rate
// limit survives restarts. May be nil; the in-memory timestamp then
// carries the limit for the process lifetime.
type StateStore interface {
	LastEvaluation(ctx context.Context) (time.Time, error)
	SetLastEvaluation(ctx context.Context, at time.Time) error
}

// CandidateLister supplies the current waiting queue for the
// stale-high-priority rule.
type CandidateLister func(ctx context.Context) []models.WaitingCandidate

// Config tunes the rule thresholds.
type Config struct {
	MinInterval   time.Duration // refuse to re-run inside this window
	CostPerMinute float64       // linear overrun loss estimate, USD
	WorkdayStart  int           // working-hours window for utilization
	WorkdayEnd    int
}

func (c *Config) defaults() {
	if c.MinInterval <= 0 {
		c.MinInterval = 5 * time.Minute
	}
	if c.CostPerMinute <= 0 {
		c.CostPerMinute = 2.0
	}
	if c.WorkdayEnd <= c.WorkdayStart {
		c.WorkdayStart, c.WorkdayEnd = 9, 17
	}
}

// Evaluator runs the efficiency rules over today's board on the monitor
// cadence, rate-limited to prevent alert storms.
type Evaluator struct {
	board      *board.Board
	candidates CandidateLister
	notifier   Notifier
	state      StateStore
	cfg        Config
	lastRun    time.Time
	loadedLast bool
	now        func() time.Time
}

func NewEvaluator(b *board.Board, candidates CandidateLister, notifier Notifier, state StateStore, cfg Config) *Evaluator {
	cfg.defaults()
	return &Evaluator{
		board:      b,
		candidates: candidates,
		notifier:   notifier,
		state:      state,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Run loops on the given tick until the context is cancelled. The rate
// limit, not the tick, decides when rules actually evaluate.
func (e *Evaluator) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	log.WithField("min_interval", e.cfg.MinInterval).Info("Efficiency alerting started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Efficiency alerting stopped")
			return
		case <-ticker.C:
			e.Evaluate(ctx)
		}
	}
}

// Evaluate runs all rules once, unless the minimum interval since the
// last evaluation has not yet elapsed. Rules only apply to today's
// board; a board left over from another day emits nothing. Returns the
// alerts emitted.
func (e *Evaluator) Evaluate(ctx context.Context) []models.Alert {
	now := e.now()
	if !sameDay(e.board.Date(), now) {
		return nil
	}

	if e.state != nil && !e.loadedLast {
		if last, err := e.state.LastEvaluation(ctx); err == nil && last.After(e.lastRun) {
			e.lastRun = last
		}
		e.loadedLast = true
	}
	if now.Sub(e.lastRun) < e.cfg.MinInterval {
		return nil
	}
	e.lastRun = now
	if e.state != nil {
		if err := e.state.SetLastEvaluation(ctx, now); err != nil {
			log.WithError(err).Warn("Failed to persist alert evaluation timestamp")
		}
	}

	snap := e.board.Snapshot()
	var cands []models.WaitingCandidate
	if e.candidates != nil {
		cands = e.candidates(ctx)
	}

	var alerts []models.Alert
	for _, rule := range []func(models.BoardSnapshot, []models.WaitingCandidate, time.Time) *models.Alert{
		e.overrunRule,
		e.partsDelayRule,
		e.pausedJobsRule,
		e.staleWaitingRule,
		e.utilizationRule,
	} {
		if a := rule(snap, cands, now); a != nil {
			a.ID = uuid.NewString()
			a.CreatedAt = now
			alerts = append(alerts, *a)
			e.send(ctx, *a)
		}
	}
	return alerts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (e *Evaluator) send(ctx context.Context, a models.Alert) {
	log.WithFields(log.Fields{
		"rule":     a.Rule,
		"severity": a.Severity,
		"vehicles": a.Vehicles,
	}).Info("Alert emitted")
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, a); err != nil {
		se := &models.SideEffectError{Op: "notify", Err: err}
		log.WithField("rule", a.Rule).WithError(se).Warn("Alert delivery failed")
	}
}
