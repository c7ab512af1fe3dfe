package monitor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/models"
)

// Monitor periodically compares elapsed working time against each
// in-progress job's estimate and flags overruns. The fast tick keeps the
// loop responsive to start/stop; the actual overrun evaluation is gated
// to a coarser interval to bound work.
type Monitor struct {
	board     *board.Board
	tick      time.Duration
	evalEvery time.Duration
	lastEval  time.Time
	now       func() time.Time
	onChange  func(models.BoardSnapshot)
}

// New builds a monitor over a board. onChange is invoked with a fresh
// snapshot only when at least one job's overrun or conflict state
// actually changed; it may be nil.
func New(b *board.Board, tick, evalEvery time.Duration, onChange func(models.BoardSnapshot)) *Monitor {
	if tick <= 0 {
		tick = 5 * time.Second
	}
	if evalEvery <= 0 {
		evalEvery = 30 * time.Second
	}
	return &Monitor{
		board:     b,
		tick:      tick,
		evalEvery: evalEvery,
		now:       time.Now,
		onChange:  onChange,
	}
}

// Run loops until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	log.WithFields(log.Fields{"tick": m.tick, "eval_every": m.evalEvery}).Info("Overrun monitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Overrun monitor stopped")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick runs one monitor iteration, honoring the evaluation gate.
func (m *Monitor) Tick() {
	now := m.now()
	if now.Sub(m.lastEval) < m.evalEvery {
		return
	}
	m.lastEval = now
	m.Sweep(now)
}

// Sweep evaluates every in-progress job once. Jobs whose board belongs
// to another calendar day are skipped entirely.
func (m *Monitor) Sweep(now time.Time) bool {
	if !sameDay(m.board.Date(), now) {
		return false
	}

	changed := false
	snap := m.board.Snapshot()
	for _, slot := range snap.Slots {
		for _, j := range slot.Jobs {
			if j.Status != models.StatusInProgress || j.ActualStart == nil {
				continue
			}
			over, minutes, ok := computeOverrun(&j, now)
			if !ok || (j.IsOverrunning == over && j.OverrunMinutes == minutes) {
				continue
			}
			if m.applyOverrun(j.ID, over, minutes) {
				changed = true
				log.WithFields(log.Fields{
					"vehicle":         j.VehicleCode,
					"slot":            slot.ID,
					"overrunning":     over,
					"overrun_minutes": minutes,
				}).Info("Overrun state changed")
			}
		}
	}

	if m.board.RecomputeConflicts() {
		changed = true
	}
	if changed && m.onChange != nil {
		m.onChange(m.board.Snapshot())
	}
	return changed
}

// applyOverrun writes the new overrun fields back, re-checking under the
// board lock that the job is still in progress.
func (m *Monitor) applyOverrun(jobID string, over bool, minutes int) bool {
	_, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusInProgress {
			return models.Validationf("status", "job left in_progress during sweep")
		}
		j.IsOverrunning = over
		j.OverrunMinutes = minutes
		return nil
	})
	return err == nil
}

// computeOverrun derives the overrun state of one in-progress job. Time
// spent paused or waiting for parts (held minutes) does not count toward
// the overrun.
func computeOverrun(j *models.Job, now time.Time) (over bool, minutes int, ok bool) {
	est, err := j.EstimatedMinutes()
	if err != nil {
		log.WithFields(log.Fields{"vehicle": j.VehicleCode, "estimate": j.EstimatedDuration}).WithError(err).Warn("Unparseable duration estimate; skipping overrun check")
		return false, 0, false
	}
	elapsed := int(now.Sub(*j.ActualStart).Minutes()) - j.HeldMinutes
	if elapsed < 0 {
		elapsed = 0
	}
	over = elapsed > est
	minutes = elapsed - est
	if minutes < 0 {
		minutes = 0
	}
	return over, minutes, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
