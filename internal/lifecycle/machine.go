package lifecycle

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/models"
)

// LaborTracker is the external labor-time sink. Start returns a session
// id the engine keeps to correlate the later stop.
type LaborTracker interface {
	Start(ctx context.Context, vehicleCode, mechanic string, work models.WorkType) (string, error)
	Stop(ctx context.Context, sessionID, notes string) (models.LaborSummary, error)
}

// WorkflowSink receives audit records for every state transition.
type WorkflowSink interface {
	Record(ctx context.Context, ev models.WorkflowEvent) error
}

// Machine drives job status transitions on a board. Guard violations
// are rejected with a ValidationError before any state is touched; sink
// failures after a committed transition are logged and never roll the
// transition back.
type Machine struct {
	board    *board.Board
	labor    LaborTracker
	workflow WorkflowSink
	now      func() time.Time
}

func NewMachine(b *board.Board, labor LaborTracker, workflow WorkflowSink) *Machine {
	return &Machine{board: b, labor: labor, workflow: workflow, now: time.Now}
}

// Start moves a scheduled job into in_progress: stamps actualStart,
// resets overrun state, records the slot work actually began in and
// opens a labor-tracking session.
func (m *Machine) Start(ctx context.Context, jobID, mechanic string) (models.Job, error) {
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusScheduled {
			return models.Validationf("status", "cannot start a %s job", j.Status)
		}
		if j.ActualStart != nil {
			return models.Validationf("actual_start", "job %s already has a start time", j.ID)
		}
		start := now
		j.Status = models.StatusInProgress
		j.ActualStart = &start
		j.StartedSlot = j.SlotID
		j.IsOverrunning = false
		j.OverrunMinutes = 0
		j.HeldMinutes = 0
		j.HoldStarted = nil
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}

	if m.labor != nil {
		sessionID, lerr := m.labor.Start(ctx, job.VehicleCode, mechanic, job.WorkType)
		if lerr != nil {
			m.warnSideEffect("labor start", job.VehicleCode, lerr)
		} else if sessionID != "" {
			if updated, uerr := m.board.Update(jobID, func(j *models.Job) error {
				j.LaborSessionID = sessionID
				return nil
			}); uerr == nil {
				job = updated
			}
		}
	}
	m.audit(ctx, job.VehicleCode, models.StatusScheduled, models.StatusInProgress, "", mechanic)
	return job, nil
}

// Complete finishes an in_progress job: stamps actualEnd, computes the
// actual elapsed minutes, clears overrun flags and closes the labor
// session.
func (m *Machine) Complete(ctx context.Context, jobID, notes string) (models.Job, error) {
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusInProgress {
			return models.Validationf("status", "cannot complete a %s job", j.Status)
		}
		if j.ActualStart == nil {
			return models.Validationf("actual_start", "job %s has no start time", j.ID)
		}
		end := now
		j.Status = models.StatusCompleted
		j.ActualEnd = &end
		j.ActualMinutes = int(end.Sub(*j.ActualStart).Minutes())
		j.IsOverrunning = false
		j.OverrunMinutes = 0
		if notes != "" {
			j.Notes = notes
		}
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}

	if m.labor != nil && job.LaborSessionID != "" {
		if _, lerr := m.labor.Stop(ctx, job.LaborSessionID, notes); lerr != nil {
			m.warnSideEffect("labor stop", job.VehicleCode, lerr)
		}
	}
	m.audit(ctx, job.VehicleCode, models.StatusInProgress, models.StatusCompleted, notes, "")
	return job, nil
}

// Pause stops work on an in_progress job. A non-empty reason is
// required; actualStart is kept and the hold clock starts so the paused
// interval is excluded from overrun accrual.
func (m *Machine) Pause(ctx context.Context, jobID, reason, pausedBy string, estimatedResume *time.Time) (models.Job, error) {
	if reason == "" {
		return models.Job{}, models.Validationf("reason", "pause reason is required")
	}
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusInProgress {
			return models.Validationf("status", "cannot pause a %s job", j.Status)
		}
		hold := now
		j.Status = models.StatusPaused
		j.Pause = &models.PauseInfo{
			Reason:          reason,
			PausedBy:        pausedBy,
			PausedAt:        now,
			EstimatedResume: estimatedResume,
		}
		j.HoldStarted = &hold
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	m.audit(ctx, job.VehicleCode, models.StatusInProgress, models.StatusPaused, reason, pausedBy)
	return job, nil
}

// Resume returns a paused job to in_progress, folding the paused
// interval into the job's held minutes.
func (m *Machine) Resume(ctx context.Context, jobID string) (models.Job, error) {
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusPaused {
			return models.Validationf("status", "cannot resume a %s job", j.Status)
		}
		j.Status = models.StatusInProgress
		j.Pause = nil
		releaseHold(j, now)
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	m.audit(ctx, job.VehicleCode, models.StatusPaused, models.StatusInProgress, "", "")
	return job, nil
}

// AwaitParts blocks an in_progress job on a parts order. At minimum a
// part id is required.
func (m *Machine) AwaitParts(ctx context.Context, jobID string, parts models.PartsNeeded) (models.Job, error) {
	if parts.PartID == "" {
		return models.Job{}, models.Validationf("part_id", "part id is required")
	}
	if parts.Quantity <= 0 {
		parts.Quantity = 1
	}
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusInProgress {
			return models.Validationf("status", "cannot wait for parts on a %s job", j.Status)
		}
		hold := now
		j.Status = models.StatusWaitingParts
		j.Parts = &parts
		j.HoldStarted = &hold
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	m.audit(ctx, job.VehicleCode, models.StatusInProgress, models.StatusWaitingParts, parts.PartID, "")
	return job, nil
}

// PartsArrived returns a waiting_parts job to in_progress. The parts
// record is kept as history with an arrival stamp.
func (m *Machine) PartsArrived(ctx context.Context, jobID string) (models.Job, error) {
	now := m.now()
	job, err := m.board.Update(jobID, func(j *models.Job) error {
		if j.Status != models.StatusWaitingParts {
			return models.Validationf("status", "job %s is not waiting for parts", j.ID)
		}
		arrived := now
		j.Status = models.StatusInProgress
		j.PartsArrivedAt = &arrived
		releaseHold(j, now)
		return nil
	})
	if err != nil {
		return models.Job{}, err
	}
	m.audit(ctx, job.VehicleCode, models.StatusWaitingParts, models.StatusInProgress, "", "")
	return job, nil
}

func releaseHold(j *models.Job, now time.Time) {
	if j.HoldStarted != nil {
		j.HeldMinutes += int(now.Sub(*j.HoldStarted).Minutes())
		j.HoldStarted = nil
	}
}

func (m *Machine) audit(ctx context.Context, vehicle string, from, to models.JobStatus, reason, actor string) {
	if m.workflow == nil {
		return
	}
	ev := models.WorkflowEvent{
		VehicleCode: vehicle,
		FromStatus:  from,
		ToStatus:    to,
		Reason:      reason,
		Actor:       actor,
		At:          m.now(),
	}
	if err := m.workflow.Record(ctx, ev); err != nil {
		m.warnSideEffect("workflow audit", vehicle, err)
	}
}

func (m *Machine) warnSideEffect(op, vehicle string, err error) {
	se := &models.SideEffectError{Op: op, Err: err}
	log.WithFields(log.Fields{"vehicle": vehicle, "op": op}).WithError(se).Warn("Side effect failed; transition remains committed")
}
