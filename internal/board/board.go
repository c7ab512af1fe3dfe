package board

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/garage-workboard/internal/models"
)

// Board owns one day's fixed set of time slots and the jobs assigned to
// them. All mutations are serialized through a single mutex so no
// observer ever sees a job in two slots, or in none, during a move.
type Board struct {
	mu      sync.Mutex
	date    time.Time
	slotIDs []string
	hours   map[string]int
	jobs    map[string][]*models.Job // slot id -> ordered jobs
	byID    map[string]*models.Job
	byCode  map[string]string // vehicle code -> job id
}

// New builds an empty board for a date. The slot set is derived from the
// weekday/weekend calendar rule and is fixed for the board's lifetime.
func New(date time.Time) *Board {
	b := &Board{
		date:   date,
		hours:  make(map[string]int),
		jobs:   make(map[string][]*models.Job),
		byID:   make(map[string]*models.Job),
		byCode: make(map[string]string),
	}
	for _, h := range models.SlotHoursFor(date) {
		id := models.SlotID(h)
		b.slotIDs = append(b.slotIDs, id)
		b.hours[id] = h
		b.jobs[id] = nil
	}
	return b
}

// FromSnapshot rebuilds a board from a persisted snapshot. Jobs sitting
// in slots that no longer exist for the date are dropped rather than
// invented a new slot for.
func FromSnapshot(snap models.BoardSnapshot) (*Board, error) {
	date, err := time.Parse("2006-01-02", snap.Date)
	if err != nil {
		return nil, models.Validationf("date", "invalid snapshot date %q", snap.Date)
	}
	b := New(date)
	for _, slot := range snap.Slots {
		if _, ok := b.hours[slot.ID]; !ok {
			continue
		}
		for i := range slot.Jobs {
			j := slot.Jobs[i]
			j.SlotID = slot.ID
			jc := j
			b.jobs[slot.ID] = append(b.jobs[slot.ID], &jc)
			b.byID[jc.ID] = &jc
			b.byCode[jc.VehicleCode] = jc.ID
		}
	}
	return b, nil
}

// Date returns the day this board schedules.
func (b *Board) Date() time.Time {
	return b.date
}

// SlotIDs returns the fixed slot labels in day order.
func (b *Board) SlotIDs() []string {
	out := make([]string, len(b.slotIDs))
	copy(out, b.slotIDs)
	return out
}

// Assign places a job into a slot. The slot must exist for the board's
// date and the vehicle code must not already be scheduled.
func (b *Board) Assign(job models.Job, slotID string) (models.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.hours[slotID]; !ok {
		return models.Job{}, models.Validationf("slot_id", "slot %q does not exist on %s", slotID, b.date.Format("2006-01-02"))
	}
	if job.VehicleCode == "" {
		return models.Job{}, models.Validationf("vehicle_code", "vehicle code is required")
	}
	if _, dup := b.byCode[job.VehicleCode]; dup {
		return models.Job{}, models.Validationf("vehicle_code", "vehicle %q is already scheduled", job.VehicleCode)
	}

	now := time.Now()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.SlotID = slotID
	job.Status = models.StatusScheduled
	job.Priority = job.Priority.Normalized()
	job.CreatedAt = now
	job.UpdatedAt = now

	b.jobs[slotID] = append(b.jobs[slotID], &job)
	b.byID[job.ID] = &job
	b.byCode[job.VehicleCode] = job.ID
	return job, nil
}

// AssignCandidate promotes a waiting candidate into a scheduled job.
func (b *Board) AssignCandidate(c models.WaitingCandidate, slotID string) (models.Job, error) {
	est := "1h"
	if c.EstimatedHours > 0 {
		est = (time.Duration(c.EstimatedHours * float64(time.Hour))).String()
	}
	return b.Assign(models.Job{
		VehicleCode:       c.VehicleCode,
		Model:             c.Model,
		CustomerName:      c.ClientName,
		WorkType:          c.WorkType,
		Priority:          c.Priority,
		EstimatedDuration: est,
		Notes:             c.Issue,
	}, slotID)
}

// Move relocates a job between slots as one atomic state transition.
func (b *Board) Move(jobID, fromSlot, toSlot string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.hours[toSlot]; !ok {
		return models.Validationf("to_slot", "slot %q does not exist on %s", toSlot, b.date.Format("2006-01-02"))
	}
	job, ok := b.byID[jobID]
	if !ok {
		return models.Validationf("job_id", "job %q is not on the board", jobID)
	}
	if job.SlotID != fromSlot {
		return models.Validationf("from_slot", "job %q is in slot %q, not %q", jobID, job.SlotID, fromSlot)
	}

	b.jobs[fromSlot] = removeJob(b.jobs[fromSlot], jobID)
	job.SlotID = toSlot
	job.UpdatedAt = time.Now()
	b.jobs[toSlot] = append(b.jobs[toSlot], job)
	return nil
}

// Release takes a job off the board and converts it back into a waiting
// candidate, seeding the issue from the job's notes.
func (b *Board) Release(jobID string) (models.WaitingCandidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.byID[jobID]
	if !ok {
		return models.WaitingCandidate{}, models.Validationf("job_id", "job %q is not on the board", jobID)
	}

	b.jobs[job.SlotID] = removeJob(b.jobs[job.SlotID], jobID)
	delete(b.byID, jobID)
	delete(b.byCode, job.VehicleCode)

	return models.WaitingCandidate{
		Source:         "released",
		VehicleCode:    job.VehicleCode,
		Model:          job.Model,
		Issue:          job.Notes,
		WorkType:       job.WorkType,
		Priority:       job.Priority,
		EstimatedHours: estimateHours(job),
		ClientName:     job.CustomerName,
		LastReminder:   time.Now(),
	}, nil
}

// Update applies a mutation to one job under the board lock. The
// mutation either fully applies or, when fn returns an error, leaves the
// job untouched.
func (b *Board) Update(jobID string, fn func(*models.Job) error) (models.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, ok := b.byID[jobID]
	if !ok {
		return models.Job{}, models.Validationf("job_id", "job %q is not on the board", jobID)
	}
	scratch := *job
	if err := fn(&scratch); err != nil {
		return models.Job{}, err
	}
	scratch.UpdatedAt = time.Now()
	*job = scratch
	return scratch, nil
}

// Job returns a copy of one job by id.
func (b *Board) Job(jobID string) (models.Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.byID[jobID]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// Snapshot returns a consistent deep copy of the whole board.
func (b *Board) Snapshot() models.BoardSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := models.BoardSnapshot{
		Date:    b.date.Format("2006-01-02"),
		SavedAt: time.Now(),
	}
	for _, id := range b.slotIDs {
		slot := models.TimeSlot{ID: id, Hour: b.hours[id]}
		for _, j := range b.jobs[id] {
			slot.Jobs = append(slot.Jobs, *j)
		}
		snap.Slots = append(snap.Slots, slot)
	}
	return snap
}

// ScheduledCodes returns the vehicle codes currently on the board, used
// to exclude them from the waiting queue.
func (b *Board) ScheduledCodes() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	codes := make(map[string]bool, len(b.byCode))
	for code := range b.byCode {
		codes[code] = true
	}
	return codes
}

// JobCount reports how many jobs are on the board.
func (b *Board) JobCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byID)
}

func removeJob(jobs []*models.Job, jobID string) []*models.Job {
	out := jobs[:0]
	for _, j := range jobs {
		if j.ID != jobID {
			out = append(out, j)
		}
	}
	return out
}

func estimateHours(j *models.Job) float64 {
	mins, err := j.EstimatedMinutes()
	if err != nil {
		return 1
	}
	return float64(mins) / 60
}
