package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/models"
)

var wednesday = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

func startedJob(t *testing.T, b *board.Board, code, estimate string, startedAgo time.Duration, now time.Time) models.Job {
	t.Helper()
	job, err := b.Assign(models.Job{
		VehicleCode:       code,
		WorkType:          models.WorkMechanical,
		Priority:          models.PriorityMedium,
		EstimatedDuration: estimate,
	}, "09:00")
	require.NoError(t, err)
	start := now.Add(-startedAgo)
	job, err = b.Update(job.ID, func(j *models.Job) error {
		j.Status = models.StatusInProgress
		j.ActualStart = &start
		return nil
	})
	require.NoError(t, err)
	return job
}

func TestOverrunAfterEstimateExceeded(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "2h", 150*time.Minute, now)

	m := New(b, time.Second, time.Second, nil)
	assert.True(t, m.Sweep(now))

	got, _ := b.Job(job.ID)
	assert.True(t, got.IsOverrunning)
	assert.Equal(t, 30, got.OverrunMinutes)
}

func TestNoOverrunWithinEstimate(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 9, 5, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "3h", 125*time.Minute, now)

	m := New(b, time.Second, time.Second, nil)
	m.Sweep(now)

	got, _ := b.Job(job.ID)
	assert.False(t, got.IsOverrunning)
	assert.Zero(t, got.OverrunMinutes)

	// later tick: 185 minutes elapsed against a 180 minute estimate
	later := now.Add(60 * time.Minute)
	assert.True(t, m.Sweep(later))
	got, _ = b.Job(job.ID)
	assert.True(t, got.IsOverrunning)
	assert.Equal(t, 5, got.OverrunMinutes)
}

func TestHeldMinutesExcludedFromOverrun(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "2h", 150*time.Minute, now)
	_, err := b.Update(job.ID, func(j *models.Job) error {
		j.HeldMinutes = 40
		return nil
	})
	require.NoError(t, err)

	m := New(b, time.Second, time.Second, nil)
	m.Sweep(now)

	got, _ := b.Job(job.ID)
	assert.False(t, got.IsOverrunning) // 150-40 = 110 < 120
}

func TestChangeDetectionFiresOnce(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	startedJob(t, b, "ABC-123", "2h", 150*time.Minute, now)

	var fired int
	m := New(b, time.Second, time.Second, func(models.BoardSnapshot) { fired++ })

	assert.True(t, m.Sweep(now))
	assert.False(t, m.Sweep(now)) // same wall clock, nothing moved
	assert.Equal(t, 1, fired)

	// a minute later the overrun grows, so the change fires again
	assert.True(t, m.Sweep(now.Add(time.Minute)))
	assert.Equal(t, 2, fired)
}

func TestOtherDaysAreSkipped(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "2h", 150*time.Minute, now)

	m := New(b, time.Second, time.Second, nil)
	tomorrow := now.Add(24 * time.Hour)
	assert.False(t, m.Sweep(tomorrow))

	got, _ := b.Job(job.ID)
	assert.False(t, got.IsOverrunning)
}

func TestEvaluationGate(t *testing.T) {
	b := board.New(wednesday)
	base := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "2h", 150*time.Minute, base)

	m := New(b, time.Second, 30*time.Second, nil)
	current := base
	m.now = func() time.Time { return current }

	m.Tick() // first tick evaluates
	got, _ := b.Job(job.ID)
	require.True(t, got.IsOverrunning)

	// reset the flag; a tick inside the gate must not re-evaluate
	_, err := b.Update(job.ID, func(j *models.Job) error {
		j.IsOverrunning = false
		j.OverrunMinutes = 0
		return nil
	})
	require.NoError(t, err)
	current = base.Add(10 * time.Second)
	m.Tick()
	got, _ = b.Job(job.ID)
	assert.False(t, got.IsOverrunning)

	current = base.Add(40 * time.Second)
	m.Tick()
	got, _ = b.Job(job.ID)
	assert.True(t, got.IsOverrunning)
}

func TestPausedJobsNotEvaluated(t *testing.T) {
	b := board.New(wednesday)
	now := time.Date(2026, 8, 26, 11, 30, 0, 0, time.UTC)
	job := startedJob(t, b, "ABC-123", "2h", 150*time.Minute, now)
	_, err := b.Update(job.ID, func(j *models.Job) error {
		j.Status = models.StatusPaused
		return nil
	})
	require.NoError(t, err)

	m := New(b, time.Second, time.Second, nil)
	m.Sweep(now)

	got, _ := b.Job(job.ID)
	assert.False(t, got.IsOverrunning)
}
