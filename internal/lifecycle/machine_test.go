package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-workboard/internal/board"
	"github.com/ukydev/garage-workboard/internal/models"
)

type fakeLabor struct {
	started   []string
	stopped   []string
	failStart bool
}

func (f *fakeLabor) Start(_ context.Context, vehicle, _ string, _ models.WorkType) (string, error) {
	if f.failStart {
		return "", errors.New("labor sink down")
	}
	f.started = append(f.started, vehicle)
	return "session-" + vehicle, nil
}

func (f *fakeLabor) Stop(_ context.Context, sessionID, _ string) (models.LaborSummary, error) {
	f.stopped = append(f.stopped, sessionID)
	return models.LaborSummary{SessionID: sessionID, Minutes: 60, Cost: 90}, nil
}

type fakeWorkflow struct {
	events []models.WorkflowEvent
	fail   bool
}

func (f *fakeWorkflow) Record(_ context.Context, ev models.WorkflowEvent) error {
	if f.fail {
		return errors.New("audit sink down")
	}
	f.events = append(f.events, ev)
	return nil
}

func newFixture(t *testing.T) (*board.Board, *Machine, *fakeLabor, *fakeWorkflow, string) {
	t.Helper()
	wed := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	b := board.New(wed)
	job, err := b.Assign(models.Job{
		VehicleCode:       "ABC-123",
		WorkType:          models.WorkMechanical,
		Priority:          models.PriorityMedium,
		EstimatedDuration: "2h",
	}, "09:00")
	require.NoError(t, err)

	labor := &fakeLabor{}
	workflow := &fakeWorkflow{}
	return b, NewMachine(b, labor, workflow), labor, workflow, job.ID
}

func TestStartThenComplete(t *testing.T) {
	b, m, labor, workflow, jobID := newFixture(t)
	ctx := context.Background()

	started, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)
	require.NotNil(t, started.ActualStart)
	assert.Equal(t, models.StatusInProgress, started.Status)
	assert.Equal(t, "09:00", started.StartedSlot)
	assert.Equal(t, "session-ABC-123", started.LaborSessionID)

	done, err := m.Complete(ctx, jobID, "replaced pads")
	require.NoError(t, err)
	require.NotNil(t, done.ActualEnd)
	assert.False(t, done.ActualEnd.Before(*done.ActualStart))
	assert.False(t, done.IsOverrunning)
	assert.Zero(t, done.OverrunMinutes)

	assert.Equal(t, []string{"ABC-123"}, labor.started)
	assert.Equal(t, []string{"session-ABC-123"}, labor.stopped)
	require.Len(t, workflow.events, 2)
	assert.Equal(t, models.StatusCompleted, workflow.events[1].ToStatus)

	got, _ := b.Job(jobID)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestCannotCompleteFromPaused(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()

	_, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)
	_, err = m.Pause(ctx, jobID, "lunch break", "kostas", nil)
	require.NoError(t, err)

	_, err = m.Complete(ctx, jobID, "")
	require.Error(t, err)
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCannotPauseScheduledJob(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	_, err := m.Pause(context.Background(), jobID, "waiting on lift", "kostas", nil)
	require.Error(t, err)
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestPauseRequiresReason(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()
	_, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)

	_, err = m.Pause(ctx, jobID, "", "kostas", nil)
	require.Error(t, err)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "reason", verr.Field)
}

func TestPauseResumeKeepsStartAndAccruesHold(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	started, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(30 * time.Minute) }
	paused, err := m.Pause(ctx, jobID, "customer call", "kostas", nil)
	require.NoError(t, err)
	assert.Equal(t, started.ActualStart, paused.ActualStart)
	require.NotNil(t, paused.Pause)
	assert.Equal(t, "customer call", paused.Pause.Reason)

	m.now = func() time.Time { return base.Add(50 * time.Minute) }
	resumed, err := m.Resume(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, started.ActualStart, resumed.ActualStart)
	assert.Nil(t, resumed.Pause)
	assert.Equal(t, 20, resumed.HeldMinutes)
	assert.Nil(t, resumed.HoldStarted)
}

func TestAwaitPartsRequiresPartID(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()
	_, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)

	_, err = m.AwaitParts(ctx, jobID, models.PartsNeeded{Supplier: "acme"})
	require.Error(t, err)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "part_id", verr.Field)
}

func TestWaitingPartsRoundTripRetainsHistory(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()
	_, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)

	waiting, err := m.AwaitParts(ctx, jobID, models.PartsNeeded{PartID: "brake-pad-22", Supplier: "acme"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaitingParts, waiting.Status)
	assert.NotNil(t, waiting.ActualStart)

	back, err := m.PartsArrived(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, back.Status)
	require.NotNil(t, back.Parts)
	assert.Equal(t, "brake-pad-22", back.Parts.PartID)
	assert.NotNil(t, back.PartsArrivedAt)
}

func TestCompletedIsTerminal(t *testing.T) {
	_, m, _, _, jobID := newFixture(t)
	ctx := context.Background()
	_, err := m.Start(ctx, jobID, "kostas")
	require.NoError(t, err)
	_, err = m.Complete(ctx, jobID, "")
	require.NoError(t, err)

	_, err = m.Start(ctx, jobID, "kostas")
	assert.Error(t, err)
	_, err = m.Pause(ctx, jobID, "x", "y", nil)
	assert.Error(t, err)
	_, err = m.AwaitParts(ctx, jobID, models.PartsNeeded{PartID: "p"})
	assert.Error(t, err)
}

func TestSinkFailureDoesNotRollBack(t *testing.T) {
	b, m, labor, workflow, jobID := newFixture(t)
	labor.failStart = true
	workflow.fail = true

	job, err := m.Start(context.Background(), jobID, "kostas")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, job.Status)
	assert.Empty(t, job.LaborSessionID)

	got, _ := b.Job(jobID)
	assert.Equal(t, models.StatusInProgress, got.Status)
}
