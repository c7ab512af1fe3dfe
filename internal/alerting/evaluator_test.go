package alerting

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

var (
	wednesday = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	midday    = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
)

type captureNotifier struct {
	alerts []models.Alert
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, a models.Alert) error {
	if c.err != nil {
		return c.err
	}
	c.alerts = append(c.alerts, a)
	return nil
}

type memState struct {
	last time.Time
}

func (m *memState) LastEvaluation(context.Context) (time.Time, error) {
	return m.last, nil
}

func (m *memState) SetLastEvaluation(_ context.Context, at time.Time) error {
	m.last = at
	return nil
}

func overrunningBoard(t *testing.T, codes ...string) *board.Board {
	t.Helper()
	b := board.New(wednesday)
	for i, code := range codes {
		job, err := b.Assign(models.Job{
			VehicleCode:       code,
			WorkType:          models.WorkMechanical,
			Priority:          models.PriorityMedium,
			EstimatedDuration: "1h",
		}, models.SlotID(9+i%8))
		require.NoError(t, err)
		start := midday.Add(-2 * time.Hour)
		_, err = b.Update(job.ID, func(j *models.Job) error {
			j.Status = models.StatusInProgress
			j.ActualStart = &start
			j.IsOverrunning = true
			j.OverrunMinutes = 20
			return nil
		})
		require.NoError(t, err)
	}
	return b
}

func newEvaluator(b *board.Board, n Notifier, s StateStore) *Evaluator {
	e := NewEvaluator(b, nil, n, s, Config{MinInterval: 5 * time.Minute, CostPerMinute: 2})
	e.now = func() time.Time { return midday }
	return e
}

func TestRateLimitSuppressesSecondRun(t *testing.T) {
	b := overrunningBoard(t, "ABC-123")
	n := &captureNotifier{}
	e := newEvaluator(b, n, nil)

	first := e.Evaluate(context.Background())
	require.NotEmpty(t, first)

	// two minutes later: inside the window, nothing may be emitted
	e.now = func() time.Time { return midday.Add(2 * time.Minute) }
	assert.Empty(t, e.Evaluate(context.Background()))

	e.now = func() time.Time { return midday.Add(6 * time.Minute) }
	assert.NotEmpty(t, e.Evaluate(context.Background()))
}

func TestRateLimitSurvivesRestartViaStateStore(t *testing.T) {
	b := overrunningBoard(t, "ABC-123")
	state := &memState{last: midday.Add(-1 * time.Minute)}

	e := newEvaluator(b, &captureNotifier{}, state)
	assert.Empty(t, e.Evaluate(context.Background()), "persisted timestamp must gate a fresh evaluator")

	state.last = midday.Add(-10 * time.Minute)
	e2 := newEvaluator(b, &captureNotifier{}, state)
	alerts := e2.Evaluate(context.Background())
	assert.NotEmpty(t, alerts)
	assert.Equal(t, midday, state.last)
}

func TestBoardFromAnotherDayEmitsNothing(t *testing.T) {
	b := overrunningBoard(t, "OLD-123")
	n := &captureNotifier{}
	e := newEvaluator(b, n, nil)

	// the process crossed midnight; the board still holds Wednesday's
	// frozen overrun state
	e.now = func() time.Time { return midday.Add(24 * time.Hour) }
	assert.Empty(t, e.Evaluate(context.Background()))
	assert.Empty(t, n.alerts)

	e.now = func() time.Time { return midday }
	assert.NotEmpty(t, e.Evaluate(context.Background()))
}

func TestNotifierFailureDoesNotAbortEvaluation(t *testing.T) {
	b := overrunningBoard(t, "ABC-123")
	n := &captureNotifier{err: errors.New("broker down")}
	e := newEvaluator(b, n, nil)

	alerts := e.Evaluate(context.Background())
	assert.NotEmpty(t, alerts)
}

func TestAlertsCarryIdentityAndTimestamp(t *testing.T) {
	b := overrunningBoard(t, "ABC-123")
	n := &captureNotifier{}
	e := newEvaluator(b, n, nil)

	alerts := e.Evaluate(context.Background())
	require.NotEmpty(t, alerts)
	for _, a := range alerts {
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, midday, a.CreatedAt)
	}
	assert.Len(t, n.alerts, len(alerts))
}
