package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-workboard/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo("mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollectionsFailCleanly(t *testing.T) {
	ctx := context.Background()

	store := &MongoBoardStore{}
	assert.Error(t, store.SaveBoard(ctx, models.BoardSnapshot{Date: "2026-08-26"}))
	_, err := store.LoadBoard(ctx, "2026-08-26")
	assert.Error(t, err)

	tools := &MongoToolCollection{}
	assert.Error(t, tools.InsertTool(ctx, models.Tool{ID: "T1"}))

	sink := &MongoWorkflowSink{}
	assert.Error(t, sink.InsertEvent(ctx, models.WorkflowEvent{}))

	labor := &MongoLaborTracker{}
	_, err = labor.Start(ctx, "ABC-123", "kostas", models.WorkMechanical)
	assert.Error(t, err)
}

// Integration test (requires running MongoDB)
func TestBoardStoreRoundTrip_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := ConnectMongo(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database("test_garage").Collection("boards")
	coll.Drop(context.Background())
	store := &MongoBoardStore{Collection: coll}

	snap := models.BoardSnapshot{
		Date:    "2026-08-26",
		SavedAt: time.Now(),
		Slots: []models.TimeSlot{
			{ID: "09:00", Hour: 9, Jobs: []models.Job{{
				ID:          "job-1",
				VehicleCode: "ABC-123",
				Status:      models.StatusScheduled,
			}}},
		},
	}
	require.NoError(t, store.SaveBoard(context.Background(), snap))
	// saving again must upsert, not duplicate
	require.NoError(t, store.SaveBoard(context.Background(), snap))

	loaded, err := store.LoadBoard(context.Background(), "2026-08-26")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Slots, 1)
	assert.Equal(t, "ABC-123", loaded.Slots[0].Jobs[0].VehicleCode)

	missing, err := store.LoadBoard(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// Integration test (requires running MongoDB)
func TestLaborTracker_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := ConnectMongo(uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database("test_garage").Collection("labor_sessions")
	coll.Drop(context.Background())
	tracker := &MongoLaborTracker{Collection: coll, RatePerMinute: 1.5}

	id, err := tracker.Start(context.Background(), "ABC-123", "kostas", models.WorkMechanical)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	summary, err := tracker.Stop(context.Background(), id, "done")
	require.NoError(t, err)
	assert.Equal(t, id, summary.SessionID)

	_, err = tracker.Stop(context.Background(), "no-such-session", "")
	assert.Error(t, err)
}
