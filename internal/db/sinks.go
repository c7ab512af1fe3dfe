package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/garage-workboard/internal/models"
)

// MongoWorkflowSink stores transition audit records, insert-only.
type MongoWorkflowSink struct {
	Collection *mongo.Collection
}

// Record inserts a workflow event.
func (s *MongoWorkflowSink) Record(ctx context.Context, ev models.WorkflowEvent) error {
	return s.InsertEvent(ctx, ev)
}

// InsertEvent inserts a workflow event into the collection.
func (s *MongoWorkflowSink) InsertEvent(ctx context.Context, ev models.WorkflowEvent) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := s.Collection.InsertOne(ctx, ev)
	return err
}

// FindEvents queries the audit trail for one vehicle, newest first.
func (s *MongoWorkflowSink) FindEvents(ctx context.Context, vehicleCode string) ([]models.WorkflowEvent, error) {
	if s.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.M{"at": -1})
	cursor, err := s.Collection.Find(ctx, bson.M{"vehicle_code": vehicleCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var events []models.WorkflowEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// MongoLaborTracker implements the labor-tracking sink over a sessions
// collection. Cost is linear in minutes at a configured rate; the exact
// billing formula lives outside this engine.
type MongoLaborTracker struct {
	Collection    *mongo.Collection
	RatePerMinute float64
}

// Start opens a labor session and returns its id.
func (t *MongoLaborTracker) Start(ctx context.Context, vehicleCode, mechanic string, work models.WorkType) (string, error) {
	if t.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	session := models.LaborSession{
		ID:          uuid.NewString(),
		VehicleCode: vehicleCode,
		Mechanic:    mechanic,
		WorkType:    work,
		StartedAt:   time.Now(),
	}
	if _, err := t.Collection.InsertOne(ctx, session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// Stop closes a session and returns the cost summary.
func (t *MongoLaborTracker) Stop(ctx context.Context, sessionID, notes string) (models.LaborSummary, error) {
	if t.Collection == nil {
		return models.LaborSummary{}, fmt.Errorf("mongo collection is nil")
	}
	var session models.LaborSession
	if err := t.Collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.LaborSummary{}, fmt.Errorf("labor session not found")
		}
		return models.LaborSummary{}, err
	}

	now := time.Now()
	minutes := int(now.Sub(session.StartedAt).Minutes())
	cost := float64(minutes) * t.RatePerMinute

	update := bson.M{"$set": bson.M{
		"stopped_at": now,
		"notes":      notes,
		"minutes":    minutes,
		"cost":       cost,
	}}
	if _, err := t.Collection.UpdateOne(ctx, bson.M{"_id": sessionID}, update); err != nil {
		return models.LaborSummary{}, err
	}
	return models.LaborSummary{SessionID: sessionID, Minutes: minutes, Cost: cost}, nil
}

// MongoAlertState persists the efficiency evaluator's last-run
// timestamp so the alert rate limit survives restarts.
type MongoAlertState struct {
	Collection *mongo.Collection
}

const alertStateKey = "efficiency_alerts"

type alertStateDoc struct {
	ID     string    `bson:"_id"`
	LastAt time.Time `bson:"last_at"`
}

func (s *MongoAlertState) LastEvaluation(ctx context.Context) (time.Time, error) {
	if s.Collection == nil {
		return time.Time{}, fmt.Errorf("mongo collection is nil")
	}
	var doc alertStateDoc
	err := s.Collection.FindOne(ctx, bson.M{"_id": alertStateKey}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.LastAt, nil
}

func (s *MongoAlertState) SetLastEvaluation(ctx context.Context, at time.Time) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": alertStateKey}, alertStateDoc{ID: alertStateKey, LastAt: at}, opts)
	return err
}
