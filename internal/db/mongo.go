package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/garage-workboard/internal/models"
)

// ConnectMongo connects to MongoDB at the given URI and verifies the
// connection with a ping.
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.NewClient error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoBoardStore persists board snapshots keyed by date.
type MongoBoardStore struct {
	Collection *mongo.Collection
}

// SaveBoard upserts the snapshot for its date.
func (s *MongoBoardStore) SaveBoard(ctx context.Context, snap models.BoardSnapshot) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.Collection.ReplaceOne(ctx, bson.M{"date": snap.Date}, snap, opts)
	return err
}

// LoadBoard reads the snapshot for a date. A missing document yields a
// nil snapshot so callers can start a fresh board.
func (s *MongoBoardStore) LoadBoard(ctx context.Context, date string) (*models.BoardSnapshot, error) {
	if s.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var snap models.BoardSnapshot
	err := s.Collection.FindOne(ctx, bson.M{"date": date}).Decode(&snap)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// MongoToolCollection wraps the tool catalogue collection.
type MongoToolCollection struct {
	Collection *mongo.Collection
}

// mongoToolCursor wraps a MongoDB cursor for tool queries.
type mongoToolCursor struct {
	cursor *mongo.Cursor
}

func (c *mongoToolCursor) All(ctx context.Context, out interface{}) error {
	return c.cursor.All(ctx, out)
}

func (c *mongoToolCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}

// InsertTool inserts a tool record into the collection.
func (c *MongoToolCollection) InsertTool(ctx context.Context, tool models.Tool) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, tool)
	return err
}

// FindTools queries tool records from the collection.
func (c *MongoToolCollection) FindTools(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (ToolCursor, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	var findOptions *options.FindOptions
	if len(opts) > 0 {
		findOptions = opts[0]
	}

	cursor, err := c.Collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return &mongoToolCursor{cursor: cursor}, nil
}

// FindToolByID finds a tool by its id.
func (c *MongoToolCollection) FindToolByID(ctx context.Context, id string) (*models.Tool, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var tool models.Tool
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tool)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("tool not found")
		}
		return nil, err
	}
	return &tool, nil
}
