package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/garage-workboard/internal/sources"
)

// Mongo-backed implementations of the three upstream vehicle feeds. The
// aggregator only sees the feed interfaces; the source-specific record
// shapes live in the sources package.

// MongoAttentionFeed reads the priority-attention list.
type MongoAttentionFeed struct {
	Collection *mongo.Collection
}

func (f *MongoAttentionFeed) ListAttention(ctx context.Context) ([]sources.AttentionRecord, error) {
	if f.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := f.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var recs []sources.AttentionRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// MongoWaitingListFeed reads the front-desk waiting list.
type MongoWaitingListFeed struct {
	Collection *mongo.Collection
}

func (f *MongoWaitingListFeed) ListWaiting(ctx context.Context) ([]sources.WaitingRecord, error) {
	if f.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := f.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var recs []sources.WaitingRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// MongoInventoryFeed reads the live on-premises inventory.
type MongoInventoryFeed struct {
	Collection *mongo.Collection
}

func (f *MongoInventoryFeed) ListInventory(ctx context.Context) ([]sources.InventoryRecord, error) {
	if f.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := f.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var recs []sources.InventoryRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
