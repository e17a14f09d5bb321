package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists usage records in a MongoDB collection, one document
// per user keyed by _id. Increments use findOneAndUpdate with $inc, which is
// atomic at the document level, so concurrent increments never lose updates.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Compile-time interface check.
var _ UsageStore = (*MongoStore)(nil)

// mongoUsageDoc is the wire shape of a usage record.
type mongoUsageDoc struct {
	UserID          string    `bson:"_id"`
	ConversionsUsed int       `bson:"conversions_used"`
	LastReset       time.Time `bson:"last_reset"`
	PlanType        string    `bson:"plan_type"`
}

func (d mongoUsageDoc) record() UsageRecord {
	return UsageRecord{
		UserID:          d.UserID,
		ConversionsUsed: d.ConversionsUsed,
		LastReset:       d.LastReset,
		Plan:            Plan(d.PlanType),
	}
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRetryWrites(true))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", ErrStorage, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: mongo ping: %v", ErrStorage, err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, userID string) (UsageRecord, error) {
	var doc mongoUsageDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc.record(), nil
}

func (s *MongoStore) Create(ctx context.Context, rec UsageRecord) (UsageRecord, error) {
	// $setOnInsert with upsert keeps creation idempotent under concurrent
	// first requests: the losing writer sees the winner's document.
	update := bson.M{"$setOnInsert": mongoUsageDoc{
		UserID:          rec.UserID,
		ConversionsUsed: rec.ConversionsUsed,
		LastReset:       rec.LastReset.UTC(),
		PlanType:        string(rec.Plan),
	}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc mongoUsageDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": rec.UserID}, update, opts).Decode(&doc)
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc.record(), nil
}

func (s *MongoStore) Increment(ctx context.Context, userID string) (UsageRecord, error) {
	update := bson.M{"$inc": bson.M{"conversions_used": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUsageDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc.record(), nil
}

func (s *MongoStore) Reset(ctx context.Context, userID string, at time.Time) (UsageRecord, error) {
	update := bson.M{"$set": bson.M{
		"conversions_used": 0,
		"last_reset":       at.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUsageDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc.record(), nil
}

func (s *MongoStore) SetPlan(ctx context.Context, userID string, plan Plan) (UsageRecord, error) {
	update := bson.M{"$set": bson.M{"plan_type": string(plan)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUsageDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return doc.record(), nil
}
