package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes that back the find-or-create
// paths. Two concurrent processes may both pass an existence check; the
// index rejects the second insert and the caller retries as an update.
func EnsureIndexes(ctx context.Context, s *Store) error {
	type spec struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}
	specs := []spec{
		{s.vehicles(), mongo.IndexModel{
			Keys:    bson.D{{Key: "plate", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.fuelFills(), mongo.IndexModel{
			Keys: bson.D{
				{Key: "vehicle_id", Value: 1},
				{Key: "fill_date", Value: 1},
				{Key: "odometer_km", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
		{s.readings(), mongo.IndexModel{
			Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "reading_date", Value: 1}},
		}},
		{s.uploads(), mongo.IndexModel{
			Keys:    bson.D{{Key: "sha256", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.manuals(), mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.tasks(), mongo.IndexModel{
			Keys: bson.D{{Key: "manual_id", Value: 1}, {Key: "km_interval", Value: 1}},
		}},
		{s.plans(), mongo.IndexModel{
			Keys:    bson.D{{Key: "vehicle_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		// One open alert per (type, vehicle, slot). Partial so closed alerts
		// can accumulate for the same slot over time.
		{s.alerts(), mongo.IndexModel{
			Keys: bson.D{
				{Key: "alert_type", Value: 1},
				{Key: "related_vehicle_id", Value: 1},
				{Key: "slot", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"seen": false}),
		}},
	}

	for _, sp := range specs {
		if _, err := sp.coll.Indexes().CreateOne(ctx, sp.model); err != nil {
			return fmt.Errorf("creating index on %s: %w", sp.coll.Name(), err)
		}
	}
	return nil
}
