package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ukydev/motor-insurance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record and returns it with its ID.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}

	now := time.Now().UTC()
	vehicle.ID = primitive.NewObjectID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusActive
	}

	if _, err := c.Collection.InsertOne(ctx, vehicle); err != nil {
		return nil, mapError(err, "insert vehicle")
	}
	return &vehicle, nil
}

// FindVehicles lists vehicles matching filter, newest first.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, vehicleQuery(filter), opts)
	if err != nil {
		return nil, mapError(err, "find vehicles")
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, mapError(err, "decode vehicles")
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var vehicle models.Vehicle
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&vehicle); err != nil {
		return nil, mapError(err, "find vehicle")
	}
	return &vehicle, nil
}

// UpdateVehicle replaces the intake fields of a vehicle. Pricing, payment
// link and audit fields are left as stored.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{
		"vehicle_type":    vehicle.VehicleType,
		"owner":           vehicle.Owner,
		"vehicle":         vehicle.Details,
		"entry":           vehicle.Entry,
		"policy_duration": vehicle.PolicyDuration,
		"coverage":        vehicle.Coverage,
		"notes":           vehicle.Notes,
		"status":          vehicle.Status,
		"updated_at":      time.Now().UTC(),
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return mapError(err, "update vehicle")
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("update vehicle: %w", ErrNotFound)
	}
	return nil
}

// DeleteVehicle deletes a vehicle that has not been paid for.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": oid, "payment_id": bson.M{"$exists": false}})
	if err != nil {
		return mapError(err, "delete vehicle")
	}
	if result.DeletedCount == 0 {
		return c.missingOrLocked(ctx, oid, "delete vehicle")
	}
	return nil
}

// SetPricing stores pricing on an unpaid vehicle.
func (c *MongoVehicleCollection) SetPricing(ctx context.Context, id string, pricing models.Pricing) error {
	if c.Collection == nil {
		return ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "payment_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"pricing": pricing, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return mapError(err, "set pricing")
	}
	if result.MatchedCount == 0 {
		return c.missingOrLocked(ctx, oid, "set pricing")
	}
	return nil
}

// MarkPaid links a vehicle to its payment, locking its pricing.
func (c *MongoVehicleCollection) MarkPaid(ctx context.Context, id string, paymentID primitive.ObjectID) error {
	if c.Collection == nil {
		return ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "payment_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"payment_id": paymentID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return mapError(err, "mark vehicle paid")
	}
	if result.MatchedCount == 0 {
		return c.missingOrLocked(ctx, oid, "mark vehicle paid")
	}
	return nil
}

func (c *MongoVehicleCollection) missingOrLocked(ctx context.Context, oid primitive.ObjectID, what string) error {
	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err, what)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, ErrLocked)
}

// vehicleQuery builds the Mongo filter for a listing.
func vehicleQuery(f models.VehicleFilter) bson.M {
	query := bson.M{}
	if f.VehicleType != "" {
		query["vehicle_type"] = f.VehicleType
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"owner.name": pattern},
			bson.M{"owner.national_id": pattern},
			bson.M{"owner.passport_number": pattern},
			bson.M{"vehicle.plate_number": pattern},
			bson.M{"vehicle.chassis_number": pattern},
		}
	}
	return query
}
