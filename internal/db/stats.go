package db

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStatsCollection implements StatsCollection over the payments and
// vehicles collections.
type MongoStatsCollection struct {
	Payments *mongo.Collection
	Vehicles *mongo.Collection
}

type paymentGroup struct {
	VehicleType models.VehicleType   `bson:"_id"`
	Total       int64                `bson:"total"`
	Active      int64                `bson:"active"`
	Premium     primitive.Decimal128 `bson:"premium"`
}

type cancelledGroup struct {
	VehicleType models.VehicleType `bson:"_id"`
	Count       int64              `bson:"count"`
}

// RecordStats counts completed policies per vehicle type. A policy is active
// while its coverage end is after now.
func (c *MongoStatsCollection) RecordStats(ctx context.Context, now time.Time) ([]models.RecordStats, error) {
	if c.Payments == nil || c.Vehicles == nil {
		return nil, ErrNilClient
	}

	paid := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"payment_status": models.PaymentStatusCompleted}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$vehicle_type",
			"total": bson.M{"$sum": 1},
			"active": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$gt": bson.A{"$coverage_end", now}}, 1, 0},
			}},
			"premium": bson.M{"$sum": "$amount"},
		}}},
	}
	var payments []paymentGroup
	if err := aggregate(ctx, c.Payments, paid, &payments); err != nil {
		return nil, mapError(err, "aggregate payments")
	}

	cancelled := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.VehicleStatusCancelled}}},
		{{Key: "$group", Value: bson.M{"_id": "$vehicle_type", "count": bson.M{"$sum": 1}}}},
	}
	var vehicles []cancelledGroup
	if err := aggregate(ctx, c.Vehicles, cancelled, &vehicles); err != nil {
		return nil, mapError(err, "aggregate vehicles")
	}

	return mergeStats(payments, vehicles), nil
}

func aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// mergeStats folds the aggregation rows into one entry per vehicle type, in
// a fixed order, with zeroes for types that have no records.
func mergeStats(payments []paymentGroup, cancelled []cancelledGroup) []models.RecordStats {
	order := []models.VehicleType{models.VehicleTypeDomestic, models.VehicleTypeForeign}
	byType := make(map[models.VehicleType]*models.RecordStats, len(order))
	out := make([]models.RecordStats, len(order))
	for i, vt := range order {
		out[i] = models.RecordStats{VehicleType: vt, TotalPremium: "0"}
		byType[vt] = &out[i]
	}

	for _, g := range payments {
		s, ok := byType[g.VehicleType]
		if !ok {
			continue
		}
		s.Total = g.Total
		s.Active = g.Active
		s.Expired = g.Total - g.Active
		premium, err := models.FromDecimal128(g.Premium)
		if err != nil {
			log.WithError(err).WithField("vehicle_type", g.VehicleType).Error("Stored premium total is not a valid amount")
			continue
		}
		s.TotalPremium = json.Number(premium.String())
	}
	for _, g := range cancelled {
		if s, ok := byType[g.VehicleType]; ok {
			s.Cancelled = g.Count
		}
	}
	return out
}
