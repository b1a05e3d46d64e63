package db

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ukydev/motor-insurance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentCollection implements PaymentCollection for MongoDB.
type MongoPaymentCollection struct {
	Collection *mongo.Collection
}

// InsertPayment stores a payment. A second payment for the same vehicle fails
// with ErrDuplicate through the unique vehicle_id index.
func (c *MongoPaymentCollection) InsertPayment(ctx context.Context, payment models.Payment) (*models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}

	now := time.Now().UTC()
	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, payment); err != nil {
		return nil, mapError(err, "insert payment")
	}
	return &payment, nil
}

// FindPayments lists payments matching filter, newest first.
func (c *MongoPaymentCollection) FindPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, paymentQuery(filter), opts)
	if err != nil {
		return nil, mapError(err, "find payments")
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, mapError(err, "decode payments")
	}
	return payments, nil
}

// FindPaymentByID finds a payment by its ID.
func (c *MongoPaymentCollection) FindPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&payment); err != nil {
		return nil, mapError(err, "find payment")
	}
	return &payment, nil
}

// FindPaymentByVehicle finds the payment committed for a vehicle.
func (c *MongoPaymentCollection) FindPaymentByVehicle(ctx context.Context, vehicleID string) (*models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilClient
	}
	oid, err := objectID(vehicleID)
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	if err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": oid}).Decode(&payment); err != nil {
		return nil, mapError(err, "find payment by vehicle")
	}
	return &payment, nil
}

func paymentQuery(f models.PaymentFilter) bson.M {
	query := bson.M{}
	if f.Status != "" {
		query["payment_status"] = f.Status
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"policy_number": pattern},
			bson.M{"receipt_number": pattern},
			bson.M{"paid_by": pattern},
		}
	}
	return query
}
