package db

import (
	"context"
	"time"

	"github.com/ukydev/motor-insurance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleCollection defines the interface for vehicle record operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error)
	FindVehicles(ctx context.Context, filter models.VehicleFilter) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
	// SetPricing stores a quote on a vehicle that has not been paid for. It
	// returns ErrLocked once MarkPaid has run.
	SetPricing(ctx context.Context, id string, pricing models.Pricing) error
	MarkPaid(ctx context.Context, id string, paymentID primitive.ObjectID) error
}

// PaymentCollection defines the interface for payment record operations.
// Payments are append-only.
type PaymentCollection interface {
	InsertPayment(ctx context.Context, payment models.Payment) (*models.Payment, error)
	FindPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	FindPaymentByID(ctx context.Context, id string) (*models.Payment, error)
	FindPaymentByVehicle(ctx context.Context, vehicleID string) (*models.Payment, error)
}

// StatsCollection aggregates issued policies for the records overview.
type StatsCollection interface {
	RecordStats(ctx context.Context, now time.Time) ([]models.RecordStats, error)
}
