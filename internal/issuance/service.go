// Package issuance commits quotes: it attaches pricing to a vehicle, records
// the payment that freezes it and builds the resulting policy document.
package issuance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/events"
	"github.com/ukydev/motor-insurance/internal/metrics"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
)

var (
	ErrQuoteRequired   = errors.New("vehicle has no computed quote")
	ErrPricingLocked   = errors.New("vehicle pricing is locked by a payment")
	ErrAlreadyPaid     = errors.New("vehicle already has a payment")
	ErrVariantMismatch = errors.New("insurance type does not match vehicle type")
	ErrAmountMismatch  = errors.New("amount does not match quote total")
	ErrCorruptQuote    = errors.New("stored quote is corrupt")
	ErrInvalidMethod   = errors.New("unsupported payment method")
)

const publishTimeout = 5 * time.Second

// Service runs the issuance flow.
type Service struct {
	vehicles  db.VehicleCollection
	payments  db.PaymentCollection
	engine    *quote.Engine
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where policy events go. The default discards them.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an issuance service.
func NewService(vehicles db.VehicleCollection, payments db.PaymentCollection, engine *quote.Engine, opts ...Option) *Service {
	s := &Service{
		vehicles:  vehicles,
		payments:  payments,
		engine:    engine,
		publisher: events.Noop{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceVehicle computes a quote for a vehicle and stores it as the vehicle's
// pricing. Pricing can be replaced freely until a payment exists.
func (s *Service) PriceVehicle(ctx context.Context, vehicleID string, req quote.Request) (*models.Vehicle, quote.Quote, error) {
	vehicle, err := s.vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return nil, quote.Quote{}, err
	}
	if req != nil && vehicle.VehicleType.InsuranceType() != req.Type() {
		return nil, quote.Quote{}, fmt.Errorf("%w: %s vehicle cannot take a %s quote", ErrVariantMismatch, vehicle.VehicleType, req.Type())
	}
	if paid, err := s.hasPayment(ctx, vehicle); err != nil {
		return nil, quote.Quote{}, err
	} else if paid {
		return nil, quote.Quote{}, ErrPricingLocked
	}

	q, err := s.engine.Compute(req)
	if err != nil {
		return nil, quote.Quote{}, err
	}

	stored, err := models.StoredQuoteFrom(q.Breakdown, q.Currency)
	if err != nil {
		return nil, quote.Quote{}, err
	}
	pricing := models.Pricing{
		Inputs:      models.PricingInputsFrom(q.Request),
		Quote:       &stored,
		RateVersion: q.RateVersion,
		PricedAt:    s.now().UTC(),
	}
	if err := s.vehicles.SetPricing(ctx, vehicleID, pricing); err != nil {
		if errors.Is(err, db.ErrLocked) {
			return nil, quote.Quote{}, ErrPricingLocked
		}
		return nil, quote.Quote{}, err
	}

	log.WithFields(log.Fields{
		"vehicle_id":   vehicleID,
		"rate_version": q.RateVersion,
		"total":        q.Total().String(),
	}).Info("Vehicle priced")

	vehicle.Pricing = &pricing
	return vehicle, q, nil
}

// PaymentInput is a payment to commit.
type PaymentInput struct {
	VehicleID  string
	Method     models.PaymentMethod
	PaidBy     string
	PayerPhone string
	// Amount, when set, must equal the stored quote total.
	Amount    *decimal.Decimal
	Notes     string
	CreatedBy string
}

// RecordPayment commits a payment for a priced vehicle. The vehicle's stored
// quote is re-checked and copied into the payment, which is then immutable.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	if !in.Method.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}

	vehicle, err := s.vehicles.FindVehicleByID(ctx, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if paid, err := s.hasPayment(ctx, vehicle); err != nil {
		return nil, err
	} else if paid {
		return nil, ErrAlreadyPaid
	}

	pricing := vehicle.Pricing
	if pricing == nil || pricing.Quote == nil {
		return nil, ErrQuoteRequired
	}
	if pricing.Inputs.InsuranceType != vehicle.VehicleType.InsuranceType() {
		return nil, fmt.Errorf("%w: %s vehicle priced as %s", ErrVariantMismatch, vehicle.VehicleType, pricing.Inputs.InsuranceType)
	}
	breakdown, err := pricing.Quote.Restore()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptQuote, err)
	}

	total := breakdown.Total()
	if in.Amount != nil && !in.Amount.Equal(total) {
		return nil, fmt.Errorf("%w: got %s, quote total is %s", ErrAmountMismatch, in.Amount, total)
	}
	amount, err := models.ToDecimal128(total)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	payment := models.Payment{
		VehicleID:     vehicle.ID,
		VehicleType:   vehicle.VehicleType,
		PolicyNumber:  s.number("POL", now),
		ReceiptNumber: s.number("RCP", now),
		Amount:        amount,
		Currency:      pricing.Quote.Currency,
		PaymentMethod: in.Method,
		PaymentStatus: models.PaymentStatusCompleted,
		PaidBy:        in.PaidBy,
		PayerPhone:    in.PayerPhone,
		Inputs:        pricing.Inputs,
		Quote:         *pricing.Quote,
		RateVersion:   pricing.RateVersion,
		CoverageStart: now,
		CoverageEnd:   now.AddDate(0, pricing.Inputs.Months, 0),
		Notes:         in.Notes,
		CreatedBy:     in.CreatedBy,
	}

	inserted, err := s.payments.InsertPayment(ctx, payment)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAlreadyPaid
		}
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"payment_id":    inserted.ID.Hex(),
		"vehicle_id":    in.VehicleID,
		"policy_number": inserted.PolicyNumber,
		"total":         total.String(),
	})

	// The payment is committed; the vehicle link only speeds up later lock checks.
	if err := s.vehicles.MarkPaid(ctx, in.VehicleID, inserted.ID); err != nil {
		logger.WithError(err).Warn("Failed to link payment to vehicle")
	}

	s.metrics.ObservePayment(string(inserted.VehicleType), string(inserted.PaymentMethod), inserted.Currency, total.InexactFloat64())
	s.publish(ctx, inserted, logger)

	logger.Info("Payment recorded")
	return inserted, nil
}

// hasPayment reports whether a payment exists for the vehicle. The payments
// collection is authoritative; a missing vehicle link is restored when found.
func (s *Service) hasPayment(ctx context.Context, vehicle *models.Vehicle) (bool, error) {
	if vehicle.PaymentID != nil {
		return true, nil
	}
	payment, err := s.payments.FindPaymentByVehicle(ctx, vehicle.ID.Hex())
	switch {
	case err == nil:
		if err := s.vehicles.MarkPaid(ctx, vehicle.ID.Hex(), payment.ID); err != nil {
			log.WithError(err).WithField("vehicle_id", vehicle.ID.Hex()).Warn("Failed to restore payment link")
		}
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) publish(ctx context.Context, p *models.Payment, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.PolicyIssued{
		PaymentID:     p.ID.Hex(),
		VehicleID:     p.VehicleID.Hex(),
		VehicleType:   string(p.VehicleType),
		PolicyNumber:  p.PolicyNumber,
		ReceiptNumber: p.ReceiptNumber,
		InsuranceType: string(p.Inputs.InsuranceType),
		Months:        p.Inputs.Months,
		Total:         json.Number(p.Amount.String()),
		Currency:      p.Currency,
		RateVersion:   p.RateVersion,
		CoverageStart: p.CoverageStart,
		CoverageEnd:   p.CoverageEnd,
		IssuedAt:      p.CreatedAt,
	}
	if err := s.publisher.PublishPolicyIssued(ctx, event); err != nil {
		s.metrics.IncrementEventPublishFailure()
		logger.WithError(err).Warn("Failed to publish policy event")
	}
}

// number builds PREFIX-YYYYMMDD-XXXXXXXX from a random UUID.
func (s *Service) number(prefix string, t time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(s.newID(), "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102"), id)
}
