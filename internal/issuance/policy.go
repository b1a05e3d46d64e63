package issuance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
)

// Policy is the document issued for a committed payment. Amounts are the
// ones frozen at payment time.
type Policy struct {
	PaymentID     string                `json:"paymentId"`
	PolicyNumber  string                `json:"policyNumber"`
	ReceiptNumber string                `json:"receiptNumber"`
	IssuedAt      time.Time             `json:"issuedAt"`
	CoverageStart time.Time             `json:"coverageStart"`
	CoverageEnd   time.Time             `json:"coverageEnd"`
	VehicleType   models.VehicleType    `json:"vehicleType"`
	Inputs        models.PricingInputs  `json:"inputs"`
	Owner         models.Owner          `json:"owner"`
	Vehicle       models.VehicleDetails `json:"vehicle"`
	Entry         *models.BorderEntry   `json:"entry,omitempty"`
	Coverage      models.Coverage       `json:"coverage,omitempty"`
	PaymentMethod models.PaymentMethod  `json:"paymentMethod"`
	PaidBy        string                `json:"paidBy"`
	// Breakdown is nil for payments recorded with a total only.
	Breakdown   *quote.WireBreakdown `json:"breakdown,omitempty"`
	Total       json.Number          `json:"total"`
	Currency    string               `json:"currency"`
	RateVersion string               `json:"rateVersion,omitempty"`
}

// Policy builds the policy document for a payment.
func (s *Service) Policy(ctx context.Context, paymentID string) (*Policy, error) {
	payment, err := s.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.FindVehicleByID(ctx, payment.VehicleID.Hex())
	if err != nil {
		return nil, fmt.Errorf("vehicle for payment %s: %w", paymentID, err)
	}

	policy := &Policy{
		PaymentID:     payment.ID.Hex(),
		PolicyNumber:  payment.PolicyNumber,
		ReceiptNumber: payment.ReceiptNumber,
		IssuedAt:      payment.CreatedAt,
		CoverageStart: payment.CoverageStart,
		CoverageEnd:   payment.CoverageEnd,
		VehicleType:   payment.VehicleType,
		Inputs:        payment.Inputs,
		Owner:         vehicle.Owner,
		Vehicle:       vehicle.Details,
		Entry:         vehicle.Entry,
		Coverage:      vehicle.Coverage,
		PaymentMethod: payment.PaymentMethod,
		PaidBy:        payment.PaidBy,
		Currency:      payment.Currency,
		RateVersion:   payment.RateVersion,
	}

	if payment.Quote.HasBreakdown() {
		b, err := payment.Quote.Restore()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptQuote, err)
		}
		policy.Breakdown = wireBreakdown(b)
		policy.Total = exact(b.Total())
		return policy, nil
	}

	total, err := payment.Quote.TotalAmount()
	if err != nil || total.IsZero() {
		if total, err = models.FromDecimal128(payment.Amount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptQuote, err)
		}
	}
	policy.Total = exact(total)
	return policy, nil
}

// wireBreakdown keeps the stored precision rather than the current table scale.
func wireBreakdown(b quote.Breakdown) *quote.WireBreakdown {
	return &quote.WireBreakdown{
		NetPremium:          exact(b.NetPremium()),
		StampFee:            exact(b.StampFee()),
		WarEffort:           exact(b.WarEffort()),
		MartyrFund:          exact(b.MartyrFund()),
		LocalAdministration: exact(b.LocalAdministration()),
		Reconstruction:      exact(b.Reconstruction()),
	}
}

func exact(d decimal.Decimal) json.Number { return json.Number(d.String()) }
