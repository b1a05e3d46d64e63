package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/motor-insurance/internal/quote"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoBreakdown is returned for stored quotes that only carry a total.
var ErrNoBreakdown = errors.New("stored quote has no breakdown")

// PricingInputs are the quote request fields persisted with a record.
type PricingInputs struct {
	InsuranceType     quote.Type `bson:"insurance_type" json:"insuranceType"`
	VehicleCode       string     `bson:"vehicle_code,omitempty" json:"vehicleCode,omitempty"`
	Category          string     `bson:"category,omitempty" json:"category,omitempty"`
	Classification    string     `bson:"classification,omitempty" json:"classification,omitempty"`
	BorderVehicleType string     `bson:"border_vehicle_type,omitempty" json:"borderVehicleType,omitempty"`
	Months            int        `bson:"months" json:"months"`
}

// PricingInputsFrom flattens a quote request for storage.
func PricingInputsFrom(req quote.Request) PricingInputs {
	in := PricingInputs{InsuranceType: req.Type(), Months: req.Duration()}
	switch r := req.(type) {
	case quote.Internal:
		in.VehicleCode = r.VehicleCode
		in.Category = r.Category
		in.Classification = r.Classification
	case quote.Border:
		in.BorderVehicleType = r.BorderType
	}
	return in
}

// Request rebuilds the quote request the inputs were stored from.
func (p PricingInputs) Request() (quote.Request, error) {
	switch p.InsuranceType {
	case quote.TypeInternal:
		return quote.Internal{
			VehicleCode:    p.VehicleCode,
			Category:       p.Category,
			Classification: p.Classification,
			Months:         p.Months,
		}, nil
	case quote.TypeBorder:
		return quote.Border{BorderType: p.BorderVehicleType, Months: p.Months}, nil
	default:
		return nil, fmt.Errorf("unknown insurance type %q", p.InsuranceType)
	}
}

// StoredBreakdown is the persisted form of quote.Breakdown.
type StoredBreakdown struct {
	NetPremium          primitive.Decimal128 `bson:"net_premium"`
	StampFee            primitive.Decimal128 `bson:"stamp_fee"`
	WarEffort           primitive.Decimal128 `bson:"war_effort"`
	MartyrFund          primitive.Decimal128 `bson:"martyr_fund"`
	LocalAdministration primitive.Decimal128 `bson:"local_administration"`
	Reconstruction      primitive.Decimal128 `bson:"reconstruction"`
}

// StoredQuote is a quote frozen into a record. Records written before
// breakdowns were kept carry only the total.
type StoredQuote struct {
	Breakdown *StoredBreakdown     `bson:"breakdown,omitempty"`
	Total     primitive.Decimal128 `bson:"total"`
	Currency  string               `bson:"currency,omitempty"`
}

// StoredQuoteFrom freezes a computed breakdown.
func StoredQuoteFrom(b quote.Breakdown, currency string) (StoredQuote, error) {
	c := b.Components()
	var sb StoredBreakdown
	var err error
	for _, f := range []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&sb.NetPremium, c.NetPremium},
		{&sb.StampFee, c.StampFee},
		{&sb.WarEffort, c.WarEffort},
		{&sb.MartyrFund, c.MartyrFund},
		{&sb.LocalAdministration, c.LocalAdministration},
		{&sb.Reconstruction, c.Reconstruction},
	} {
		if *f.dst, err = ToDecimal128(f.src); err != nil {
			return StoredQuote{}, err
		}
	}
	total, err := ToDecimal128(b.Total())
	if err != nil {
		return StoredQuote{}, err
	}
	return StoredQuote{Breakdown: &sb, Total: total, Currency: currency}, nil
}

// HasBreakdown reports whether the itemised components were stored.
func (s StoredQuote) HasBreakdown() bool { return s.Breakdown != nil }

// TotalAmount returns the stored total.
func (s StoredQuote) TotalAmount() (decimal.Decimal, error) {
	return FromDecimal128(s.Total)
}

// Restore rebuilds the breakdown, re-checking that the stored total is the
// sum of the stored components.
func (s StoredQuote) Restore() (quote.Breakdown, error) {
	if s.Breakdown == nil {
		return quote.Breakdown{}, ErrNoBreakdown
	}
	var c quote.Components
	for _, f := range []struct {
		dst *decimal.Decimal
		src primitive.Decimal128
	}{
		{&c.NetPremium, s.Breakdown.NetPremium},
		{&c.StampFee, s.Breakdown.StampFee},
		{&c.WarEffort, s.Breakdown.WarEffort},
		{&c.MartyrFund, s.Breakdown.MartyrFund},
		{&c.LocalAdministration, s.Breakdown.LocalAdministration},
		{&c.Reconstruction, s.Breakdown.Reconstruction},
	} {
		d, err := FromDecimal128(f.src)
		if err != nil {
			return quote.Breakdown{}, err
		}
		*f.dst = d
	}
	total, err := s.TotalAmount()
	if err != nil {
		return quote.Breakdown{}, err
	}
	return quote.RestoreBreakdown(c, total)
}

// MarshalJSON renders amounts as JSON numbers.
func (s StoredQuote) MarshalJSON() ([]byte, error) {
	type breakdownJSON struct {
		NetPremium          json.Number `json:"netPremium"`
		StampFee            json.Number `json:"stampFee"`
		WarEffort           json.Number `json:"warEffort"`
		MartyrFund          json.Number `json:"martyrFund"`
		LocalAdministration json.Number `json:"localAdministration"`
		Reconstruction      json.Number `json:"reconstruction"`
	}
	out := struct {
		Breakdown *breakdownJSON `json:"breakdown,omitempty"`
		Total     json.Number    `json:"total"`
		Currency  string         `json:"currency,omitempty"`
	}{Total: amountJSON(s.Total), Currency: s.Currency}

	if b := s.Breakdown; b != nil {
		out.Breakdown = &breakdownJSON{
			NetPremium:          amountJSON(b.NetPremium),
			StampFee:            amountJSON(b.StampFee),
			WarEffort:           amountJSON(b.WarEffort),
			MartyrFund:          amountJSON(b.MartyrFund),
			LocalAdministration: amountJSON(b.LocalAdministration),
			Reconstruction:      amountJSON(b.Reconstruction),
		}
	}
	return json.Marshal(out)
}

// Pricing is the quote chosen for a vehicle before payment.
type Pricing struct {
	Inputs      PricingInputs `bson:"inputs" json:"inputs"`
	Quote       *StoredQuote  `bson:"quote,omitempty" json:"quote,omitempty"`
	RateVersion string        `bson:"rate_version,omitempty" json:"rateVersion,omitempty"`
	PricedAt    time.Time     `bson:"priced_at" json:"pricedAt"`
}
