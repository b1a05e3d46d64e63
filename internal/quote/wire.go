package quote

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/shopspring/decimal"
)

// WireRequest is the JSON shape callers send. Pointer fields tell an absent
// field from an empty one so mixed variants can be refused.
type WireRequest struct {
	InsuranceType     Type    `json:"insuranceType"`
	VehicleCode       *string `json:"vehicleCode,omitempty"`
	Category          *string `json:"category,omitempty"`
	Classification    *string `json:"classification,omitempty"`
	BorderVehicleType *string `json:"borderVehicleType,omitempty"`
	Months            *int    `json:"months,omitempty"`
}

// DecodeRequest reads one JSON request body.
func DecodeRequest(r io.Reader) (Request, error) {
	var w WireRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(CodeInvalidRequest, "request body is empty")
		}
		return nil, newError(CodeInvalidRequest, "malformed request: %v", err)
	}
	return w.Request()
}

// Request converts the wire shape into the sealed request type.
func (w WireRequest) Request() (Request, error) {
	if w.Months == nil {
		return nil, newError(CodeInvalidDuration, "months is required")
	}

	switch w.InsuranceType {
	case TypeInternal:
		if w.BorderVehicleType != nil {
			return nil, newError(CodeInvalidRequest, "internal request must not carry borderVehicleType")
		}
		if w.VehicleCode == nil || w.Category == nil || w.Classification == nil {
			return nil, newError(CodeInvalidRequest, "internal request requires vehicleCode, category and classification")
		}
		return Internal{
			VehicleCode:    *w.VehicleCode,
			Category:       *w.Category,
			Classification: *w.Classification,
			Months:         *w.Months,
		}, nil
	case TypeBorder:
		if w.VehicleCode != nil || w.Category != nil || w.Classification != nil {
			return nil, newError(CodeInvalidRequest, "border request must not carry internal fields")
		}
		if w.BorderVehicleType == nil {
			return nil, newError(CodeInvalidRequest, "border request requires borderVehicleType")
		}
		return Border{BorderType: *w.BorderVehicleType, Months: *w.Months}, nil
	case "":
		return nil, newError(CodeInvalidRequest, "insuranceType is required")
	default:
		return nil, newError(CodeInvalidRequest, "unknown insuranceType %q", w.InsuranceType)
	}
}

// EncodeRequest returns the wire shape of req.
func EncodeRequest(req Request) WireRequest {
	months := req.Duration()
	w := WireRequest{InsuranceType: req.Type(), Months: &months}
	switch r := req.(type) {
	case Internal:
		w.VehicleCode = &r.VehicleCode
		w.Category = &r.Category
		w.Classification = &r.Classification
	case Border:
		w.BorderVehicleType = &r.BorderType
	}
	return w
}

// WireBreakdown carries amounts as JSON numbers with the table's fixed scale.
type WireBreakdown struct {
	NetPremium          json.Number `json:"netPremium"`
	StampFee            json.Number `json:"stampFee"`
	WarEffort           json.Number `json:"warEffort"`
	MartyrFund          json.Number `json:"martyrFund"`
	LocalAdministration json.Number `json:"localAdministration"`
	Reconstruction      json.Number `json:"reconstruction"`
}

// Response is the JSON shape returned for a successful quote.
type Response struct {
	InsuranceType Type          `json:"insuranceType"`
	Inputs        WireRequest   `json:"inputs"`
	Breakdown     WireBreakdown `json:"breakdown"`
	Total         json.Number   `json:"total"`
	RateVersion   string        `json:"rateVersion"`
	Currency      string        `json:"currency"`
}

// NewResponse renders q for the wire.
func NewResponse(q Quote) Response {
	return Response{
		InsuranceType: q.Request.Type(),
		Inputs:        EncodeRequest(q.Request),
		Breakdown:     EncodeBreakdown(q.Breakdown, q.Scale),
		Total:         Amount(q.Total(), q.Scale),
		RateVersion:   q.RateVersion,
		Currency:      q.Currency,
	}
}

// EncodeBreakdown renders b with scale decimal places.
func EncodeBreakdown(b Breakdown, scale int32) WireBreakdown {
	return WireBreakdown{
		NetPremium:          Amount(b.NetPremium(), scale),
		StampFee:            Amount(b.StampFee(), scale),
		WarEffort:           Amount(b.WarEffort(), scale),
		MartyrFund:          Amount(b.MartyrFund(), scale),
		LocalAdministration: Amount(b.LocalAdministration(), scale),
		Reconstruction:      Amount(b.Reconstruction(), scale),
	}
}

// Amount renders d as a JSON number with a fixed number of decimals.
func Amount(d decimal.Decimal, scale int32) json.Number {
	return json.Number(d.StringFixed(scale))
}
