// Package quote computes insurance premiums from a rate table. Computation is
// pure: no I/O, no clock, no shared mutable state.
package quote

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/ukydev/motor-insurance/internal/rates"
)

// Quote is the result of a successful computation.
type Quote struct {
	// Request is the normalized echo of the input: canonical codes, lower-case keys.
	Request     Request
	Breakdown   Breakdown
	RateVersion string
	Currency    string
	Scale       int32
}

// Total is the premium payable.
func (q Quote) Total() decimal.Decimal { return q.Breakdown.Total() }

// Engine computes quotes against one rate table. It is safe for concurrent use.
type Engine struct {
	table *rates.Table
}

// ErrNoRateTable is returned when no rate table is supplied.
var ErrNoRateTable = errors.New("quote: rate table is required")

// NewEngine returns an engine bound to table.
func NewEngine(table *rates.Table) (*Engine, error) {
	if table == nil {
		return nil, ErrNoRateTable
	}
	return &Engine{table: table}, nil
}

// Table returns the rate table the engine reads.
func (e *Engine) Table() *rates.Table { return e.table }

// Compute prices req.
func (e *Engine) Compute(req Request) (Quote, error) {
	return Compute(e.table, req)
}

// Compute prices req against table. Any invalid input fails the whole
// computation; no partial breakdown is ever returned.
func Compute(table *rates.Table, req Request) (Quote, error) {
	if table == nil {
		return Quote{}, ErrNoRateTable
	}
	if req == nil {
		return Quote{}, newError(CodeInvalidRequest, "request is required")
	}
	if !rates.IsDuration(req.Duration()) {
		return Quote{}, newError(CodeInvalidDuration, "%d months is not an available duration", req.Duration())
	}

	switch r := req.(type) {
	case Internal:
		return computeInternal(table, r)
	case Border:
		return computeBorder(table, r)
	default:
		return Quote{}, newError(CodeInvalidRequest, "unsupported request type %T", req)
	}
}

func computeInternal(table *rates.Table, r Internal) (Quote, error) {
	code := normalize(r.VehicleCode)
	if !table.HasVehicleCode(code) {
		return Quote{}, newError(CodeUnknownClassification, "unknown vehicle code %q", r.VehicleCode)
	}
	category, ok := table.Category(r.Category)
	if !ok {
		return Quote{}, newError(CodeUnknownClassification, "unknown category %q", r.Category)
	}
	class, ok := table.Classification(r.Classification)
	if !ok {
		return Quote{}, newError(CodeUnknownClassification, "unknown classification %q", r.Classification)
	}
	base, ok := table.InternalRate(code, r.Months)
	if !ok {
		return Quote{}, newError(CodeInvalidDuration, "vehicle code %s has no rate for %d months", code, r.Months)
	}

	one := decimal.NewFromInt(1)
	net := table.Round(base.Mul(category.Factor))
	if class.Rule == rates.RuleNetDiscount {
		net = table.Round(net.Mul(one.Sub(class.Rate)))
	}

	b := levy(table, net)
	switch class.Rule {
	case rates.RuleStampReduction:
		b.stampFee = table.Round(net.Mul(table.Surcharges().StampFee).Mul(one.Sub(class.Rate)))
	case rates.RuleStampExempt:
		b.stampFee = decimal.Zero
	}

	return Quote{
		Request: Internal{
			VehicleCode:    code,
			Category:       category.Code,
			Classification: class.Code,
			Months:         r.Months,
		},
		Breakdown:   b,
		RateVersion: table.Version(),
		Currency:    table.Currency(),
		Scale:       table.Scale(),
	}, nil
}

func computeBorder(table *rates.Table, r Border) (Quote, error) {
	borderType := normalize(r.BorderType)
	if !table.HasBorderType(borderType) {
		return Quote{}, newError(CodeUnknownBorderType, "unknown border vehicle type %q", r.BorderType)
	}
	net, ok := table.BorderRate(borderType, r.Months)
	if !ok {
		return Quote{}, newError(CodeInvalidDuration, "border type %s has no rate for %d months", borderType, r.Months)
	}

	return Quote{
		Request:     Border{BorderType: borderType, Months: r.Months},
		Breakdown:   levy(table, table.Round(net)),
		RateVersion: table.Version(),
		Currency:    table.Currency(),
		Scale:       table.Scale(),
	}, nil
}

// levy applies the five surcharges to a net premium, each rounded on its own.
func levy(table *rates.Table, net decimal.Decimal) Breakdown {
	s := table.Surcharges()
	return Breakdown{
		netPremium:          net,
		stampFee:            table.Round(net.Mul(s.StampFee)),
		warEffort:           table.Round(net.Mul(s.WarEffort)),
		martyrFund:          table.Round(net.Mul(s.MartyrFund)),
		localAdministration: table.Round(net.Mul(s.LocalAdministration)),
		reconstruction:      table.Round(net.Mul(s.Reconstruction)),
	}
}
