package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCorruptBreakdown marks stored components that no longer satisfy the
// breakdown invariants.
var ErrCorruptBreakdown = errors.New("corrupt breakdown")

// Breakdown is the itemised premium. It is immutable; the total is always the
// sum of the six components and is never stored separately.
type Breakdown struct {
	netPremium          decimal.Decimal
	stampFee            decimal.Decimal
	warEffort           decimal.Decimal
	martyrFund          decimal.Decimal
	localAdministration decimal.Decimal
	reconstruction      decimal.Decimal
}

// Components is the exported form of a breakdown, used to move it across
// persistence and wire boundaries.
type Components struct {
	NetPremium          decimal.Decimal
	StampFee            decimal.Decimal
	WarEffort           decimal.Decimal
	MartyrFund          decimal.Decimal
	LocalAdministration decimal.Decimal
	Reconstruction      decimal.Decimal
}

func (b Breakdown) NetPremium() decimal.Decimal          { return b.netPremium }
func (b Breakdown) StampFee() decimal.Decimal            { return b.stampFee }
func (b Breakdown) WarEffort() decimal.Decimal           { return b.warEffort }
func (b Breakdown) MartyrFund() decimal.Decimal          { return b.martyrFund }
func (b Breakdown) LocalAdministration() decimal.Decimal { return b.localAdministration }
func (b Breakdown) Reconstruction() decimal.Decimal      { return b.reconstruction }

// Total is the literal sum of the components.
func (b Breakdown) Total() decimal.Decimal {
	return b.netPremium.
		Add(b.stampFee).
		Add(b.warEffort).
		Add(b.martyrFund).
		Add(b.localAdministration).
		Add(b.reconstruction)
}

// Components returns the breakdown's fields.
func (b Breakdown) Components() Components {
	return Components{
		NetPremium:          b.netPremium,
		StampFee:            b.stampFee,
		WarEffort:           b.warEffort,
		MartyrFund:          b.martyrFund,
		LocalAdministration: b.localAdministration,
		Reconstruction:      b.reconstruction,
	}
}

// Equal compares two breakdowns component by component.
func (b Breakdown) Equal(o Breakdown) bool {
	return b.netPremium.Equal(o.netPremium) &&
		b.stampFee.Equal(o.stampFee) &&
		b.warEffort.Equal(o.warEffort) &&
		b.martyrFund.Equal(o.martyrFund) &&
		b.localAdministration.Equal(o.localAdministration) &&
		b.reconstruction.Equal(o.reconstruction)
}

// RestoreBreakdown rebuilds a breakdown read back from storage. The stored
// total must equal the sum of the stored components and no component may be
// negative.
func RestoreBreakdown(c Components, total decimal.Decimal) (Breakdown, error) {
	b := Breakdown{
		netPremium:          c.NetPremium,
		stampFee:            c.StampFee,
		warEffort:           c.WarEffort,
		martyrFund:          c.MartyrFund,
		localAdministration: c.LocalAdministration,
		reconstruction:      c.Reconstruction,
	}

	for name, v := range map[string]decimal.Decimal{
		"netPremium":          b.netPremium,
		"stampFee":            b.stampFee,
		"warEffort":           b.warEffort,
		"martyrFund":          b.martyrFund,
		"localAdministration": b.localAdministration,
		"reconstruction":      b.reconstruction,
	} {
		if v.IsNegative() {
			return Breakdown{}, fmt.Errorf("%w: %s is negative (%s)", ErrCorruptBreakdown, name, v)
		}
	}
	if !b.Total().Equal(total) {
		return Breakdown{}, fmt.Errorf("%w: total %s does not match components sum %s", ErrCorruptBreakdown, total, b.Total())
	}
	return b, nil
}
