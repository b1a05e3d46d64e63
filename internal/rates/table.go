package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rule is the adjustment a classification applies to a quote.
type Rule string

const (
	RuleNone           Rule = "none"
	RuleNetDiscount    Rule = "net_discount"
	RuleStampReduction Rule = "stamp_reduction"
	RuleStampExempt    Rule = "stamp_exempt"
)

// IsValid checks if a rule is one the engine knows how to apply.
func (r Rule) IsValid() bool {
	switch r {
	case RuleNone, RuleNetDiscount, RuleStampReduction, RuleStampExempt:
		return true
	default:
		return false
	}
}

// Surcharges holds the regulatory levies as fractions of the net premium.
// Each levy has its own legal basis, so they are never summed into one rate.
type Surcharges struct {
	StampFee            decimal.Decimal
	WarEffort           decimal.Decimal
	MartyrFund          decimal.Decimal
	LocalAdministration decimal.Decimal
	Reconstruction      decimal.Decimal
}

// Category scales the base premium by the vehicle's usage.
type Category struct {
	Code   string
	Name   string
	Factor decimal.Decimal
}

// Classification selects the discount or stamp rule for a domestic policy.
type Classification struct {
	Code string
	Name string
	Rule Rule
	// Rate is the discount or reduction fraction; zero for none and stamp_exempt.
	Rate decimal.Decimal
}

// Row is the base premium of one vehicle class for every priced duration.
type Row struct {
	Key   string
	Label string
	Rates map[int]decimal.Decimal
}

// Table is a loaded rate schedule. It is read-only after construction and safe
// for concurrent use.
type Table struct {
	version    string
	currency   string
	scale      int32
	durations  []int
	surcharges Surcharges

	categories      []Category
	classifications []Classification
	internal        []Row
	border          []Row

	categoryIndex       map[string]int
	classificationIndex map[string]int
	internalIndex       map[string]int
	borderIndex         map[string]int
}

// Version identifies the schedule; quotes record it for audit.
func (t *Table) Version() string { return t.version }

// Currency is the ISO code amounts are denominated in.
func (t *Table) Currency() string { return t.currency }

// Scale is the number of decimal places every quote component is rounded to.
func (t *Table) Scale() int32 { return t.scale }

// Surcharges returns the levy percentages.
func (t *Table) Surcharges() Surcharges { return t.surcharges }

// Durations returns the coverage lengths the table prices.
func (t *Table) Durations() []int {
	out := make([]int, len(t.durations))
	copy(out, t.durations)
	return out
}

// Category resolves a category by code or name.
func (t *Table) Category(key string) (Category, bool) {
	i, ok := t.categoryIndex[normalizeKey(key)]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}

// Classification resolves a classification by code or name.
func (t *Table) Classification(key string) (Classification, bool) {
	i, ok := t.classificationIndex[normalizeKey(key)]
	if !ok {
		return Classification{}, false
	}
	return t.classifications[i], true
}

// HasVehicleCode reports whether a domestic vehicle class is priced.
func (t *Table) HasVehicleCode(code string) bool {
	_, ok := t.internalIndex[normalizeKey(code)]
	return ok
}

// InternalRate returns the base premium for a domestic class and duration.
func (t *Table) InternalRate(code string, months int) (decimal.Decimal, bool) {
	return lookup(t.internal, t.internalIndex, code, months)
}

// HasBorderType reports whether a border vehicle class is priced.
func (t *Table) HasBorderType(borderType string) bool {
	_, ok := t.borderIndex[normalizeKey(borderType)]
	return ok
}

// BorderRate returns the base premium for a border class and duration.
func (t *Table) BorderRate(borderType string, months int) (decimal.Decimal, bool) {
	return lookup(t.border, t.borderIndex, borderType, months)
}

// Categories returns the categories in schedule order.
func (t *Table) Categories() []Category {
	return append([]Category(nil), t.categories...)
}

// Classifications returns the classifications in schedule order.
func (t *Table) Classifications() []Classification {
	return append([]Classification(nil), t.classifications...)
}

// InternalRows returns the domestic rows in schedule order.
func (t *Table) InternalRows() []Row { return copyRows(t.internal) }

// BorderRows returns the border rows in schedule order.
func (t *Table) BorderRows() []Row { return copyRows(t.border) }

func lookup(rows []Row, index map[string]int, key string, months int) (decimal.Decimal, bool) {
	i, ok := index[normalizeKey(key)]
	if !ok {
		return decimal.Decimal{}, false
	}
	rate, ok := rows[i].Rates[months]
	return rate, ok
}

func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		rates := make(map[int]decimal.Decimal, len(r.Rates))
		for m, v := range r.Rates {
			rates[m] = v
		}
		out[i] = Row{Key: r.Key, Label: r.Label, Rates: rates}
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
