package rates

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const maxScale = 6

// Round rounds an amount to the table's currency scale, half away from zero.
func (t *Table) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(t.scale)
}

// Validate checks the schedule is complete and internally consistent. Every
// violation is reported, wrapped in ErrInvalidTable.
func (t *Table) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if t.version == "" {
		add("version is required")
	}
	if t.currency == "" {
		add("currency is required")
	}
	if t.scale < 0 || t.scale > maxScale {
		add("scale %d out of range [0,%d]", t.scale, maxScale)
	}

	if len(t.durations) == 0 {
		add("durations are required")
	}
	for i, m := range t.durations {
		if !IsDuration(m) {
			add("duration %d is not an issuable coverage length", m)
		}
		if i > 0 && m <= t.durations[i-1] {
			add("durations must be strictly increasing, got %d after %d", m, t.durations[i-1])
		}
	}

	for name, pct := range map[string]decimal.Decimal{
		"stamp_fee":            t.surcharges.StampFee,
		"war_effort":           t.surcharges.WarEffort,
		"martyr_fund":          t.surcharges.MartyrFund,
		"local_administration": t.surcharges.LocalAdministration,
		"reconstruction":       t.surcharges.Reconstruction,
	} {
		if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			add("surcharge %s %s out of range [0,1)", name, pct)
		}
	}

	if len(t.categories) == 0 {
		add("at least one category is required")
	}
	for _, c := range t.categories {
		if c.Code == "" {
			add("category %q has no code", c.Name)
		}
		if !c.Factor.IsPositive() {
			add("category %s factor must be positive", c.Code)
		}
	}

	errs = append(errs, t.validateClassifications()...)
	errs = append(errs, t.validateRows("vehicle code", t.internal, DomesticVehicleCodes)...)
	errs = append(errs, t.validateRows("border type", t.border, BorderVehicleTypes)...)

	if len(errs) == 0 {
		errs = append(errs, t.validateStampReduction()...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(errs...))
	}
	return nil
}

func (t *Table) validateClassifications() []error {
	var errs []error
	one := decimal.NewFromInt(1)
	seen := make(map[Rule]bool)

	for _, c := range t.classifications {
		if c.Code == "" {
			errs = append(errs, fmt.Errorf("classification %q has no code", c.Name))
		}
		if !c.Rule.IsValid() {
			errs = append(errs, fmt.Errorf("classification %s has unknown rule %q", c.Code, c.Rule))
			continue
		}
		seen[c.Rule] = true

		switch c.Rule {
		case RuleNetDiscount, RuleStampReduction:
			if !c.Rate.IsPositive() || c.Rate.GreaterThanOrEqual(one) {
				errs = append(errs, fmt.Errorf("classification %s rate %s out of range (0,1)", c.Code, c.Rate))
			}
		default:
			if !c.Rate.IsZero() {
				errs = append(errs, fmt.Errorf("classification %s rule %s takes no rate", c.Code, c.Rule))
			}
		}
	}

	for _, r := range []Rule{RuleNone, RuleNetDiscount, RuleStampReduction, RuleStampExempt} {
		if !seen[r] {
			errs = append(errs, fmt.Errorf("no classification uses rule %s", r))
		}
	}
	return errs
}

func (t *Table) validateRows(kind string, rows []Row, required []string) []error {
	var errs []error
	present := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.Key == "" {
			errs = append(errs, fmt.Errorf("%s row %q has no key", kind, row.Label))
			continue
		}
		present[normalizeKey(row.Key)] = true

		for months := range row.Rates {
			if !containsInt(t.durations, months) {
				errs = append(errs, fmt.Errorf("%s %s prices unlisted duration %d", kind, row.Key, months))
			}
		}

		var prev decimal.Decimal
		for i, months := range t.durations {
			rate, ok := row.Rates[months]
			if !ok {
				errs = append(errs, fmt.Errorf("%s %s has no rate for %d months", kind, row.Key, months))
				continue
			}
			if !rate.IsPositive() {
				errs = append(errs, fmt.Errorf("%s %s rate for %d months must be positive", kind, row.Key, months))
			}
			if i > 0 && rate.LessThan(prev) {
				errs = append(errs, fmt.Errorf("%s %s is cheaper for %d months (%s) than for %d months (%s)",
					kind, row.Key, months, rate, t.durations[i-1], prev))
			}
			prev = rate
		}
	}

	for _, key := range required {
		if !present[normalizeKey(key)] {
			errs = append(errs, fmt.Errorf("%s %s is not priced", kind, key))
		}
	}
	return errs
}

// validateStampReduction ensures every reduced stamp fee stays strictly between
// zero and the standard fee once rounded to the currency scale.
func (t *Table) validateStampReduction() []error {
	var errs []error
	one := decimal.NewFromInt(1)

	for _, c := range t.classifications {
		if c.Rule != RuleStampReduction {
			continue
		}
		for _, row := range t.internal {
			for _, months := range t.durations {
				for _, cat := range t.categories {
					net := t.Round(row.Rates[months].Mul(cat.Factor))
					standard := t.Round(net.Mul(t.surcharges.StampFee))
					reduced := t.Round(net.Mul(t.surcharges.StampFee).Mul(one.Sub(c.Rate)))
					if !reduced.IsPositive() || !reduced.LessThan(standard) {
						errs = append(errs, fmt.Errorf("classification %s: reduced stamp fee %s not below standard %s for %s/%d months/category %s",
							c.Code, reduced, standard, row.Key, months, cat.Code))
					}
				}
			}
		}
	}
	return errs
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
