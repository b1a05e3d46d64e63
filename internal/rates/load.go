package rates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_rates.yaml
var defaultSchedule []byte

// ErrInvalidTable marks a rate schedule that cannot be served. It is a
// deployment fault, reported at startup.
var ErrInvalidTable = errors.New("invalid rate table")

type scheduleFile struct {
	Version   string `yaml:"version"`
	Currency  string `yaml:"currency"`
	Scale     int32  `yaml:"scale"`
	Durations []int  `yaml:"durations"`

	Surcharges struct {
		StampFee            string `yaml:"stamp_fee"`
		WarEffort           string `yaml:"war_effort"`
		MartyrFund          string `yaml:"martyr_fund"`
		LocalAdministration string `yaml:"local_administration"`
		Reconstruction      string `yaml:"reconstruction"`
	} `yaml:"surcharges"`

	Categories []struct {
		Code   string `yaml:"code"`
		Name   string `yaml:"name"`
		Factor string `yaml:"factor"`
	} `yaml:"categories"`

	Classifications []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
		Rule string `yaml:"rule"`
		Rate string `yaml:"rate"`
	} `yaml:"classifications"`

	Internal []scheduleRow `yaml:"internal"`
	Border   []scheduleRow `yaml:"border"`
}

type scheduleRow struct {
	Code  string         `yaml:"code"`
	Type  string         `yaml:"type"`
	Label string         `yaml:"label"`
	Rates map[int]string `yaml:"rates"`
}

// Default returns the schedule compiled into the binary.
func Default() (*Table, error) {
	return Parse(bytes.NewReader(defaultSchedule))
}

// LoadFile reads a schedule from disk. An empty path selects the default.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rate table: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML schedule.
func Parse(r io.Reader) (*Table, error) {
	var file scheduleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidTable, err)
	}

	t, err := build(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func build(file scheduleFile) (*Table, error) {
	var errs []error
	amount := func(field, s string) decimal.Decimal {
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", field, s))
			return decimal.Zero
		}
		return d
	}

	t := &Table{
		version:   file.Version,
		currency:  file.Currency,
		scale:     file.Scale,
		durations: append([]int(nil), file.Durations...),
		surcharges: Surcharges{
			StampFee:            amount("surcharges.stamp_fee", file.Surcharges.StampFee),
			WarEffort:           amount("surcharges.war_effort", file.Surcharges.WarEffort),
			MartyrFund:          amount("surcharges.martyr_fund", file.Surcharges.MartyrFund),
			LocalAdministration: amount("surcharges.local_administration", file.Surcharges.LocalAdministration),
			Reconstruction:      amount("surcharges.reconstruction", file.Surcharges.Reconstruction),
		},
		categoryIndex:       make(map[string]int),
		classificationIndex: make(map[string]int),
		internalIndex:       make(map[string]int),
		borderIndex:         make(map[string]int),
	}

	for _, c := range file.Categories {
		t.categories = append(t.categories, Category{
			Code:   c.Code,
			Name:   c.Name,
			Factor: amount("category "+c.Code+" factor", c.Factor),
		})
	}
	for _, c := range file.Classifications {
		t.classifications = append(t.classifications, Classification{
			Code: c.Code,
			Name: c.Name,
			Rule: Rule(c.Rule),
			Rate: amount("classification "+c.Code+" rate", c.Rate),
		})
	}
	for _, r := range file.Internal {
		t.internal = append(t.internal, buildRow(r.Code, r, amount))
	}
	for _, r := range file.Border {
		t.border = append(t.border, buildRow(r.Type, r, amount))
	}

	for i, c := range t.categories {
		errs = append(errs, index(t.categoryIndex, "category", i, c.Code, c.Name)...)
	}
	for i, c := range t.classifications {
		errs = append(errs, index(t.classificationIndex, "classification", i, c.Code, c.Name)...)
	}
	for i, r := range t.internal {
		errs = append(errs, index(t.internalIndex, "vehicle code", i, r.Key)...)
	}
	for i, r := range t.border {
		errs = append(errs, index(t.borderIndex, "border type", i, r.Key)...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func buildRow(key string, r scheduleRow, amount func(string, string) decimal.Decimal) Row {
	row := Row{Key: key, Label: r.Label, Rates: make(map[int]decimal.Decimal, len(r.Rates))}
	for months, s := range r.Rates {
		row.Rates[months] = amount(fmt.Sprintf("%s/%d", key, months), s)
	}
	return row
}

// index registers each non-empty alias of an entry, rejecting collisions.
func index(m map[string]int, kind string, i int, keys ...string) []error {
	var errs []error
	for _, k := range keys {
		k = normalizeKey(k)
		if k == "" {
			continue
		}
		if prev, ok := m[k]; ok && prev != i {
			errs = append(errs, fmt.Errorf("duplicate %s %q", kind, k))
			continue
		}
		m[k] = i
	}
	return errs
}
