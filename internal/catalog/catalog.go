// Package catalog holds the vehicle makes, models and colours the intake
// form offers. It is reference data only; intake accepts free text.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vehicle_catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog marks a catalog file that cannot be served.
var ErrInvalidCatalog = errors.New("invalid vehicle catalog")

// Color is one paint colour. CCID is the registry colour code, when known.
type Color struct {
	ID   string `json:"_id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	CCID int    `json:"ccid,omitempty" yaml:"ccid"`
}

type catalogFile struct {
	Makes []struct {
		Name   string   `yaml:"name"`
		Models []string `yaml:"models"`
	} `yaml:"makes"`
	Colors []Color `yaml:"colors"`
}

// Catalog is an immutable, validated vehicle catalog.
type Catalog struct {
	makes  []string
	models map[string][]string
	colors []Color
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from disk. An empty path selects the default.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vehicle catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a YAML catalog.
func Parse(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}

	var errs []error
	c := &Catalog{models: make(map[string][]string, len(file.Makes))}
	if len(file.Makes) == 0 {
		errs = append(errs, errors.New("no makes"))
	}
	for _, m := range file.Makes {
		name := strings.TrimSpace(m.Name)
		key := foldKey(name)
		switch {
		case name == "":
			errs = append(errs, errors.New("make without a name"))
			continue
		case c.models[key] != nil:
			errs = append(errs, fmt.Errorf("duplicate make %q", name))
			continue
		case len(m.Models) == 0:
			errs = append(errs, fmt.Errorf("make %q has no models", name))
			continue
		}
		c.makes = append(c.makes, name)
		c.models[key] = append([]string(nil), m.Models...)
	}

	seen := make(map[string]bool, len(file.Colors))
	for _, col := range file.Colors {
		if col.ID == "" || col.Name == "" {
			errs = append(errs, fmt.Errorf("color %q needs an id and a name", col.ID))
			continue
		}
		if seen[col.ID] {
			errs = append(errs, fmt.Errorf("duplicate color %q", col.ID))
			continue
		}
		seen[col.ID] = true
		c.colors = append(c.colors, col)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return c, nil
}

// Makes returns the make names in catalog order.
func (c *Catalog) Makes() []string {
	return append([]string(nil), c.makes...)
}

// Models returns the models of the named make, matched case-insensitively.
func (c *Catalog) Models(name string) ([]string, bool) {
	models, ok := c.models[foldKey(name)]
	if !ok {
		return nil, false
	}
	return append([]string(nil), models...), true
}

// Colors returns the colours in catalog order.
func (c *Catalog) Colors() []Color {
	return append([]Color(nil), c.colors...)
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
