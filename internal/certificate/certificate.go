// Package certificate renders the printable policy certificate handed to the
// insured at the counter.
package certificate

import (
	_ "embed"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/ukydev/motor-insurance/internal/issuance"
)

//go:embed certificate.tmpl
var certificateTemplate string

const dateLayout = "2006-01-02"

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(dateLayout)
	},
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// Renderer renders certificates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the built-in certificate template.
func New() (*Renderer, error) {
	tmpl, err := template.New("certificate").Funcs(funcs).Option("missingkey=error").Parse(certificateTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse certificate template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the certificate for policy to w. Policies recorded without a
// breakdown print the total only.
func (r *Renderer) Render(w io.Writer, policy *issuance.Policy) error {
	if policy == nil {
		return fmt.Errorf("render certificate: nil policy")
	}
	if err := r.tmpl.Execute(w, policy); err != nil {
		return fmt.Errorf("render certificate %s: %w", policy.PolicyNumber, err)
	}
	return nil
}
