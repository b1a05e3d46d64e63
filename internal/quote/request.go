package quote

import "strings"

// Type discriminates the two request variants.
type Type string

const (
	TypeInternal Type = "internal"
	TypeBorder   Type = "border"
)

// Request is a quote request. It is sealed: the only implementations are
// Internal and Border, so a request always carries exactly one variant.
type Request interface {
	Type() Type
	Duration() int
	isRequest()
}

// Internal asks for a quote on a domestically registered vehicle.
type Internal struct {
	VehicleCode    string
	Category       string
	Classification string
	Months         int
}

func (Internal) Type() Type      { return TypeInternal }
func (r Internal) Duration() int { return r.Months }
func (Internal) isRequest()      {}

// Border asks for a quote on a vehicle entering on foreign plates.
type Border struct {
	BorderType string
	Months     int
}

func (Border) Type() Type      { return TypeBorder }
func (r Border) Duration() int { return r.Months }
func (Border) isRequest()      {}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
