// Package events publishes issuance events for downstream consumers such as
// the traffic police registry and reporting.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// PolicyIssued is published once a payment has been committed.
type PolicyIssued struct {
	PaymentID     string      `json:"paymentId"`
	VehicleID     string      `json:"vehicleId"`
	VehicleType   string      `json:"vehicleType"`
	PolicyNumber  string      `json:"policyNumber"`
	ReceiptNumber string      `json:"receiptNumber"`
	InsuranceType string      `json:"insuranceType"`
	Months        int         `json:"months"`
	Total         json.Number `json:"total"`
	Currency      string      `json:"currency"`
	RateVersion   string      `json:"rateVersion,omitempty"`
	CoverageStart time.Time   `json:"coverageStart"`
	CoverageEnd   time.Time   `json:"coverageEnd"`
	IssuedAt      time.Time   `json:"issuedAt"`
}

// Publisher delivers issuance events.
type Publisher interface {
	PublishPolicyIssued(ctx context.Context, event PolicyIssued) error
	Close()
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishPolicyIssued(context.Context, PolicyIssued) error { return nil }
func (Noop) Close()                                                  {}
