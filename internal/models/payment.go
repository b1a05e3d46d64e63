package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethod is how a premium was paid.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
)

// IsValid checks if a payment method is accepted.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodMobileWallet:
		return true
	default:
		return false
	}
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is a committed premium payment. Its quote is a copy taken at
// commit time and is never recomputed.
type Payment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	VehicleID     primitive.ObjectID   `bson:"vehicle_id" json:"vehicleId"`
	VehicleType   VehicleType          `bson:"vehicle_type" json:"vehicleType"`
	PolicyNumber  string               `bson:"policy_number" json:"policyNumber"`
	ReceiptNumber string               `bson:"receipt_number" json:"receiptNumber"`
	Amount        primitive.Decimal128 `bson:"amount" json:"amount"`
	Currency      string               `bson:"currency" json:"currency"`
	PaymentMethod PaymentMethod        `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus        `bson:"payment_status" json:"paymentStatus"`
	PaidBy        string               `bson:"paid_by" json:"paidBy"`
	PayerPhone    string               `bson:"payer_phone,omitempty" json:"payerPhone,omitempty"`
	Inputs        PricingInputs        `bson:"inputs" json:"inputs"`
	Quote         StoredQuote          `bson:"quote" json:"quote"`
	RateVersion   string               `bson:"rate_version,omitempty" json:"rateVersion,omitempty"`
	CoverageStart time.Time            `bson:"coverage_start" json:"coverageStart"`
	CoverageEnd   time.Time            `bson:"coverage_end" json:"coverageEnd"`
	Notes         string               `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy     string               `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updatedAt"`
}

// MarshalJSON renders the amount as a JSON number.
func (p Payment) MarshalJSON() ([]byte, error) {
	type payment Payment
	return json.Marshal(struct {
		payment
		Amount json.Number `json:"amount"`
	}{payment(p), amountJSON(p.Amount)})
}

// PaymentRequest is the payload for committing a payment.
type PaymentRequest struct {
	VehicleID     string        `json:"vehicleId" validate:"required,len=24,hexadecimal"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=cash card bank_transfer mobile_wallet"`
	PaidBy        string        `json:"paidBy" validate:"required,max=200"`
	PayerPhone    string        `json:"payerPhone,omitempty" validate:"max=40"`
	// Amount, when sent, must equal the stored quote total.
	Amount *json.Number `json:"amount,omitempty"`
	Notes  string       `json:"notes,omitempty" validate:"max=2000"`
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	Status PaymentStatus
	// Search matches policy number, receipt number or payer name.
	Search string
}

// RecordStats summarises issued policies for one vehicle type.
type RecordStats struct {
	VehicleType  VehicleType `json:"vehicleType"`
	Total        int64       `json:"total"`
	Active       int64       `json:"active"`
	Expired      int64       `json:"expired"`
	Cancelled    int64       `json:"cancelled"`
	TotalPremium json.Number `json:"totalPremium"`
}
