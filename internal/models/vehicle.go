package models

import (
	"time"

	"github.com/ukydev/motor-insurance/internal/quote"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleType separates domestically registered vehicles from vehicles on
// foreign plates.
type VehicleType string

const (
	VehicleTypeDomestic VehicleType = "domestic"
	VehicleTypeForeign  VehicleType = "foreign"
)

// IsValid checks if a vehicle type is known.
func (t VehicleType) IsValid() bool {
	return t == VehicleTypeDomestic || t == VehicleTypeForeign
}

// InsuranceType is the quote variant a vehicle of this type is priced with.
func (t VehicleType) InsuranceType() quote.Type {
	if t == VehicleTypeForeign {
		return quote.TypeBorder
	}
	return quote.TypeInternal
}

// VehicleStatus is the lifecycle state of an insured vehicle record.
type VehicleStatus string

const (
	VehicleStatusActive    VehicleStatus = "active"
	VehicleStatusExpired   VehicleStatus = "expired"
	VehicleStatusCancelled VehicleStatus = "cancelled"
)

// Coverage is the kind of policy requested.
type Coverage string

const (
	CoverageThirdParty      Coverage = "third-party"
	CoverageComprehensive   Coverage = "comprehensive"
	CoverageBorderInsurance Coverage = "border-insurance"
)

// Owner identifies the insured party.
type Owner struct {
	Name           string `bson:"name" json:"name" validate:"required"`
	NationalID     string `bson:"national_id,omitempty" json:"nationalId,omitempty"`
	PassportNumber string `bson:"passport_number,omitempty" json:"passportNumber,omitempty"`
	Nationality    string `bson:"nationality,omitempty" json:"nationality,omitempty"`
	Phone          string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address        string `bson:"address,omitempty" json:"address,omitempty"`
}

// VehicleDetails describes the insured vehicle.
type VehicleDetails struct {
	PlateNumber   string `bson:"plate_number" json:"plateNumber" validate:"required"`
	PlateCountry  string `bson:"plate_country,omitempty" json:"plateCountry,omitempty"`
	ChassisNumber string `bson:"chassis_number" json:"chassisNumber" validate:"required"`
	EngineNumber  string `bson:"engine_number,omitempty" json:"engineNumber,omitempty"`
	Brand         string `bson:"brand" json:"brand" validate:"required"`
	Model         string `bson:"model" json:"model" validate:"required"`
	Year          int    `bson:"year" json:"year" validate:"required,gte=1900,lte=2100"`
	Color         string `bson:"color,omitempty" json:"color,omitempty"`
	FuelType      string `bson:"fuel_type,omitempty" json:"fuelType,omitempty"`
}

// BorderEntry records how a foreign vehicle entered the country.
type BorderEntry struct {
	EntryDate       *time.Time `bson:"entry_date,omitempty" json:"entryDate,omitempty"`
	ExitDate        *time.Time `bson:"exit_date,omitempty" json:"exitDate,omitempty"`
	EntryPoint      string     `bson:"entry_point,omitempty" json:"entryPoint,omitempty"`
	CustomsDocument string     `bson:"customs_document,omitempty" json:"customsDocument,omitempty"`
}

// Vehicle is an insured vehicle record.
type Vehicle struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	VehicleType    VehicleType         `bson:"vehicle_type" json:"vehicleType"`
	Owner          Owner               `bson:"owner" json:"owner"`
	Details        VehicleDetails      `bson:"vehicle" json:"vehicle"`
	Entry          *BorderEntry        `bson:"entry,omitempty" json:"entry,omitempty"`
	PolicyDuration int                 `bson:"policy_duration,omitempty" json:"policyDuration,omitempty"`
	Coverage       Coverage            `bson:"coverage,omitempty" json:"coverage,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Status         VehicleStatus       `bson:"status" json:"status"`
	Pricing        *Pricing            `bson:"pricing,omitempty" json:"pricing,omitempty"`
	PaymentID      *primitive.ObjectID `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	CreatedBy      string              `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}

// VehicleRequest is the intake payload for creating or replacing a vehicle.
type VehicleRequest struct {
	VehicleType    VehicleType    `json:"vehicleType" validate:"required,oneof=domestic foreign"`
	Owner          Owner          `json:"owner"`
	Details        VehicleDetails `json:"vehicle"`
	Entry          *BorderEntry   `json:"entry,omitempty"`
	PolicyDuration int            `json:"policyDuration,omitempty" validate:"omitempty,oneof=1 2 3 6 12"`
	Coverage       Coverage       `json:"coverage,omitempty" validate:"omitempty,oneof=third-party comprehensive border-insurance"`
	Notes          string         `json:"notes,omitempty" validate:"max=2000"`
	Status         VehicleStatus  `json:"status,omitempty" validate:"omitempty,oneof=active expired cancelled"`
}

// Apply copies the request's fields onto v, leaving identity, pricing and
// audit fields untouched.
func (r VehicleRequest) Apply(v *Vehicle) {
	v.VehicleType = r.VehicleType
	v.Owner = r.Owner
	v.Details = r.Details
	v.Entry = r.Entry
	v.PolicyDuration = r.PolicyDuration
	v.Coverage = r.Coverage
	v.Notes = r.Notes
	if r.Status != "" {
		v.Status = r.Status
	}
	if v.Status == "" {
		v.Status = VehicleStatusActive
	}
}

// VehicleFilter narrows a vehicle listing.
type VehicleFilter struct {
	VehicleType VehicleType
	Status      VehicleStatus
	// Search matches owner name, national id, passport, plate or chassis.
	Search string
}
