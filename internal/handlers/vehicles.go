package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// Issuer prices vehicles, commits payments and guards paid vehicles.
type Issuer interface {
	UpdateVehicle(ctx context.Context, vehicleID string, req models.VehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID string) error
	PriceVehicle(ctx context.Context, vehicleID string, req quote.Request) (*models.Vehicle, quote.Quote, error)
	RecordPayment(ctx context.Context, in issuance.PaymentInput) (*models.Payment, error)
	Policy(ctx context.Context, paymentID string) (*issuance.Policy, error)
}

var _ Issuer = (*issuance.Service)(nil)

// VehicleHandler manages insured vehicle records.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	issuer   Issuer
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, issuer Issuer) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, issuer: issuer}
}

// Create stores a new vehicle record.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var vehicle models.Vehicle
	req.Apply(&vehicle)
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		vehicle.CreatedBy = claims.Username
	}

	inserted, err := h.vehicles.InsertVehicle(r.Context(), vehicle)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.WithFields(log.Fields{
		"vehicle_id":   inserted.ID.Hex(),
		"vehicle_type": inserted.VehicleType,
		"created_by":   inserted.CreatedBy,
	}).Info("Vehicle created")
	respond.JSON(w, http.StatusCreated, inserted)
}

// List returns vehicles filtered by vehicleType, status and search.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.VehicleFilter{
		VehicleType: models.VehicleType(q.Get("vehicleType")),
		Status:      models.VehicleStatus(q.Get("status")),
		Search:      q.Get("search"),
	}
	if filter.VehicleType != "" && !filter.VehicleType.IsValid() {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, fmt.Sprintf("unknown vehicleType %q", filter.VehicleType))
		return
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicles)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicle)
}

// Update replaces a vehicle's intake fields. A paid vehicle cannot change type.
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.VehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	vehicle, err := h.issuer.UpdateVehicle(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, vehicle)
}

// Delete removes an unpaid vehicle.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.issuer.DeleteVehicle(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PricingResponse is a stored vehicle with the quote just computed for it.
type PricingResponse struct {
	Vehicle *models.Vehicle `json:"vehicle"`
	Quote   quote.Response  `json:"quote"`
}

// Price computes a quote for the vehicle and stores it as its pricing. The
// body is a quote request.
func (h *VehicleHandler) Price(w http.ResponseWriter, r *http.Request) {
	req, err := quote.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}

	vehicle, q, err := h.issuer.PriceVehicle(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, PricingResponse{Vehicle: vehicle, Quote: quote.NewResponse(q)})
}
