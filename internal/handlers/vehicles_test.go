package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func vehicleRequest() models.VehicleRequest {
	return models.VehicleRequest{
		VehicleType: models.VehicleTypeDomestic,
		Owner:       models.Owner{Name: "Rami Haddad", NationalID: "01020304050"},
		Details: models.VehicleDetails{
			PlateNumber:   "123456",
			ChassisNumber: "JTDBR32E720012345",
			Brand:         "Toyota",
			Model:         "Corolla",
			Year:          2018,
		},
		PolicyDuration: 12,
		Coverage:       models.CoverageThirdParty,
	}
}

func TestVehicleHandler_Create(t *testing.T) {
	t.Run("stores the vehicle", func(t *testing.T) {
		api := newTestAPI(t)
		id := primitive.NewObjectID()
		api.vehicles.On("InsertVehicle", mock.Anything, mock.MatchedBy(func(v models.Vehicle) bool {
			return v.VehicleType == models.VehicleTypeDomestic &&
				v.Owner.Name == "Rami Haddad" &&
				v.Status == models.VehicleStatusActive &&
				v.CreatedBy == "agent1"
		})).Return(func() *models.Vehicle {
			v := models.Vehicle{ID: id}
			vehicleRequest().Apply(&v)
			v.CreatedBy = "agent1"
			return &v
		}(), nil)

		w := api.do(t, models.RoleAgent, http.MethodPost, "/api/vehicles", vehicleRequest())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var vehicle models.Vehicle
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &vehicle))
		assert.Equal(t, id, vehicle.ID)
		assert.Equal(t, "agent1", vehicle.CreatedBy)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*models.VehicleRequest)
		}{
			{"unknown vehicle type", func(r *models.VehicleRequest) { r.VehicleType = "lorry" }},
			{"missing owner", func(r *models.VehicleRequest) { r.Owner.Name = "" }},
			{"missing plate", func(r *models.VehicleRequest) { r.Details.PlateNumber = "" }},
			{"year out of range", func(r *models.VehicleRequest) { r.Details.Year = 1800 }},
			{"unsupported duration", func(r *models.VehicleRequest) { r.PolicyDuration = 5 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newTestAPI(t)
				req := vehicleRequest()
				tt.mutate(&req)
				w := api.do(t, models.RoleAgent, http.MethodPost, "/api/vehicles", req)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "ValidationFailed", errorCodeOf(t, w))
			})
		}
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, models.RoleViewer, http.MethodPost, "/api/vehicles", vehicleRequest())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestVehicleHandler_List(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		api := newTestAPI(t)
		filter := models.VehicleFilter{VehicleType: models.VehicleTypeForeign, Status: models.VehicleStatusActive, Search: "haddad"}
		api.vehicles.On("FindVehicles", mock.Anything, filter).
			Return([]models.Vehicle{{ID: primitive.NewObjectID(), VehicleType: models.VehicleTypeForeign}}, nil)

		w := api.do(t, models.RoleViewer, http.MethodGet, "/api/vehicles?vehicleType=foreign&status=active&search=haddad", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var vehicles []models.Vehicle
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &vehicles))
		assert.Len(t, vehicles, 1)
	})

	t.Run("unknown vehicle type", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, models.RoleViewer, http.MethodGet, "/api/vehicles?vehicleType=lorry", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		api := newTestAPI(t)
		api.vehicles.On("FindVehicles", mock.Anything, models.VehicleFilter{}).Return(nil, assert.AnError)

		w := api.do(t, models.RoleViewer, http.MethodGet, "/api/vehicles", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "InternalError", errorCodeOf(t, w))
	})
}

func TestVehicleHandler_Get(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", db.ErrNotFound, http.StatusNotFound},
		{"invalid id", db.ErrInvalidID, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.vehicles.On("FindVehicleByID", mock.Anything, "abc").Return(nil, tt.err)

			w := api.do(t, models.RoleViewer, http.MethodGet, "/api/vehicles/abc", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("found", func(t *testing.T) {
		api := newTestAPI(t)
		id := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic}, nil)

		w := api.do(t, models.RoleViewer, http.MethodGet, "/api/vehicles/"+id.Hex(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var vehicle models.Vehicle
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &vehicle))
		assert.Equal(t, id, vehicle.ID)
	})
}

// withIssuance routes vehicle writes through a real issuance service backed
// by the mocked collections.
func withIssuance(api *testAPI) {
	api.cfg.Vehicles = NewVehicleHandler(api.vehicles, issuance.NewService(api.vehicles, api.payments, api.engine))
	api.handler = NewRouter(api.cfg)
}

func TestVehicleHandler_Update(t *testing.T) {
	t.Run("updates intake fields", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).
			Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic, Status: models.VehicleStatusActive}, nil)
		api.vehicles.On("UpdateVehicle", mock.Anything, id.Hex(), mock.MatchedBy(func(v models.Vehicle) bool {
			return v.Details.Color == "white" && v.ID == id
		})).Return(nil)

		req := vehicleRequest()
		req.Details.Color = "white"
		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/"+id.Hex(), req)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		api.payments.AssertNotCalled(t, "FindPaymentByVehicle", mock.Anything, mock.Anything)
	})

	t.Run("unpaid vehicle changes type", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).
			Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic}, nil)
		api.payments.On("FindPaymentByVehicle", mock.Anything, id.Hex()).Return(nil, db.ErrNotFound)
		api.vehicles.On("UpdateVehicle", mock.Anything, id.Hex(), mock.MatchedBy(func(v models.Vehicle) bool {
			return v.VehicleType == models.VehicleTypeForeign
		})).Return(nil)

		req := vehicleRequest()
		req.VehicleType = models.VehicleTypeForeign
		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/"+id.Hex(), req)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("paid vehicle cannot change type", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		paymentID := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).
			Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic, PaymentID: &paymentID}, nil)

		req := vehicleRequest()
		req.VehicleType = models.VehicleTypeForeign
		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/"+id.Hex(), req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PricingLocked", errorCodeOf(t, w))
	})

	t.Run("payment without vehicle link", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		paymentID := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).
			Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic}, nil)
		api.payments.On("FindPaymentByVehicle", mock.Anything, id.Hex()).
			Return(&models.Payment{ID: paymentID, VehicleID: id}, nil)
		api.vehicles.On("MarkPaid", mock.Anything, id.Hex(), paymentID).Return(nil)

		req := vehicleRequest()
		req.VehicleType = models.VehicleTypeForeign
		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/"+id.Hex(), req)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PricingLocked", errorCodeOf(t, w))
		api.vehicles.AssertNotCalled(t, "UpdateVehicle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		api := newTestAPI(t)
		api.issuer.On("UpdateVehicle", mock.Anything, "abc", mock.Anything).Return(nil, db.ErrNotFound)

		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/abc", vehicleRequest())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestVehicleHandler_Delete(t *testing.T) {
	t.Run("supervisor deletes", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).Return(&models.Vehicle{ID: id}, nil)
		api.payments.On("FindPaymentByVehicle", mock.Anything, id.Hex()).Return(nil, db.ErrNotFound)
		api.vehicles.On("DeleteVehicle", mock.Anything, id.Hex()).Return(nil)

		w := api.do(t, models.RoleSupervisor, http.MethodDelete, "/api/vehicles/"+id.Hex(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("payment without vehicle link", func(t *testing.T) {
		api := newTestAPI(t)
		withIssuance(api)
		id := primitive.NewObjectID()
		paymentID := primitive.NewObjectID()
		api.vehicles.On("FindVehicleByID", mock.Anything, id.Hex()).Return(&models.Vehicle{ID: id}, nil)
		api.payments.On("FindPaymentByVehicle", mock.Anything, id.Hex()).
			Return(&models.Payment{ID: paymentID, VehicleID: id}, nil)
		api.vehicles.On("MarkPaid", mock.Anything, id.Hex(), paymentID).Return(errors.New("write conflict"))

		w := api.do(t, models.RoleSupervisor, http.MethodDelete, "/api/vehicles/"+id.Hex(), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PricingLocked", errorCodeOf(t, w))
		api.vehicles.AssertNotCalled(t, "DeleteVehicle", mock.Anything, mock.Anything)
	})

	t.Run("locked in storage", func(t *testing.T) {
		api := newTestAPI(t)
		api.issuer.On("DeleteVehicle", mock.Anything, "abc").Return(db.ErrLocked)

		w := api.do(t, models.RoleSupervisor, http.MethodDelete, "/api/vehicles/abc", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PricingLocked", errorCodeOf(t, w))
	})

	t.Run("agent cannot delete", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, models.RoleAgent, http.MethodDelete, "/api/vehicles/abc", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestVehicleHandler_Price(t *testing.T) {
	t.Run("stores the computed quote", func(t *testing.T) {
		api := newTestAPI(t)
		id := primitive.NewObjectID()
		req := quote.Internal{VehicleCode: "01a", Category: "01", Classification: "0", Months: 12}
		q, err := api.engine.Compute(req)
		require.NoError(t, err)
		api.issuer.On("PriceVehicle", mock.Anything, id.Hex(), quote.Request(req)).
			Return(&models.Vehicle{ID: id, VehicleType: models.VehicleTypeDomestic}, q, nil)

		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/"+id.Hex()+"/pricing",
			`{"insuranceType":"internal","vehicleCode":"01a","category":"01","classification":"0","months":12}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp PricingResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
		assert.Equal(t, id, resp.Vehicle.ID)
		assert.Equal(t, json.Number("113400"), resp.Quote.Total)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"variant mismatch", issuance.ErrVariantMismatch, http.StatusUnprocessableEntity, "VariantMismatch"},
			{"locked", issuance.ErrPricingLocked, http.StatusConflict, "PricingLocked"},
			{"not found", db.ErrNotFound, http.StatusNotFound, "NotFound"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newTestAPI(t)
				api.issuer.On("PriceVehicle", mock.Anything, "abc", mock.Anything).Return(nil, quote.Quote{}, tt.err)

				w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/abc/pricing",
					`{"insuranceType":"border","borderVehicleType":"tourist","months":1}`)
				assert.Equal(t, tt.status, w.Code)
				assert.Equal(t, tt.code, errorCodeOf(t, w))
			})
		}
	})

	t.Run("invalid quote request", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, models.RoleAgent, http.MethodPut, "/api/vehicles/abc/pricing", `{"insuranceType":"border","months":1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "InvalidRequest", errorCodeOf(t, w))
	})

	t.Run("viewer cannot price", func(t *testing.T) {
		api := newTestAPI(t)
		w := api.do(t, models.RoleViewer, http.MethodPut, "/api/vehicles/abc/pricing", `{}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
