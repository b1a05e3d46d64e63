package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/ukydev/motor-insurance/internal/certificate"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// PaymentHandler records payments and serves the documents issued for them.
type PaymentHandler struct {
	payments db.PaymentCollection
	issuer   Issuer
	renderer *certificate.Renderer
}

// NewPaymentHandler creates a payment handler.
func NewPaymentHandler(payments db.PaymentCollection, issuer Issuer, renderer *certificate.Renderer) *PaymentHandler {
	return &PaymentHandler{payments: payments, issuer: issuer, renderer: renderer}
}

// Create commits a payment against a priced vehicle.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := issuance.PaymentInput{
		VehicleID:  req.VehicleID,
		Method:     req.PaymentMethod,
		PaidBy:     req.PaidBy,
		PayerPhone: req.PayerPhone,
		Notes:      req.Notes,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(req.Amount.String())
		if err != nil {
			respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, fmt.Sprintf("invalid amount %q", req.Amount.String()))
			return
		}
		in.Amount = &amount
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		in.CreatedBy = claims.Username
	}

	payment, err := h.issuer.RecordPayment(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, payment)
}

// List returns payments filtered by status and search.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.payments.FindPayments(r.Context(), models.PaymentFilter{
		Status: models.PaymentStatus(q.Get("status")),
		Search: q.Get("search"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, payments)
}

// Get returns one payment.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.FindPaymentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, payment)
}

// Policy returns the policy document as JSON.
func (h *PaymentHandler) Policy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.issuer.Policy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, policy)
}

// Certificate returns the printable certificate as plain text.
func (h *PaymentHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	policy, err := h.issuer.Policy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, policy); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", policy.PolicyNumber+".txt"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
