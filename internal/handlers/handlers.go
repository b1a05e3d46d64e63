// Package handlers exposes the quote engine and the records around it over
// HTTP. Every response uses the respond envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/respond"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// errBadBody marks request bodies that are not valid JSON for the target.
var errBadBody = errors.New("invalid request body")

// decodeBody reads a JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is empty", errBadBody)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return validate.Struct(v)
}

// validationMessage lists the failing fields by their JSON path.
func validationMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// writeError maps domain and storage errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var qerr *quote.Error
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &qerr):
		respond.Error(w, http.StatusUnprocessableEntity, string(qerr.Code), qerr.Message)
	case errors.As(err, &verrs):
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, validationMessage(verrs))
	case errors.Is(err, errBadBody):
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, err.Error())
	case errors.Is(err, db.ErrInvalidID):
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "invalid id")
	case errors.Is(err, db.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "record not found")
	case errors.Is(err, db.ErrDuplicate):
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "record already exists")
	case errors.Is(err, issuance.ErrQuoteRequired):
		respond.Error(w, http.StatusConflict, "QuoteRequired", err.Error())
	case errors.Is(err, issuance.ErrPricingLocked), errors.Is(err, db.ErrLocked):
		respond.Error(w, http.StatusConflict, "PricingLocked", "vehicle pricing is locked by a payment")
	case errors.Is(err, issuance.ErrAlreadyPaid):
		respond.Error(w, http.StatusConflict, "AlreadyPaid", err.Error())
	case errors.Is(err, issuance.ErrVariantMismatch):
		respond.Error(w, http.StatusUnprocessableEntity, "VariantMismatch", err.Error())
	case errors.Is(err, issuance.ErrAmountMismatch):
		respond.Error(w, http.StatusUnprocessableEntity, "AmountMismatch", err.Error())
	case errors.Is(err, issuance.ErrInvalidMethod):
		respond.Error(w, http.StatusUnprocessableEntity, "InvalidPaymentMethod", err.Error())
	default:
		entry := log.WithError(err).WithFields(log.Fields{"method": r.Method, "path": r.URL.Path})
		if errors.Is(err, issuance.ErrCorruptQuote) {
			entry.Error("Stored quote failed verification")
			respond.Error(w, http.StatusInternalServerError, "CorruptQuote", "stored quote failed verification")
			return
		}
		entry.Error("Request failed")
		respond.Error(w, http.StatusInternalServerError, respond.CodeInternal, "internal server error")
	}
}
