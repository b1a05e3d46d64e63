package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ukydev/motor-insurance/internal/metrics"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/rates"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// QuoteHandler serves premium calculations.
type QuoteHandler struct {
	engine  *quote.Engine
	metrics *metrics.Metrics
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(engine *quote.Engine, m *metrics.Metrics) *QuoteHandler {
	return &QuoteHandler{engine: engine, metrics: m}
}

// Calculate prices a request without storing anything.
func (h *QuoteHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := quote.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		var q quote.Quote
		if q, err = h.engine.Compute(req); err == nil {
			h.metrics.ObserveQuote(string(q.Request.Type()), time.Since(start))
			respond.JSON(w, http.StatusOK, quote.NewResponse(q))
			return
		}
	}

	var qerr *quote.Error
	if errors.As(err, &qerr) {
		h.metrics.IncrementQuoteRejected(string(qerr.Code))
	}
	writeError(w, r, err)
}

type codeName struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type optionRow struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
}

// Options is what an intake form needs to build a valid quote request.
type Options struct {
	RateVersion        string      `json:"rateVersion"`
	Currency           string      `json:"currency"`
	Durations          []int       `json:"durations"`
	VehicleCodes       []optionRow `json:"vehicleCodes"`
	Categories         []codeName  `json:"categories"`
	Classifications    []codeName  `json:"classifications"`
	BorderVehicleTypes []optionRow `json:"borderVehicleTypes"`
}

// Options lists the codes and durations of the loaded rate table.
func (h *QuoteHandler) Options(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, OptionsFrom(h.engine.Table()))
}

// OptionsFrom builds the option lists for table.
func OptionsFrom(table *rates.Table) Options {
	opts := Options{
		RateVersion: table.Version(),
		Currency:    table.Currency(),
		Durations:   table.Durations(),
	}
	for _, row := range table.InternalRows() {
		opts.VehicleCodes = append(opts.VehicleCodes, optionRow{Key: row.Key, Label: row.Label})
	}
	for _, row := range table.BorderRows() {
		opts.BorderVehicleTypes = append(opts.BorderVehicleTypes, optionRow{Key: row.Key, Label: row.Label})
	}
	for _, c := range table.Categories() {
		opts.Categories = append(opts.Categories, codeName{Code: c.Code, Name: c.Name})
	}
	for _, c := range table.Classifications() {
		opts.Classifications = append(opts.Classifications, codeName{Code: c.Code, Name: c.Name})
	}
	return opts
}
