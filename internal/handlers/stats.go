package handlers

import (
	"net/http"
	"time"

	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// StatsHandler serves the records overview.
type StatsHandler struct {
	stats db.StatsCollection
	now   func() time.Time
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(stats db.StatsCollection) *StatsHandler {
	return &StatsHandler{stats: stats, now: time.Now}
}

// Records returns policy counts and collected premium per vehicle type.
func (h *StatsHandler) Records(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.RecordStats(r.Context(), h.now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
