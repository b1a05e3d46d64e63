package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ukydev/motor-insurance/internal/catalog"
	"github.com/ukydev/motor-insurance/internal/respond"
)

// MetaHandler serves the vehicle catalog behind the intake form's pickers.
type MetaHandler struct {
	catalog *catalog.Catalog
}

// NewMetaHandler creates a catalog handler.
func NewMetaHandler(c *catalog.Catalog) *MetaHandler {
	return &MetaHandler{catalog: c}
}

// Makes lists vehicle makes.
func (h *MetaHandler) Makes(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.catalog.Makes())
}

// Models lists the models of the make named by the make query parameter.
func (h *MetaHandler) Models(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("make"))
	if name == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, "make is required")
		return
	}
	models, ok := h.catalog.Models(name)
	if !ok {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("unknown make %q", name))
		return
	}
	respond.JSON(w, http.StatusOK, models)
}

// Colors lists paint colours.
func (h *MetaHandler) Colors(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.catalog.Colors())
}
