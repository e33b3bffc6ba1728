package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flightscope/flightscope/internal/api/models"
	"github.com/flightscope/flightscope/internal/api/response"
	"github.com/flightscope/flightscope/internal/flights"
	"github.com/flightscope/flightscope/internal/flights/skyscrapper"
)

// LocaleLister lists provider locales. *skyscrapper.Client satisfies it.
type LocaleLister interface {
	Locales(ctx context.Context) ([]skyscrapper.Locale, error)
}

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct {
	locales LocaleLister
	logger  zerolog.Logger
}

// NewMetadataHandler creates a new MetadataHandler. locales may be nil.
func NewMetadataHandler(locales LocaleLister, logger zerolog.Logger) *MetadataHandler {
	return &MetadataHandler{locales: locales, logger: logger}
}

// SortOptions handles GET /v1/metadata/sort-options.
func (h *MetadataHandler) SortOptions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.SortOptions{Items: flights.SortOptions()})
}

// Locales handles GET /v1/metadata/locales.
func (h *MetadataHandler) Locales(w http.ResponseWriter, r *http.Request) {
	if h.locales == nil {
		response.NotImplemented(w, r, "locale listing is not configured")
		return
	}

	locales, err := h.locales.Locales(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := models.Locales{Items: make([]models.Locale, len(locales))}
	for i, l := range locales {
		out.Items[i] = models.Locale{ID: l.ID, Text: l.Text}
	}
	response.JSON(w, r, http.StatusOK, out)
}
