package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/service/search"
)

type GeocodeHandler struct {
	geocoder      search.Geocoder
	searchService *search.Service
}

func NewGeocodeHandler(geocoder search.Geocoder, searchService *search.Service) *GeocodeHandler {
	return &GeocodeHandler{
		geocoder:      geocoder,
		searchService: searchService,
	}
}

func (h *GeocodeHandler) HandleGeocode(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("query")
	if query == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "query is required")
		return
	}

	result, err := h.geocoder.Geocode(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			respondError(c, http.StatusNotFound, "address_not_found", err.Error())
			return
		}
		slog.ErrorContext(ctx, "geocode failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadGateway, "provider_error", "geocoding unavailable")
		return
	}

	c.JSON(http.StatusOK, toGeocodeResponse(result))
}

func (h *GeocodeHandler) HandlePlaceSearch(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("query")
	if query == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "query is required")
		return
	}

	places, err := h.searchService.SearchPlaces(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "place search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadGateway, "provider_error", "place search unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": places,
		"count": len(places),
	})
}
