package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/service/search"
)

type routeSearchRequest struct {
	UserID            string `json:"user_id"`
	Start             string `json:"start" binding:"required"`
	End               string `json:"end" binding:"required"`
	Mode              string `json:"mode" binding:"required"`
	DesiredArrival    string `json:"desired_arrival"`
	WantsNotification bool   `json:"wants_notification"`
}

type routeSearchResponse struct {
	Start                *geocodeResponse      `json:"start"`
	End                  *geocodeResponse      `json:"end"`
	Mode                 string                `json:"mode"`
	Estimate             *domain.RouteEstimate `json:"estimate"`
	RecommendedDeparture *time.Time            `json:"recommended_departure,omitempty"`
	DesiredArrival       *time.Time            `json:"desired_arrival,omitempty"`
	ProviderCalls        int                   `json:"provider_calls"`
	Converged            bool                  `json:"converged"`
	FellBack             bool                  `json:"fell_back"`
	SavedDepartureID     string                `json:"saved_departure_id,omitempty"`
}

type geocodeResponse struct {
	Query       string  `json:"query"`
	RoadAddress string  `json:"road_address,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

type SearchHandler struct {
	searchService *search.Service
}

func NewSearchHandler(searchService *search.Service) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

func (h *SearchHandler) HandleRouteSearch(c *gin.Context) {
	ctx := c.Request.Context()

	var req routeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "route search request binding failed",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	mode, err := domain.ParseTravelMode(req.Mode)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "unknown travel mode "+req.Mode)
		return
	}

	var desiredArrival *time.Time
	if req.DesiredArrival != "" {
		parsed, err := time.Parse(time.RFC3339, req.DesiredArrival)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "desired_arrival must be RFC3339")
			return
		}
		desiredArrival = &parsed
	}

	plan, err := h.searchService.Plan(ctx, search.Request{
		UserID:            req.UserID,
		StartQuery:        req.Start,
		EndQuery:          req.End,
		Mode:              mode,
		DesiredArrival:    desiredArrival,
		WantsNotification: req.WantsNotification,
	})
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, routeSearchResponse{
		Start:                toGeocodeResponse(plan.Start),
		End:                  toGeocodeResponse(plan.End),
		Mode:                 plan.Mode.String(),
		Estimate:             plan.Estimate,
		RecommendedDeparture: plan.RecommendedDeparture,
		DesiredArrival:       plan.DesiredArrival,
		ProviderCalls:        plan.ProviderCalls,
		Converged:            plan.Converged,
		FellBack:             plan.FellBack,
		SavedDepartureID:     plan.SavedDepartureID,
	})
}

func respondPlanError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, domain.ErrAddressNotFound):
		respondError(c, http.StatusNotFound, "address_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTravelMode):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrProviderDataMalformed):
		slog.ErrorContext(ctx, "route search failed upstream",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadGateway, "provider_error", "route unavailable")
	default:
		slog.ErrorContext(ctx, "route search failed",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to plan route")
	}
}

func toGeocodeResponse(result *domain.GeocodeResult) *geocodeResponse {
	if result == nil {
		return nil
	}
	return &geocodeResponse{
		Query:       result.Query,
		RoadAddress: result.RoadAddress,
		Lat:         result.Coord.Lat,
		Lng:         result.Coord.Lng,
	}
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"error":   errType,
		"message": message,
	})
}
