package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NeriVermilion/departure-planner/internal/service/search"
)

const defaultDepartureListLimit = 50

type DepartureHandler struct {
	searchService *search.Service
}

func NewDepartureHandler(searchService *search.Service) *DepartureHandler {
	return &DepartureHandler{
		searchService: searchService,
	}
}

func (h *DepartureHandler) HandleListDepartures(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.Query("user_id")
	if userID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	limit := defaultDepartureListLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	departures, err := h.searchService.ListDepartures(ctx, userID, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list departures",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to list departures")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"departures": departures,
		"count":      len(departures),
	})
}
