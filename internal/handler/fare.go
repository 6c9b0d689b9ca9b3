package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motodispatch/internal/domain"
	"motodispatch/internal/service"
)

// FareHandler handles HTTP requests for fare estimates.
type FareHandler struct {
	rideService *service.RideService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(rideService *service.RideService) *FareHandler {
	return &FareHandler{rideService: rideService}
}

// EstimateFareRequest is the HTTP request body for a fare estimate.
type EstimateFareRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// EstimateFareResponse is the HTTP response for a fare estimate.
type EstimateFareResponse struct {
	Breakdown domain.FareBreakdown `json:"breakdown"`
	Total     float64              `json:"total"`
	Currency  string               `json:"currency"`
}

// EstimateFare handles POST /v1/fare/estimate
func (h *FareHandler) EstimateFare(c *gin.Context) {
	var req EstimateFareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	breakdown, err := h.rideService.EstimateFare(c.Request.Context(), req.DistanceKm, req.DurationMin, req.Lat, req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EstimateFareResponse{
		Breakdown: breakdown,
		Total:     breakdown.Total,
		Currency:  breakdown.Currency,
	})
}
