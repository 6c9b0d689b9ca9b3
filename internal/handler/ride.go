package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"motodispatch/internal/domain"
	"motodispatch/internal/middleware"
	"motodispatch/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService       *service.RideService
	assignmentService *service.AssignmentService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, assignmentService *service.AssignmentService) *RideHandler {
	return &RideHandler{
		rideService:       rideService,
		assignmentService: assignmentService,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
	DropoffLat  float64 `json:"dropoff_lat"`
	DropoffLng  float64 `json:"dropoff_lng"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// AcceptRideRequest is the HTTP request body for accepting a ride.
type AcceptRideRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
// CancelledBy defaults to the authenticated user.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// UpdateStatusRequest is the HTTP request body for advancing a ride.
type UpdateStatusRequest struct {
	DriverID string `json:"driver_id"`
	Status   string `json:"status"`
}

// CompleteRideRequest is the HTTP request body for completing a ride.
type CompleteRideRequest struct {
	DriverID    string  `json:"driver_id"`
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID              string                `json:"id"`
	CustomerID      string                `json:"customer_id"`
	DriverID        string                `json:"driver_id,omitempty"`
	Status          string                `json:"status"`
	PickupLat       float64               `json:"pickup_lat"`
	PickupLng       float64               `json:"pickup_lng"`
	DropoffLat      float64               `json:"dropoff_lat"`
	DropoffLng      float64               `json:"dropoff_lng"`
	SurgeMultiplier float64               `json:"surge_multiplier"`
	SurgeActive     bool                  `json:"surge_active"`
	EstimatedPrice  float64               `json:"estimated_price"`
	PriceTotal      float64               `json:"price_total,omitempty"`
	Breakdown       *domain.FareBreakdown `json:"breakdown,omitempty"`
	RequestedAt     string                `json:"requested_at"`
	AcceptedAt      string                `json:"accepted_at,omitempty"`
	CompletedAt     string                `json:"completed_at,omitempty"`
	CancelledAt     string                `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		CustomerID:  c.GetString(middleware.ContextUserID),
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		DropoffLat:  req.DropoffLat,
		DropoffLng:  req.DropoffLng,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}

	respondJSON(c, http.StatusOK, response)
}

// AcceptRide handles POST /v1/rides/:id/accept
func (h *RideHandler) AcceptRide(c *gin.Context) {
	var req AcceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	ride, err := h.assignmentService.Accept(c.Request.Context(), c.Param("id"), req.DriverID, c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	cancelledBy := req.CancelledBy
	if cancelledBy == "" {
		cancelledBy = c.GetString(middleware.ContextUserID)
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:      c.Param("id"),
		CancelledBy: cancelledBy,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// UpdateStatus handles POST /v1/rides/:id/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	target, ok := domain.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown status", Code: "INVALID_REQUEST"})
		return
	}
	// Completion and cancellation have dedicated endpoints.
	if target.IsTerminal() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "use the complete or cancel endpoint", Code: "INVALID_REQUEST"})
		return
	}

	ride, err := h.rideService.AdvanceStatus(c.Request.Context(), c.Param("id"), req.DriverID, target)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *RideHandler) CompleteRide(c *gin.Context) {
	var req CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	ride, err := h.rideService.CompleteRide(c.Request.Context(), service.CompleteRideRequest{
		RideID:      c.Param("id"),
		DriverID:    req.DriverID,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

func toRideResponse(ride *domain.Ride) RideResponse {
	response := RideResponse{
		ID:              ride.ID,
		CustomerID:      ride.CustomerID,
		DriverID:        ride.DriverID,
		Status:          string(ride.Status),
		PickupLat:       ride.PickupLat,
		PickupLng:       ride.PickupLng,
		DropoffLat:      ride.DropoffLat,
		DropoffLng:      ride.DropoffLng,
		SurgeMultiplier: ride.SurgeMultiplier,
		SurgeActive:     ride.SurgeMultiplier > 1.0,
		EstimatedPrice:  ride.EstimatedPrice,
		PriceTotal:      ride.PriceTotal,
		RequestedAt:     formatTime(ride.RequestedAt),
		AcceptedAt:      formatTime(ride.AcceptedAt),
		CompletedAt:     formatTime(ride.CompletedAt),
		CancelledAt:     formatTime(ride.CancelledAt),
		CancelReason:    ride.CancelReason,
	}

	response.Breakdown = ride.Breakdown

	return response
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
