package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motodispatch/internal/domain"
	"motodispatch/internal/middleware"
	"motodispatch/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
	rideService   *service.RideService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, rideService *service.RideService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		rideService:   rideService,
	}
}

// RegisterDriverRequest is the HTTP request body for registering a driver.
type RegisterDriverRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SetAvailabilityRequest is the HTTP request body for toggling availability.
// Lat/Lng are optional; when going online with coordinates the geo
// index is refreshed in the same call.
type SetAvailabilityRequest struct {
	IsOnline bool     `json:"is_online"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// UpdateLocationRequest is the HTTP request body for a location ping.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsOnline bool   `json:"is_online"`
	Status   string `json:"status"`
	LastSeen string `json:"last_seen"`
}

// RegisterDriver handles POST /v1/drivers
func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		UserID: c.GetString(middleware.ContextUserID),
		Name:   req.Name,
		Phone:  req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// GetAll handles GET /v1/drivers
func (h *DriverHandler) GetAll(c *gin.Context) {
	drivers, err := h.driverService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, toDriverResponse(d))
	}

	respondJSON(c, http.StatusOK, response)
}

// SetAvailability handles POST /v1/drivers/:id/status
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	driver, err := h.driverService.SetAvailability(c.Request.Context(), c.Param("id"), req.IsOnline)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.IsOnline && req.Lat != nil && req.Lng != nil {
		if err := h.driverService.UpdateLocation(c.Request.Context(), driver.ID, *req.Lat, *req.Lng); err != nil {
			respondError(c, err)
			return
		}
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	if err := h.driverService.UpdateLocation(c.Request.Context(), c.Param("id"), req.Lat, req.Lng); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRides handles GET /v1/drivers/:id/rides
func (h *DriverHandler) GetRides(c *gin.Context) {
	rides, err := h.rideService.ListDriverRides(c.Request.Context(), c.Param("id"), 50)
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

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:       driver.ID,
		UserID:   driver.UserID,
		Name:     driver.Name,
		Phone:    driver.Phone,
		IsOnline: driver.IsOnline,
		Status:   string(driver.Status),
		LastSeen: formatTime(driver.LastSeen),
	}
}
