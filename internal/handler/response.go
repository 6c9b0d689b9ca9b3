package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"motodispatch/internal/domain"
	"motodispatch/internal/repository"
	"motodispatch/internal/service"
)

// ErrorResponse represents an error response. Code is a stable
// machine-readable identifier; Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status, code := mapError(err)
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapError maps service/repository errors to an HTTP status and a
// stable error code.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"

	// Validation errors
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropoffLocation),
		errors.Is(err, service.ErrInvalidTripMetrics):
		return http.StatusBadRequest, "INVALID_REQUEST"

	// Assignment conflicts
	case errors.Is(err, service.ErrRideLocked):
		return http.StatusConflict, "LOCKED"
	case errors.Is(err, service.ErrAlreadyAssigned):
		return http.StatusConflict, "ALREADY_ASSIGNED"
	case errors.Is(err, service.ErrDriverUnavailable):
		return http.StatusConflict, "DRIVER_UNAVAILABLE"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"

	case errors.Is(err, service.ErrNotRideDriver):
		return http.StatusForbidden, "NOT_RIDE_DRIVER"

	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
