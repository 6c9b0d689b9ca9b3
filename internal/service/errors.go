package service

import "errors"

var (
	// ErrRideLocked is returned when another accept attempt holds the
	// ride lock. Retryable by the caller after a short backoff.
	ErrRideLocked = errors.New("ride is locked by another accept attempt")

	// ErrAlreadyAssigned is returned when the ride has left the
	// requested state. Terminal for the caller.
	ErrAlreadyAssigned = errors.New("ride already assigned")

	// ErrDriverUnavailable is returned when the accepting driver is
	// offline or not available.
	ErrDriverUnavailable = errors.New("driver unavailable")

	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are invalid.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropoffLocation is returned when dropoff coordinates are invalid.
	ErrInvalidDropoffLocation = errors.New("invalid dropoff location")

	// ErrInvalidTripMetrics is returned when completion distance or
	// duration is negative.
	ErrInvalidTripMetrics = errors.New("invalid trip distance or duration")

	// ErrNotRideDriver is returned when a lifecycle update comes from
	// a driver not assigned to the ride.
	ErrNotRideDriver = errors.New("driver not assigned to this ride")
)

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
