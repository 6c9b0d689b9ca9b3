package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusArriving   RideStatus = "arriving"
	RideStatusStarted    RideStatus = "started"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// IsActive reports whether a ride in this status occupies a driver.
func (s RideStatus) IsActive() bool {
	switch s {
	case RideStatusAccepted, RideStatusArriving, RideStatusStarted, RideStatusInProgress:
		return true
	}
	return false
}

// DemandStatuses lists the statuses that count as open demand for
// surge pricing. Unlike IsActive it includes requested: a rider still
// waiting for a driver is demand pressure too.
func DemandStatuses() []RideStatus {
	return []RideStatus{
		RideStatusRequested,
		RideStatusAccepted,
		RideStatusArriving,
		RideStatusStarted,
		RideStatusInProgress,
	}
}

// Ride represents a ride request in the system.
// DriverID is empty until the ride is accepted; once set it never changes.
type Ride struct {
	ID              string
	CustomerID      string
	DriverID        string
	Status          RideStatus
	PickupLat       float64
	PickupLng       float64
	DropoffLat      float64
	DropoffLng      float64
	SurgeMultiplier float64
	EstimatedPrice  float64
	PriceTotal      float64
	Breakdown       *FareBreakdown
	RequestedAt     time.Time
	AcceptedAt      time.Time
	CompletedAt     time.Time
	CancelledAt     time.Time
	CancelReason    string
}
