package domain

import "time"

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "offline"
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusOnTrip    DriverStatus = "on_trip"
)

// Driver represents a driver in the system.
// A driver holds at most one active ride; the assignment coordinator
// enforces this by flipping Status to on_trip atomically with the
// ride assignment.
type Driver struct {
	ID       string
	UserID   string
	Name     string
	Phone    string
	IsOnline bool
	Status   DriverStatus
	LastSeen time.Time
}

// CanAccept reports whether the driver may take a new ride.
func (d *Driver) CanAccept() bool {
	return d.IsOnline && d.Status == DriverStatusAvailable
}
