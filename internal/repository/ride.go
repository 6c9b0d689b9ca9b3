package repository

import (
	"context"
	"time"

	"motodispatch/internal/domain"
)

// RidePatch is the set of fields a conditional ride update may touch.
// Nil pointers are left unchanged. Status is always part of the patch:
// every persisted status change goes through the state machine first.
type RidePatch struct {
	Status       domain.RideStatus
	DriverID     *string
	AcceptedAt   *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
	PriceTotal   *float64
	Breakdown    *domain.FareBreakdown
}

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// GetByDriverID retrieves a driver's recent rides.
	GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error)

	// ConditionalUpdate applies patch only if the ride still has
	// expectedStatus, and reports the number of rows affected. Zero
	// rows means the precondition no longer held.
	ConditionalUpdate(ctx context.Context, id string, expectedStatus domain.RideStatus, patch RidePatch) (int64, error)

	// CountActiveNear counts rides in an active status within
	// radiusKm of the given point.
	CountActiveNear(ctx context.Context, lat, lng, radiusKm float64) (int, error)
}
