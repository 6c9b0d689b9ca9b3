package repository

import (
	"context"
	"time"

	"motodispatch/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create persists a new driver.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetAll retrieves all drivers.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// UpdateStatus sets a driver's dispatch status.
	UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error

	// UpdateAvailability toggles a driver online or offline.
	UpdateAvailability(ctx context.Context, id string, isOnline bool, status domain.DriverStatus, lastSeen time.Time) error
}
