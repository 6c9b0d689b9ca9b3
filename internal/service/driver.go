package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"motodispatch/internal/audit"
	"motodispatch/internal/domain"
	"motodispatch/internal/redis"
	"motodispatch/internal/repository"
)

// DriverService handles driver registration, availability and
// location tracking.
type DriverService struct {
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	auditLog      *audit.Logger
	logger        *slog.Logger
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *DriverService {
	return &DriverService{
		driverRepo:    driverRepo,
		locationStore: locationStore,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	UserID string
	Name   string
	Phone  string
}

// RegisterDriver creates a driver profile. New drivers start offline.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.UserID == "" {
		return nil, ErrInvalidDriverID
	}

	driver := &domain.Driver{
		ID:       uuid.New().String(),
		UserID:   req.UserID,
		Name:     req.Name,
		Phone:    req.Phone,
		IsOnline: false,
		Status:   domain.DriverStatusOffline,
		LastSeen: time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		return nil, err
	}

	s.auditLog.LogAction("driver_registered", req.UserID, "driver", driver.ID, nil)
	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// ListDrivers retrieves all drivers.
func (s *DriverService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// SetAvailability toggles a driver online or offline. Going online
// makes the driver available for dispatch; going offline removes the
// driver from the geo index so surge and nearby lookups stop seeing
// them. A driver on a trip stays on_trip when toggled online again.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, online bool) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	status := domain.DriverStatusOffline
	if online {
		status = domain.DriverStatusAvailable
		if driver.Status == domain.DriverStatusOnTrip {
			status = domain.DriverStatusOnTrip
		}
	}

	now := time.Now()
	if err := s.driverRepo.UpdateAvailability(ctx, driverID, online, status, now); err != nil {
		return nil, err
	}

	if !online {
		if err := s.locationStore.RemoveLocation(ctx, driverID); err != nil {
			s.logger.Warn("geo index removal failed", "driver_id", driverID, "error", err)
		}
	}

	s.auditLog.LogAction("driver_availability", driver.UserID, "driver", driverID, map[string]any{
		"online": online,
		"status": string(status),
	})

	driver.IsOnline = online
	driver.Status = status
	driver.LastSeen = now
	return driver, nil
}

// UpdateLocation records a driver's current position in the geo index.
func (s *DriverService) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" {
		return ErrInvalidDriverID
	}
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return ErrInvalidPickupLocation
	}
	return s.locationStore.UpdateLocation(ctx, driverID, lat, lng)
}
