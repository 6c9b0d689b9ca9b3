package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"motodispatch/internal/audit"
	"motodispatch/internal/config"
	"motodispatch/internal/domain"
	"motodispatch/internal/observability"
	"motodispatch/internal/redis"
	"motodispatch/internal/repository"
)

// RideService handles the ride lifecycle around the assignment:
// request, status advancement, completion and cancellation.
type RideService struct {
	rideRepo      repository.RideRepository
	driverRepo    repository.DriverRepository
	locationStore redis.LocationStoreInterface
	surgeService  *SurgeService
	notifications *NotificationService
	auditLog      *audit.Logger
	pricing       config.PricingConfig
	dispatch      config.DispatchConfig
	logger        *slog.Logger
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	locationStore redis.LocationStoreInterface,
	surgeService *SurgeService,
	notifications *NotificationService,
	auditLog *audit.Logger,
	pricing config.PricingConfig,
	dispatch config.DispatchConfig,
	logger *slog.Logger,
) *RideService {
	return &RideService{
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		locationStore: locationStore,
		surgeService:  surgeService,
		notifications: notifications,
		auditLog:      auditLog,
		pricing:       pricing,
		dispatch:      dispatch,
		logger:        logger,
	}
}

// CreateRideRequest contains the parameters for requesting a ride.
// Distance and duration come from the caller's route estimate.
type CreateRideRequest struct {
	CustomerID  string
	PickupLat   float64
	PickupLng   float64
	DropoffLat  float64
	DropoffLng  float64
	DistanceKm  float64
	DurationMin float64
}

// CreateRide creates a ride in the requested state, prices it with
// the live surge multiplier and notifies nearby available drivers.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	surge := s.surgeService.GetMultiplier(ctx, req.PickupLat, req.PickupLng)
	observability.SurgeMultiplier.Set(surge)

	estimate := CalculateFare(s.pricing, req.DistanceKm, req.DurationMin, surge)

	ride := &domain.Ride{
		ID:              uuid.New().String(),
		CustomerID:      req.CustomerID,
		Status:          domain.RideStatusRequested,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		DropoffLat:      req.DropoffLat,
		DropoffLng:      req.DropoffLng,
		SurgeMultiplier: surge,
		EstimatedPrice:  estimate.Total,
		RequestedAt:     time.Now(),
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	observability.RidesRequestedTotal.Inc()
	s.auditLog.LogAction("ride_requested", req.CustomerID, "ride", ride.ID, map[string]any{
		"surge_multiplier": surge,
		"estimated_price":  estimate.Total,
	})

	s.notifyNearbyDrivers(ctx, ride)

	return ride, nil
}

// notifyNearbyDrivers fans a ride-request notification out to the
// closest available drivers. Best-effort: lookup failures are logged
// and never fail the request.
func (s *RideService) notifyNearbyDrivers(ctx context.Context, ride *domain.Ride) {
	nearby, err := s.locationStore.FindNearbyDrivers(ctx, ride.PickupLat, ride.PickupLng, s.dispatch.NotifyRadiusKm)
	if err != nil {
		s.logger.Warn("nearby driver lookup failed", "ride_id", ride.ID, "error", err)
		return
	}

	notified := 0
	for _, loc := range nearby {
		if notified >= s.dispatch.NotifyDrivers {
			break
		}
		driver, err := s.driverRepo.GetByID(ctx, loc.DriverID)
		if err != nil || !driver.CanAccept() {
			continue
		}
		s.notifications.NotifyRideRequested(driver.UserID, ride)
		notified++
	}
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListRides retrieves recent rides.
func (s *RideService) ListRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rideRepo.GetAll(ctx)
}

// ListDriverRides retrieves a driver's recent rides.
func (s *RideService) ListDriverRides(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if limit <= 0 {
		limit = 50
	}
	return s.rideRepo.GetByDriverID(ctx, driverID, limit)
}

// AdvanceStatus moves an assigned ride through its lifecycle
// (arriving, started, in_progress). Only the assigned driver may
// advance the ride; the persisted change is guarded by a conditional
// update on the observed status.
func (s *RideService) AdvanceStatus(ctx context.Context, rideID, driverID string, target domain.RideStatus) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, ErrNotRideDriver
	}

	next, err := domain.NextStatus(ride.Status, target)
	if err != nil {
		return nil, err
	}

	rows, err := s.rideRepo.ConditionalUpdate(ctx, rideID, ride.Status, repository.RidePatch{Status: next})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Lost a race with a concurrent update; the observed
		// transition is no longer valid.
		return nil, domain.ErrInvalidTransition
	}

	s.auditLog.LogAction("ride_status_"+string(next), driverID, "ride", rideID, nil)

	ride.Status = next
	return ride, nil
}

// CompleteRideRequest contains the parameters for completing a ride.
type CompleteRideRequest struct {
	RideID      string
	DriverID    string
	DistanceKm  float64
	DurationMin float64
}

// CompleteRide finishes a ride: the final fare is recomputed from the
// actual distance and duration with the surge captured at request
// time, and the driver is released back to available.
func (s *RideService) CompleteRide(ctx context.Context, req CompleteRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.DistanceKm < 0 || req.DurationMin < 0 {
		return nil, ErrInvalidTripMetrics
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != req.DriverID {
		return nil, ErrNotRideDriver
	}

	next, err := domain.NextStatus(ride.Status, domain.RideStatusCompleted)
	if err != nil {
		return nil, err
	}

	breakdown := CalculateFare(s.pricing, req.DistanceKm, req.DurationMin, ride.SurgeMultiplier)
	now := time.Now()

	rows, err := s.rideRepo.ConditionalUpdate(ctx, req.RideID, ride.Status, repository.RidePatch{
		Status:      next,
		CompletedAt: &now,
		PriceTotal:  &breakdown.Total,
		Breakdown:   &breakdown,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.driverRepo.UpdateStatus(ctx, req.DriverID, domain.DriverStatusAvailable); err != nil {
		s.logger.Error("driver release failed after completion",
			"ride_id", req.RideID, "driver_id", req.DriverID, "error", err)
	}

	ride.Status = next
	ride.CompletedAt = now
	ride.PriceTotal = breakdown.Total
	ride.Breakdown = &breakdown

	observability.RidesCompletedTotal.Inc()
	s.notifications.NotifyRideCompleted(ride)
	s.auditLog.LogAction("ride_completed", req.DriverID, "ride", req.RideID, map[string]any{
		"total":        breakdown.Total,
		"driver_share": breakdown.DriverShare,
		"platform_fee": breakdown.PlatformFee,
	})

	return ride, nil
}

// CancelRideRequest contains the parameters for cancelling a ride.
type CancelRideRequest struct {
	RideID      string
	CancelledBy string
	Reason      string
}

// CancelRide cancels a ride. Cancelling a ride that is already
// cancelled is a no-op, not an error. Cancellation does not take the
// accept lock; the state machine guard is sufficient.
func (s *RideService) CancelRide(ctx context.Context, req CancelRideRequest) (*domain.Ride, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	// Idempotent: re-cancelling succeeds without touching the row.
	if ride.Status == domain.RideStatusCancelled {
		return ride, nil
	}

	next, err := domain.NextStatus(ride.Status, domain.RideStatusCancelled)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows, err := s.rideRepo.ConditionalUpdate(ctx, req.RideID, ride.Status, repository.RidePatch{
		Status:       next,
		CancelledAt:  &now,
		CancelReason: &req.Reason,
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Re-read: a concurrent cancel still counts as success.
		current, err := s.rideRepo.GetByID(ctx, req.RideID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.RideStatusCancelled {
			return current, nil
		}
		return nil, domain.ErrInvalidTransition
	}

	// Free the driver if one was already assigned.
	if ride.DriverID != "" {
		if err := s.driverRepo.UpdateStatus(ctx, ride.DriverID, domain.DriverStatusAvailable); err != nil {
			s.logger.Error("driver release failed after cancellation",
				"ride_id", req.RideID, "driver_id", ride.DriverID, "error", err)
		}
	}

	ride.Status = next
	ride.CancelledAt = now
	ride.CancelReason = req.Reason

	s.notifications.NotifyRideCancelled(ride, req.Reason)
	s.auditLog.LogAction("ride_cancelled", req.CancelledBy, "ride", req.RideID, map[string]any{
		"reason": req.Reason,
	})

	return ride, nil
}

// EstimateFare prices a prospective trip with the live surge
// multiplier at the pickup point.
func (s *RideService) EstimateFare(ctx context.Context, distanceKm, durationMin, lat, lng float64) (domain.FareBreakdown, error) {
	if distanceKm < 0 || durationMin < 0 {
		return domain.FareBreakdown{}, ErrInvalidTripMetrics
	}
	if !isValidLatitude(lat) || !isValidLongitude(lng) {
		return domain.FareBreakdown{}, ErrInvalidPickupLocation
	}

	surge := s.surgeService.GetMultiplier(ctx, lat, lng)
	observability.SurgeMultiplier.Set(surge)

	return CalculateFare(s.pricing, distanceKm, durationMin, surge), nil
}

func (s *RideService) validateCreateRequest(req CreateRideRequest) error {
	if req.CustomerID == "" {
		return ErrInvalidCustomerID
	}
	if !isValidLatitude(req.PickupLat) || !isValidLongitude(req.PickupLng) {
		return ErrInvalidPickupLocation
	}
	if !isValidLatitude(req.DropoffLat) || !isValidLongitude(req.DropoffLng) {
		return ErrInvalidDropoffLocation
	}
	if req.DistanceKm < 0 || req.DurationMin < 0 {
		return ErrInvalidTripMetrics
	}
	return nil
}
