package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"motodispatch/internal/audit"
	"motodispatch/internal/domain"
	"motodispatch/internal/observability"
	"motodispatch/internal/redis"
	"motodispatch/internal/repository"
)

const (
	lockResourceRide   = "ride"
	lockResourceDriver = "driver"
)

// AssignmentService serializes competing accept attempts for a ride
// and performs the assignment. Two independent guards protect against
// double assignment of a ride: the ride lock, and the storage-level
// conditional update. Either alone is sufficient for correctness.
// A driver lock additionally holds a driver to one active ride when
// the same driver accepts across different rides at once.
type AssignmentService struct {
	lockStore     redis.LockStoreInterface
	rideRepo      repository.RideRepository
	driverRepo    repository.DriverRepository
	notifications *NotificationService
	auditLog      *audit.Logger
	lockTTL       time.Duration
	logger        *slog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	lockStore redis.LockStoreInterface,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	notifications *NotificationService,
	auditLog *audit.Logger,
	lockTTL time.Duration,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		lockStore:     lockStore,
		rideRepo:      rideRepo,
		driverRepo:    driverRepo,
		notifications: notifications,
		auditLog:      auditLog,
		lockTTL:       lockTTL,
		logger:        logger,
	}
}

// Accept assigns the ride to the driver. Exactly one of N concurrent
// calls for the same ride succeeds; the rest observe ErrRideLocked or
// ErrAlreadyAssigned. Losers never block: the lock fails fast and the
// caller decides its own retry policy.
func (s *AssignmentService) Accept(ctx context.Context, rideID, driverID, actorID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	start := time.Now()
	ride, err := s.accept(ctx, rideID, driverID, actorID)
	observability.AcceptLatency.Observe(time.Since(start).Seconds())
	observability.AcceptAttemptsTotal.WithLabelValues(acceptOutcome(err)).Inc()
	return ride, err
}

func (s *AssignmentService) accept(ctx context.Context, rideID, driverID, actorID string) (*domain.Ride, error) {
	owner := "driver:" + driverID

	locked, err := s.lockStore.Acquire(ctx, lockResourceRide, rideID, owner, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire ride lock: %w", err)
	}
	if !locked {
		return nil, ErrRideLocked
	}
	// Released on every exit path; a crash in between is bounded by
	// the lock TTL.
	defer func() {
		if err := s.lockStore.Release(ctx, lockResourceRide, rideID, owner); err != nil {
			s.logger.Warn("ride lock release failed", "ride_id", rideID, "error", err)
		}
	}()

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusRequested {
		return nil, ErrAlreadyAssigned
	}

	// The ride lock cannot serialize the same driver accepting two
	// different rides; the driver lock covers the window between the
	// availability read and the on_trip flip.
	held, err := s.lockStore.Acquire(ctx, lockResourceDriver, driverID, owner, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire driver lock: %w", err)
	}
	if !held {
		return nil, ErrDriverUnavailable
	}
	defer func() {
		if err := s.lockStore.Release(ctx, lockResourceDriver, driverID, owner); err != nil {
			s.logger.Warn("driver lock release failed", "driver_id", driverID, "error", err)
		}
	}()

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.CanAccept() {
		return nil, ErrDriverUnavailable
	}

	next, err := domain.NextStatus(ride.Status, domain.RideStatusAccepted)
	if err != nil {
		return nil, err
	}

	// Second concurrency guard, independent of the lock: the update
	// applies only while the row is still in requested.
	now := time.Now()
	rows, err := s.rideRepo.ConditionalUpdate(ctx, rideID, domain.RideStatusRequested, repository.RidePatch{
		Status:     next,
		DriverID:   &driverID,
		AcceptedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("assign ride: %w", err)
	}
	if rows == 0 {
		return nil, ErrAlreadyAssigned
	}

	if err := s.driverRepo.UpdateStatus(ctx, driverID, domain.DriverStatusOnTrip); err != nil {
		// The assignment itself is committed; the driver row is
		// reconciled by the next availability update.
		s.logger.Error("driver status update failed after assignment",
			"ride_id", rideID, "driver_id", driverID, "error", err)
	}

	ride.Status = next
	ride.DriverID = driverID
	ride.AcceptedAt = now

	s.notifications.NotifyRideAccepted(ride)
	s.auditLog.LogAction("ride_accepted", actorID, "ride", rideID, map[string]any{
		"driver_id": driverID,
	})

	return ride, nil
}

func acceptOutcome(err error) string {
	switch err {
	case nil:
		return observability.OutcomeAssigned
	case ErrRideLocked:
		return observability.OutcomeLocked
	case ErrAlreadyAssigned:
		return observability.OutcomeAlreadyAssigned
	case ErrDriverUnavailable:
		return observability.OutcomeDriverUnavailable
	default:
		return observability.OutcomeError
	}
}
