package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"motodispatch/internal/audit"
	"motodispatch/internal/config"
	"motodispatch/internal/domain"
	"motodispatch/internal/service"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		BaseFare:              5000,
		PerKmRate:             2000,
		PerMinuteRate:         100,
		MinimumFare:           7000,
		DriverCommissionPct:   85,
		PlatformCommissionPct: 15,
		BaseSurgeMultiplier:   1.0,
		Currency:              "GNF",
	}
}

func newRideFixture() (*service.RideService, *MockRideRepository, *MockDriverRepository, *MockLocationStore, *MockNotificationSender) {
	logger := NewTestLogger()
	rideRepo := NewMockRideRepository()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	sender := NewMockNotificationSender()
	notifications := service.NewNotificationService(sender, logger)
	auditLog := audit.NewLogger(NewMockAuditPublisher(), logger)
	surgeService := service.NewSurgeService(locationStore, rideRepo, config.SurgeConfig{RadiusKm: 5}, logger)

	dispatch := config.DispatchConfig{
		RideLockTTL:    30 * time.Second,
		NotifyDrivers:  5,
		NotifyRadiusKm: 5,
	}

	svc := service.NewRideService(rideRepo, driverRepo, locationStore, surgeService, notifications, auditLog, testPricing(), dispatch, logger)
	return svc, rideRepo, driverRepo, locationStore, sender
}

func assignedRide(id, driverID string, status domain.RideStatus) *domain.Ride {
	return &domain.Ride{
		ID:              id,
		CustomerID:      "customer-1",
		DriverID:        driverID,
		Status:          status,
		SurgeMultiplier: 1.0,
		RequestedAt:     time.Now(),
		AcceptedAt:      time.Now(),
	}
}

func TestAdvanceStatus_WalksTheLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusAccepted))

	steps := []domain.RideStatus{
		domain.RideStatusArriving,
		domain.RideStatusStarted,
		domain.RideStatusInProgress,
	}
	for _, target := range steps {
		ride, err := svc.AdvanceStatus(ctx, "ride-1", "driver-1", target)
		if err != nil {
			t.Fatalf("advance to %s failed: %v", target, err)
		}
		if ride.Status != target {
			t.Fatalf("expected %s, got %s", target, ride.Status)
		}
	}

	if rideRepo.GetRide("ride-1").Status != domain.RideStatusInProgress {
		t.Errorf("expected persisted status in_progress, got %s", rideRepo.GetRide("ride-1").Status)
	}
}

func TestAdvanceStatus_RejectsSkippedStep(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusAccepted))

	_, err := svc.AdvanceStatus(ctx, "ride-1", "driver-1", domain.RideStatusInProgress)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAdvanceStatus_OnlyAssignedDriver(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusAccepted))

	_, err := svc.AdvanceStatus(ctx, "ride-1", "driver-2", domain.RideStatusArriving)
	if !errors.Is(err, service.ErrNotRideDriver) {
		t.Fatalf("expected ErrNotRideDriver, got %v", err)
	}
	if rideRepo.GetRide("ride-1").Status != domain.RideStatusAccepted {
		t.Error("expected ride status unchanged")
	}
}

func TestCompleteRide_RecomputesFinalFare(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, driverRepo, _, sender := newRideFixture()

	ride := assignedRide("ride-1", "driver-1", domain.RideStatusInProgress)
	ride.SurgeMultiplier = 1.5
	ride.EstimatedPrice = 16200
	rideRepo.AddRide(ride)

	driver := availableDriver("driver-1")
	driver.Status = domain.DriverStatusOnTrip
	driverRepo.AddDriver(driver)

	// Actual trip was longer than the estimate: 6 km, 15 minutes.
	// subtotal = 5000 + 12000 + 1500 = 18500, total = 18500 * 1.5 = 27750.
	completed, err := svc.CompleteRide(ctx, service.CompleteRideRequest{
		RideID:      "ride-1",
		DriverID:    "driver-1",
		DistanceKm:  6,
		DurationMin: 15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completed.Status != domain.RideStatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.PriceTotal != 27750 {
		t.Errorf("expected total 27750, got %v", completed.PriceTotal)
	}
	if completed.Breakdown == nil {
		t.Fatal("expected a persisted breakdown")
	}
	if completed.Breakdown.SurgeMultiplier != 1.5 {
		t.Errorf("expected the surge captured at request time, got %v", completed.Breakdown.SurgeMultiplier)
	}
	if got := completed.Breakdown.DriverShare + completed.Breakdown.PlatformFee; got != completed.PriceTotal {
		t.Errorf("split does not sum to total: %v != %v", got, completed.PriceTotal)
	}
	if completed.CompletedAt.IsZero() {
		t.Error("expected completed_at to be set")
	}

	// The driver is available again.
	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusAvailable {
		t.Errorf("expected driver available, got %s", driverRepo.GetDriver("driver-1").Status)
	}

	if !sender.WaitForCount(1, time.Second) {
		t.Fatal("expected a completion notification")
	}
	if sender.Sent()[0].Type != service.NotificationRideCompleted {
		t.Errorf("expected ride_completed notification, got %s", sender.Sent()[0].Type)
	}
}

func TestCompleteRide_RequiresInProgress(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, driverRepo, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusAccepted))
	driverRepo.AddDriver(availableDriver("driver-1"))

	_, err := svc.CompleteRide(ctx, service.CompleteRideRequest{
		RideID:      "ride-1",
		DriverID:    "driver-1",
		DistanceKm:  6,
		DurationMin: 15,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteRide_OnlyAssignedDriver(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusInProgress))

	_, err := svc.CompleteRide(ctx, service.CompleteRideRequest{
		RideID:      "ride-1",
		DriverID:    "driver-2",
		DistanceKm:  6,
		DurationMin: 15,
	})
	if !errors.Is(err, service.ErrNotRideDriver) {
		t.Fatalf("expected ErrNotRideDriver, got %v", err)
	}
}

func TestCancelRide_FromRequested(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, sender := newRideFixture()

	rideRepo.AddRide(requestedRide("ride-1"))

	cancelled, err := svc.CancelRide(ctx, service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: "customer-1",
		Reason:      "changed my mind",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.RideStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "changed my mind" {
		t.Errorf("expected reason recorded, got %q", cancelled.CancelReason)
	}
	if cancelled.CancelledAt.IsZero() {
		t.Error("expected cancelled_at to be set")
	}

	if !sender.WaitForCount(1, time.Second) {
		t.Fatal("expected a cancellation notification")
	}
}

func TestCancelRide_ReleasesAssignedDriver(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, driverRepo, _, _ := newRideFixture()

	rideRepo.AddRide(assignedRide("ride-1", "driver-1", domain.RideStatusArriving))
	driver := availableDriver("driver-1")
	driver.Status = domain.DriverStatusOnTrip
	driverRepo.AddDriver(driver)

	if _, err := svc.CancelRide(ctx, service.CancelRideRequest{RideID: "ride-1", CancelledBy: "customer-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if driverRepo.GetDriver("driver-1").Status != domain.DriverStatusAvailable {
		t.Errorf("expected driver available after cancellation, got %s", driverRepo.GetDriver("driver-1").Status)
	}
}

func TestCancelRide_IdempotentOnCancelled(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	ride := requestedRide("ride-1")
	ride.Status = domain.RideStatusCancelled
	ride.CancelReason = "first reason"
	rideRepo.AddRide(ride)

	got, err := svc.CancelRide(ctx, service.CancelRideRequest{
		RideID:      "ride-1",
		CancelledBy: "customer-1",
		Reason:      "second reason",
	})
	if err != nil {
		t.Fatalf("expected re-cancel to succeed, got %v", err)
	}
	// The original cancellation is untouched.
	if got.CancelReason != "first reason" {
		t.Errorf("expected original reason preserved, got %q", got.CancelReason)
	}
}

func TestCancelRide_RejectsCompletedRide(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	ride := assignedRide("ride-1", "driver-1", domain.RideStatusCompleted)
	rideRepo.AddRide(ride)

	_, err := svc.CancelRide(ctx, service.CancelRideRequest{RideID: "ride-1", CancelledBy: "customer-1"})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
