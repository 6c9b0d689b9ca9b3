package tests

import (
	"context"
	"errors"
	"testing"

	"motodispatch/internal/audit"
	"motodispatch/internal/domain"
	"motodispatch/internal/service"
)

func newDriverFixture() (*service.DriverService, *MockDriverRepository, *MockLocationStore) {
	logger := NewTestLogger()
	driverRepo := NewMockDriverRepository()
	locationStore := NewMockLocationStore()
	auditLog := audit.NewLogger(NewMockAuditPublisher(), logger)

	svc := service.NewDriverService(driverRepo, locationStore, auditLog, logger)
	return svc, driverRepo, locationStore
}

func TestRegisterDriver_StartsOffline(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver, err := svc.RegisterDriver(ctx, service.RegisterDriverRequest{
		UserID: "user-1",
		Name:   "Mamadou",
		Phone:  "+224620000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if driver.ID == "" {
		t.Error("expected a generated driver ID")
	}
	if driver.IsOnline {
		t.Error("expected new driver to start offline")
	}
	if driver.Status != domain.DriverStatusOffline {
		t.Errorf("expected offline status, got %s", driver.Status)
	}
	if driverRepo.GetDriver(driver.ID) == nil {
		t.Error("expected driver to be persisted")
	}
}

func TestSetAvailability_Online(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver := availableDriver("driver-1")
	driver.IsOnline = false
	driver.Status = domain.DriverStatusOffline
	driverRepo.AddDriver(driver)

	updated, err := svc.SetAvailability(ctx, "driver-1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsOnline || updated.Status != domain.DriverStatusAvailable {
		t.Errorf("expected online/available, got online=%v status=%s", updated.IsOnline, updated.Status)
	}
}

func TestSetAvailability_OfflineRemovesFromGeoIndex(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, locationStore := newDriverFixture()

	driverRepo.AddDriver(availableDriver("driver-1"))
	locationStore.UpdateLocation(ctx, "driver-1", 9.51, -13.71)

	updated, err := svc.SetAvailability(ctx, "driver-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IsOnline || updated.Status != domain.DriverStatusOffline {
		t.Errorf("expected offline, got online=%v status=%s", updated.IsOnline, updated.Status)
	}

	// The surge and nearby lookups must stop seeing the driver.
	if locationStore.HasLocation("driver-1") {
		t.Error("expected location to be removed from the geo index")
	}
}

func TestSetAvailability_OnTripDriverStaysOnTrip(t *testing.T) {
	ctx := context.Background()
	svc, driverRepo, _ := newDriverFixture()

	driver := availableDriver("driver-1")
	driver.Status = domain.DriverStatusOnTrip
	driverRepo.AddDriver(driver)

	updated, err := svc.SetAvailability(ctx, "driver-1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.DriverStatusOnTrip {
		t.Errorf("expected on_trip preserved, got %s", updated.Status)
	}
}

func TestUpdateLocation_StoresPosition(t *testing.T) {
	ctx := context.Background()
	svc, _, locationStore := newDriverFixture()

	if err := svc.UpdateLocation(ctx, "driver-1", 9.51, -13.71); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !locationStore.HasLocation("driver-1") {
		t.Error("expected location to be stored")
	}
}

func TestUpdateLocation_RejectsBadCoordinates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDriverFixture()

	if err := svc.UpdateLocation(ctx, "driver-1", 91, -13.71); !errors.Is(err, service.ErrInvalidPickupLocation) {
		t.Errorf("expected coordinate validation error, got %v", err)
	}
	if err := svc.UpdateLocation(ctx, "", 9.51, -13.71); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
}
