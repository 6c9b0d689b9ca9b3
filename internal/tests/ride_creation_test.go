package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"motodispatch/internal/domain"
	"motodispatch/internal/redis"
	"motodispatch/internal/service"
)

func TestCreateRide_PersistsRequestedRide(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, locationStore, _ := newRideFixture()

	// Two idle drivers nearby, no active demand: no surge.
	locationStore.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-1", Lat: 9.51, Lng: -13.71},
		{DriverID: "driver-2", Lat: 9.52, Lng: -13.72},
	})

	ride, err := svc.CreateRide(ctx, service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.ID == "" {
		t.Error("expected a generated ride ID")
	}
	if ride.Status != domain.RideStatusRequested {
		t.Errorf("expected requested, got %s", ride.Status)
	}
	if ride.DriverID != "" {
		t.Errorf("expected no driver at request time, got %q", ride.DriverID)
	}
	if ride.SurgeMultiplier != 1.0 {
		t.Errorf("expected no surge, got %v", ride.SurgeMultiplier)
	}
	// base 5000 + 5km*2000 + 12min*100 = 16200.
	if ride.EstimatedPrice != 16200 {
		t.Errorf("expected estimate 16200, got %v", ride.EstimatedPrice)
	}

	if rideRepo.CountRides() != 1 {
		t.Errorf("expected 1 persisted ride, got %d", rideRepo.CountRides())
	}
}

func TestCreateRide_AppliesSurgeToEstimate(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, locationStore, _ := newRideFixture()

	// Demand 3 against supply 2: ratio 1.5 lands in the 1.5 tier.
	rideRepo.ActiveNearCount = 3
	locationStore.SetLocations([]redis.DriverLocation{
		{DriverID: "driver-1", Lat: 9.51, Lng: -13.71},
		{DriverID: "driver-2", Lat: 9.52, Lng: -13.72},
	})

	ride, err := svc.CreateRide(ctx, service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.SurgeMultiplier != 1.5 {
		t.Errorf("expected surge 1.5, got %v", ride.SurgeMultiplier)
	}
	// 16200 * 1.5 = 24300.
	if ride.EstimatedPrice != 24300 {
		t.Errorf("expected estimate 24300, got %v", ride.EstimatedPrice)
	}
}

func TestCreateRide_SurgeLookupFailureDoesNotBlockRequest(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, _, _ := newRideFixture()

	rideRepo.CountActiveNearError = errors.New("postgres down")

	ride, err := svc.CreateRide(ctx, service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	})
	if err != nil {
		t.Fatalf("expected ride creation to survive surge failure, got %v", err)
	}
	if ride.SurgeMultiplier != 1.0 {
		t.Errorf("expected surge to degrade to 1.0, got %v", ride.SurgeMultiplier)
	}
}

func TestCreateRide_NotifiesNearbyAvailableDrivers(t *testing.T) {
	ctx := context.Background()
	svc, _, driverRepo, locationStore, sender := newRideFixture()

	// Seven drivers nearby; one of them is offline and one on a trip.
	locations := make([]redis.DriverLocation, 0, 7)
	for i := 1; i <= 7; i++ {
		id := fmt.Sprintf("driver-%d", i)
		locations = append(locations, redis.DriverLocation{DriverID: id, Lat: 9.51, Lng: -13.71})
		driver := availableDriver(id)
		switch i {
		case 2:
			driver.IsOnline = false
			driver.Status = domain.DriverStatusOffline
		case 4:
			driver.Status = domain.DriverStatusOnTrip
		}
		driverRepo.AddDriver(driver)
	}
	locationStore.SetLocations(locations)

	_, err := svc.CreateRide(ctx, service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Five eligible drivers remain, all within the notify cap.
	if !sender.WaitForCount(5, time.Second) {
		t.Fatalf("expected 5 notifications, got %d", len(sender.Sent()))
	}

	for _, n := range sender.Sent() {
		if n.Type != service.NotificationRideRequested {
			t.Errorf("expected ride_request notification, got %s", n.Type)
		}
		if n.RecipientID == "user-driver-2" || n.RecipientID == "user-driver-4" {
			t.Errorf("ineligible driver %s was notified", n.RecipientID)
		}
	}
}

func TestCreateRide_NotifyCapStopsAtFive(t *testing.T) {
	ctx := context.Background()
	svc, _, driverRepo, locationStore, sender := newRideFixture()

	locations := make([]redis.DriverLocation, 0, 9)
	for i := 1; i <= 9; i++ {
		id := fmt.Sprintf("driver-%d", i)
		locations = append(locations, redis.DriverLocation{DriverID: id, Lat: 9.51, Lng: -13.71})
		driverRepo.AddDriver(availableDriver(id))
	}
	locationStore.SetLocations(locations)

	_, err := svc.CreateRide(ctx, service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !sender.WaitForCount(5, time.Second) {
		t.Fatalf("expected 5 notifications, got %d", len(sender.Sent()))
	}
	// Give any extra dispatches a moment to land, then re-check the cap.
	time.Sleep(50 * time.Millisecond)
	if got := len(sender.Sent()); got != 5 {
		t.Errorf("expected the notify cap to hold at 5, got %d", got)
	}
}

func TestCreateRide_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newRideFixture()

	base := service.CreateRideRequest{
		CustomerID:  "customer-1",
		PickupLat:   9.5092,
		PickupLng:   -13.7122,
		DropoffLat:  9.5370,
		DropoffLng:  -13.6785,
		DistanceKm:  5,
		DurationMin: 12,
	}

	cases := []struct {
		name    string
		mutate  func(*service.CreateRideRequest)
		wantErr error
	}{
		{"missing customer", func(r *service.CreateRideRequest) { r.CustomerID = "" }, service.ErrInvalidCustomerID},
		{"bad pickup latitude", func(r *service.CreateRideRequest) { r.PickupLat = 91 }, service.ErrInvalidPickupLocation},
		{"bad dropoff longitude", func(r *service.CreateRideRequest) { r.DropoffLng = -181 }, service.ErrInvalidDropoffLocation},
		{"negative distance", func(r *service.CreateRideRequest) { r.DistanceKm = -1 }, service.ErrInvalidTripMetrics},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := svc.CreateRide(ctx, req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEstimateFare_UsesLiveSurge(t *testing.T) {
	ctx := context.Background()
	svc, rideRepo, _, locationStore, _ := newRideFixture()

	// No supply at all: the zero-supply tier applies.
	rideRepo.ActiveNearCount = 2
	locationStore.SetLocations(nil)

	breakdown, err := svc.EstimateFare(ctx, 5, 12, 9.5092, -13.7122)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if breakdown.SurgeMultiplier != 1.5 {
		t.Errorf("expected zero-supply surge 1.5, got %v", breakdown.SurgeMultiplier)
	}
	if breakdown.Total != 24300 {
		t.Errorf("expected total 24300, got %v", breakdown.Total)
	}
	if breakdown.Currency != "GNF" {
		t.Errorf("expected GNF, got %s", breakdown.Currency)
	}
}
