package tests

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"motodispatch/internal/audit"
	"motodispatch/internal/domain"
	"motodispatch/internal/redis"
	"motodispatch/internal/repository"
	"motodispatch/internal/service"
)

// NewTestLogger returns a logger that discards all output.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount            int32
	ConditionalUpdateCallCount int32

	// Error injection
	CreateError            error
	ConditionalUpdateError error
	CountActiveNearError   error

	// Fixed demand count for surge tests
	ActiveNearCount int
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockRideRepository) GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.DriverID == driverID {
			copy := *r
			result = append(result, &copy)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// ConditionalUpdate applies the patch only while the stored status
// still equals expectedStatus. The check and write happen under one
// mutex hold, mirroring the atomicity of the SQL UPDATE it stands for.
func (m *MockRideRepository) ConditionalUpdate(ctx context.Context, id string, expectedStatus domain.RideStatus, patch repository.RidePatch) (int64, error) {
	atomic.AddInt32(&m.ConditionalUpdateCallCount, 1)
	if m.ConditionalUpdateError != nil {
		return 0, m.ConditionalUpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ride, ok := m.rides[id]
	if !ok || ride.Status != expectedStatus {
		return 0, nil
	}

	ride.Status = patch.Status
	if patch.DriverID != nil {
		ride.DriverID = *patch.DriverID
	}
	if patch.AcceptedAt != nil {
		ride.AcceptedAt = *patch.AcceptedAt
	}
	if patch.CompletedAt != nil {
		ride.CompletedAt = *patch.CompletedAt
	}
	if patch.CancelledAt != nil {
		ride.CancelledAt = *patch.CancelledAt
	}
	if patch.CancelReason != nil {
		ride.CancelReason = *patch.CancelReason
	}
	if patch.PriceTotal != nil {
		ride.PriceTotal = *patch.PriceTotal
	}
	if patch.Breakdown != nil {
		b := *patch.Breakdown
		ride.Breakdown = &b
	}
	return 1, nil
}

func (m *MockRideRepository) CountActiveNear(ctx context.Context, lat, lng, radiusKm float64) (int, error) {
	if m.CountActiveNearError != nil {
		return 0, m.CountActiveNearError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ActiveNearCount, nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		copy := *d
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) UpdateAvailability(ctx context.Context, id string, isOnline bool, status domain.DriverStatus, lastSeen time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.IsOnline = isOnline
	driver.Status = status
	driver.LastSeen = lastSeen
	return nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.DriverLocation

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError     error
	FindNearbyDriversError  error
	CountNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.DriverLocation, 0),
	}
}

// SetLocations sets all locations (for test setup).
func (m *MockLocationStore) SetLocations(locations []redis.DriverLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations = locations
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Update existing or add new.
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations[i].Lat = lat
			m.locations[i].Lng = lng
			return nil
		}
	}
	m.locations = append(m.locations, redis.DriverLocation{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
	})
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redis.DriverLocation, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Return all locations (mock doesn't do real geo filtering).
	result := make([]redis.DriverLocation, len(m.locations))
	copy(result, m.locations)
	return result, nil
}

func (m *MockLocationStore) CountNearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) (int, error) {
	if m.CountNearbyDriversError != nil {
		return 0, m.CountNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.locations), nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.DriverID == driverID {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasLocation checks if a driver location exists.
func (m *MockLocationStore) HasLocation(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.DriverID == driverID {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

type mockLock struct {
	owner  string
	expiry time.Time
}

// MockLockStore is a mock implementation of LockStoreInterface with
// the same owner and expiry semantics as the Redis store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) Acquire(ctx context.Context, resourceType, resourceID, owner string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:" + resourceType + ":" + resourceID
	if lock, exists := m.locks[key]; exists && time.Now().Before(lock.expiry) {
		return false, nil // Lock still held.
	}

	m.locks[key] = mockLock{owner: owner, expiry: time.Now().Add(ttl)}
	return true, nil
}

// Release deletes the lock only if owner still holds it. A release by
// a different owner is a no-op, like the Lua compare-and-delete.
func (m *MockLockStore) Release(ctx context.Context, resourceType, resourceID, owner string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()

	key := "lock:" + resourceType + ":" + resourceID
	if lock, exists := m.locks[key]; exists && lock.owner == owner {
		delete(m.locks, key)
	}
	return nil
}

// IsLocked checks if a resource is locked (for test assertions).
func (m *MockLockStore) IsLocked(resourceType, resourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, exists := m.locks["lock:"+resourceType+":"+resourceID]
	return exists && time.Now().Before(lock.expiry)
}

// HoldLock places a live lock directly (for test setup).
func (m *MockLockStore) HoldLock(resourceType, resourceID, owner string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := "lock:" + resourceType + ":" + resourceID
	m.locks[key] = mockLock{owner: owner, expiry: time.Now().Add(ttl)}
}

// ──────────────────────────────────────────────
// MOCK NOTIFICATION SENDER
// ──────────────────────────────────────────────

// MockNotificationSender records every notification it is asked to send.
type MockNotificationSender struct {
	mu   sync.Mutex
	sent []service.Notification

	// Error injection
	SendError error
}

// NewMockNotificationSender creates a new mock notification sender.
func NewMockNotificationSender() *MockNotificationSender {
	return &MockNotificationSender{}
}

func (m *MockNotificationSender) Send(ctx context.Context, n service.Notification) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns a copy of the recorded notifications.
func (m *MockNotificationSender) Sent() []service.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]service.Notification, len(m.sent))
	copy(result, m.sent)
	return result
}

// WaitForCount polls until count notifications were sent or the
// timeout expires. Delivery is asynchronous, so tests must wait.
func (m *MockNotificationSender) WaitForCount(count int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		n := len(m.sent)
		m.mu.Unlock()
		if n >= count {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK AUDIT PUBLISHER
// ──────────────────────────────────────────────

// MockAuditPublisher records published audit records.
type MockAuditPublisher struct {
	mu      sync.Mutex
	records []audit.Record
}

// NewMockAuditPublisher creates a new mock audit publisher.
func NewMockAuditPublisher() *MockAuditPublisher {
	return &MockAuditPublisher{}
}

func (m *MockAuditPublisher) Publish(ctx context.Context, rec audit.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *MockAuditPublisher) Close() error {
	return nil
}

// Records returns a copy of the published records.
func (m *MockAuditPublisher) Records() []audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]audit.Record, len(m.records))
	copy(result, m.records)
	return result
}
