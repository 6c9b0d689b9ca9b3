package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"motodispatch/internal/domain"
	"motodispatch/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

const rideColumns = `id, customer_id, driver_id, status, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, surge_multiplier, estimated_price, price_total, price_breakdown, requested_at, accepted_at, completed_at, cancelled_at, cancel_reason`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	breakdown, err := marshalBreakdown(ride.Breakdown)
	if err != nil {
		return err
	}

	// Default surge to 1.0 if not set.
	surgeMultiplier := ride.SurgeMultiplier
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}

	_, err = r.q.ExecContext(ctx, query,
		ride.ID,
		ride.CustomerID,
		nullString(ride.DriverID),
		ride.Status,
		ride.PickupLat,
		ride.PickupLng,
		ride.DropoffLat,
		ride.DropoffLng,
		surgeMultiplier,
		ride.EstimatedPrice,
		ride.PriceTotal,
		breakdown,
		ride.RequestedAt,
		nullTime(ride.AcceptedAt),
		nullTime(ride.CompletedAt),
		nullTime(ride.CancelledAt),
		nullString(ride.CancelReason),
	)

	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves recent rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY requested_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// GetByDriverID retrieves a driver's recent rides.
func (r *RideRepository) GetByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE driver_id = $1 ORDER BY requested_at DESC LIMIT $2`

	rows, err := r.q.QueryContext(ctx, query, driverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRides(rows)
}

// ConditionalUpdate applies patch only where the ride still has
// expectedStatus. The WHERE guard is the storage-level half of the
// double concurrency protection; callers check the returned row count.
func (r *RideRepository) ConditionalUpdate(ctx context.Context, id string, expectedStatus domain.RideStatus, patch repository.RidePatch) (int64, error) {
	sets := []string{"status = $1"}
	args := []any{patch.Status}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.DriverID != nil {
		appendSet("driver_id", *patch.DriverID)
	}
	if patch.AcceptedAt != nil {
		appendSet("accepted_at", *patch.AcceptedAt)
	}
	if patch.CompletedAt != nil {
		appendSet("completed_at", *patch.CompletedAt)
	}
	if patch.CancelledAt != nil {
		appendSet("cancelled_at", *patch.CancelledAt)
	}
	if patch.CancelReason != nil {
		appendSet("cancel_reason", *patch.CancelReason)
	}
	if patch.PriceTotal != nil {
		appendSet("price_total", *patch.PriceTotal)
	}
	if patch.Breakdown != nil {
		breakdown, err := marshalBreakdown(patch.Breakdown)
		if err != nil {
			return 0, err
		}
		appendSet("price_breakdown", breakdown)
	}

	args = append(args, id, expectedStatus)
	query := fmt.Sprintf(
		"UPDATE rides SET %s WHERE id = $%d AND status = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// CountActiveNear counts rides in a demand status within radiusKm of
// the given point, using a haversine distance in SQL.
func (r *RideRepository) CountActiveNear(ctx context.Context, lat, lng, radiusKm float64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rides
		WHERE status = ANY($4)
		AND 2 * 6371 * asin(sqrt(
			pow(sin(radians(pickup_lat - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(pickup_lat)) *
			pow(sin(radians(pickup_lng - $2) / 2), 2)
		)) <= $3
	`

	demand := domain.DemandStatuses()
	statuses := make([]string, len(demand))
	for i, s := range demand {
		statuses[i] = string(s)
	}

	var count int
	if err := r.q.QueryRowContext(ctx, query, lat, lng, radiusKm, pq.Array(statuses)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRide(s scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID sql.NullString
	var breakdown []byte
	var acceptedAt, completedAt, cancelledAt sql.NullTime
	var cancelReason sql.NullString

	err := s.Scan(
		&ride.ID,
		&ride.CustomerID,
		&driverID,
		&ride.Status,
		&ride.PickupLat,
		&ride.PickupLng,
		&ride.DropoffLat,
		&ride.DropoffLng,
		&ride.SurgeMultiplier,
		&ride.EstimatedPrice,
		&ride.PriceTotal,
		&breakdown,
		&ride.RequestedAt,
		&acceptedAt,
		&completedAt,
		&cancelledAt,
		&cancelReason,
	)
	if err != nil {
		return nil, err
	}

	if driverID.Valid {
		ride.DriverID = driverID.String
	}
	if acceptedAt.Valid {
		ride.AcceptedAt = acceptedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}
	if cancelReason.Valid {
		ride.CancelReason = cancelReason.String
	}
	if len(breakdown) > 0 {
		var fb domain.FareBreakdown
		if err := json.Unmarshal(breakdown, &fb); err != nil {
			return nil, err
		}
		ride.Breakdown = &fb
	}

	return &ride, nil
}

func collectRides(rows *sql.Rows) ([]*domain.Ride, error) {
	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func marshalBreakdown(fb *domain.FareBreakdown) ([]byte, error) {
	if fb == nil {
		return nil, nil
	}
	return json.Marshal(fb)
}
