package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"motodispatch/internal/domain"
	"motodispatch/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// Create persists a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, name, phone, is_online, status, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		driver.Name,
		driver.Phone,
		driver.IsOnline,
		driver.Status,
		nullTime(driver.LastSeen),
	)

	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT id, user_id, name, phone, is_online, status, last_seen
		FROM drivers WHERE id = $1
	`

	var driver domain.Driver
	var lastSeen sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.UserID,
		&driver.Name,
		&driver.Phone,
		&driver.IsOnline,
		&driver.Status,
		&lastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if lastSeen.Valid {
		driver.LastSeen = lastSeen.Time
	}

	return &driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `
		SELECT id, user_id, name, phone, is_online, status, last_seen
		FROM drivers ORDER BY name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&driver.ID,
			&driver.UserID,
			&driver.Name,
			&driver.Phone,
			&driver.IsOnline,
			&driver.Status,
			&lastSeen,
		); err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			driver.LastSeen = lastSeen.Time
		}
		drivers = append(drivers, &driver)
	}
	return drivers, rows.Err()
}

// UpdateStatus sets a driver's dispatch status.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateAvailability toggles a driver online or offline.
func (r *DriverRepository) UpdateAvailability(ctx context.Context, id string, isOnline bool, status domain.DriverStatus, lastSeen time.Time) error {
	query := `UPDATE drivers SET is_online = $1, status = $2, last_seen = $3 WHERE id = $4`

	result, err := r.q.ExecContext(ctx, query, isOnline, status, lastSeen, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
