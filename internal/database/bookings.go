package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookline/internal/models"
)

const bookingColumns = `id, customer_id, provider_id, service_id, status,
	date(scheduled_date), start_time, end_time, service_address, total_price,
	created_at, updated_at`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				customer_id, provider_id, service_id, status, scheduled_date,
				start_time, end_time, service_address, total_price,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.CustomerID,
		booking.ProviderID,
		booking.ServiceID,
		booking.Status,
		booking.ScheduledDate.Format("2006-01-02"),
		booking.StartTime,
		booking.EndTime,
		booking.ServiceAddress,
		booking.TotalPrice,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusGuarded is the compare-and-swap primitive behind every
// status transition: the write succeeds only if the stored status still
// equals from. Zero affected rows means either the booking is gone
// (ErrNotFound) or a concurrent caller transitioned it first (ErrStaleState).
func (db *DB) UpdateBookingStatusGuarded(ctx context.Context, id int64, from, to string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var current string
		err := db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read booking status: %w", err)
		}
		return ErrStaleState
	}
	return nil
}

// BookingFilter narrows ListBookings results. Zero values mean "no filter".
type BookingFilter struct {
	Statuses []string
	From     time.Time
	To       time.Time
}

// ListBookings returns bookings where partyID is the customer or the
// provider, depending on role, newest date first.
func (db *DB) ListBookings(ctx context.Context, partyID int64, role string, filter BookingFilter) ([]*models.Booking, error) {
	column := "customer_id"
	if role == models.RoleProvider {
		column = "provider_id"
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + column + ` = ?`
	args := []any{partyID}

	if len(filter.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(filter.Statuses)-1) + `)`
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if !filter.From.IsZero() {
		query += ` AND date(scheduled_date) >= date(?)`
		args = append(args, filter.From.Format("2006-01-02"))
	}
	if !filter.To.IsZero() {
		query += ` AND date(scheduled_date) <= date(?)`
		args = append(args, filter.To.Format("2006-01-02"))
	}
	query += ` ORDER BY scheduled_date DESC, start_time ASC`

	return db.queryBookings(ctx, query, args...)
}

// ListProviderDayBookings returns the provider's bookings on a date that
// still occupy time, i.e. everything except cancelled and declined.
func (db *DB) ListProviderDayBookings(ctx context.Context, providerID int64, date time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE provider_id = ? AND date(scheduled_date) = date(?)
              AND status NOT IN (?, ?)
              ORDER BY start_time ASC`
	return db.queryBookings(ctx, query,
		providerID, date.Format("2006-01-02"),
		models.StatusCancelled, models.StatusDeclined)
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var dateStr string
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, &b.Status,
		&dateStr, &b.StartTime, &b.EndTime, &b.ServiceAddress, &b.TotalPrice,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ScheduledDate, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	return b, nil
}
