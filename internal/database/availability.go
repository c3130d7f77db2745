package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookline/internal/models"
	"bookline/internal/timeutil"
)

func (db *DB) CreateTemplate(ctx context.Context, tpl *models.AvailabilityTemplate) error {
	if !timeutil.ValidClock(tpl.StartTime) || !timeutil.ValidClock(tpl.EndTime) {
		return fmt.Errorf("invalid template window %s-%s", tpl.StartTime, tpl.EndTime)
	}
	query := `INSERT INTO availability_templates (provider_id, weekday, start_time, end_time)
              VALUES (?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query, tpl.ProviderID, tpl.Weekday, tpl.StartTime, tpl.EndTime)
	if err != nil {
		return fmt.Errorf("failed to create availability template: %w", err)
	}
	tpl.ID, _ = result.LastInsertId()
	return nil
}

// ListTemplatesForWeekday returns the provider's recurring open windows for
// a day of week, earliest start first.
func (db *DB) ListTemplatesForWeekday(ctx context.Context, providerID int64, weekday int) ([]*models.AvailabilityTemplate, error) {
	query := `SELECT id, provider_id, weekday, start_time, end_time
              FROM availability_templates
              WHERE provider_id = ? AND weekday = ?
              ORDER BY start_time ASC`
	rows, err := db.QueryContext(ctx, query, providerID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.AvailabilityTemplate
	for rows.Next() {
		t := &models.AvailabilityTemplate{}
		if err := rows.Scan(&t.ID, &t.ProviderID, &t.Weekday, &t.StartTime, &t.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan availability template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (db *DB) CreateOverride(ctx context.Context, ov *models.AvailabilityOverride) error {
	// Blocked overrides carry no window; open ones must have a valid one.
	if !ov.Blocked && (!timeutil.ValidClock(ov.StartTime) || !timeutil.ValidClock(ov.EndTime)) {
		return fmt.Errorf("invalid override window %s-%s", ov.StartTime, ov.EndTime)
	}
	query := `INSERT INTO availability_overrides (provider_id, date, start_time, end_time, blocked)
              VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		ov.ProviderID, ov.Date.Format("2006-01-02"), ov.StartTime, ov.EndTime, ov.Blocked)
	if err != nil {
		return fmt.Errorf("failed to create availability override: %w", err)
	}
	ov.ID, _ = result.LastInsertId()
	return nil
}

// GetOverrideForDate returns the override for the exact date, or nil when
// none exists.
func (db *DB) GetOverrideForDate(ctx context.Context, providerID int64, date time.Time) (*models.AvailabilityOverride, error) {
	query := `SELECT id, provider_id, date(date), start_time, end_time, blocked
              FROM availability_overrides
              WHERE provider_id = ? AND date(date) = date(?)`
	ov := &models.AvailabilityOverride{}
	var dateStr string
	err := db.QueryRowContext(ctx, query, providerID, date.Format("2006-01-02")).Scan(
		&ov.ID, &ov.ProviderID, &dateStr, &ov.StartTime, &ov.EndTime, &ov.Blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability override: %w", err)
	}
	ov.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse override date %s: %w", dateStr, err)
	}
	return ov, nil
}

// ProviderKnown reports whether the provider has ever declared availability
// or held a booking. Schedule reads for unknown providers fail with
// ErrNotFound instead of rendering an empty day.
func (db *DB) ProviderKnown(ctx context.Context, providerID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM availability_templates WHERE provider_id = ?)
              OR EXISTS(SELECT 1 FROM availability_overrides WHERE provider_id = ?)
              OR EXISTS(SELECT 1 FROM bookings WHERE provider_id = ?)`
	var known bool
	err := db.QueryRowContext(ctx, query, providerID, providerID, providerID).Scan(&known)
	if err != nil {
		return false, fmt.Errorf("failed to check provider: %w", err)
	}
	return known, nil
}
