// Package postgres provides pgx-backed persistence for readings, alerts,
// preferences, and the read-only profile and device lookups.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// Repository implements the domain persistence ports over a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const readingColumns = `id, user_id, device_id, heart_rate, spo2, temperature, steps, recorded_at`

// InsertReading appends a reading to the vitals time series. Rows are never
// updated or deleted.
func (r *Repository) InsertReading(ctx context.Context, reading domain.Reading) error {
	const stmt = `INSERT INTO vitals (id, user_id, device_id, heart_rate, spo2, temperature, steps, recorded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, stmt,
		reading.ID,
		reading.UserID,
		reading.DeviceID,
		reading.HeartRate,
		reading.SpO2,
		reading.Temperature,
		reading.Steps,
		reading.RecordedAt,
	)
	return err
}

// LatestReading returns the user's most recent reading, or nil.
func (r *Repository) LatestReading(ctx context.Context, userID string) (*domain.Reading, error) {
	query := fmt.Sprintf(`SELECT %s FROM vitals WHERE user_id=$1 ORDER BY recorded_at DESC LIMIT 1`, readingColumns)

	row := r.pool.QueryRow(ctx, query, userID)
	reading, err := scanReading(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

// ReadingsSince returns readings recorded at or after since, newest first.
func (r *Repository) ReadingsSince(ctx context.Context, userID string, since time.Time) ([]domain.Reading, error) {
	query := fmt.Sprintf(`SELECT %s FROM vitals WHERE user_id=$1 AND recorded_at >= $2 ORDER BY recorded_at DESC`, readingColumns)

	rows, err := r.pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reading)
	}
	return out, rows.Err()
}

// RecentHeartRates returns the most recent non-null heart rates, newest
// first. The sustained-condition rule depends on this ordering.
func (r *Repository) RecentHeartRates(ctx context.Context, userID string, limit int) ([]int, error) {
	const query = `SELECT heart_rate FROM vitals
        WHERE user_id=$1 AND heart_rate IS NOT NULL
        ORDER BY recorded_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int, 0, limit)
	for rows.Next() {
		var bpm int
		if err := rows.Scan(&bpm); err != nil {
			return nil, err
		}
		out = append(out, bpm)
	}
	return out, rows.Err()
}

// StepsSince sums steps recorded at or after since.
func (r *Repository) StepsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `SELECT COALESCE(SUM(steps), 0) FROM vitals
        WHERE user_id=$1 AND recorded_at >= $2`

	var total int
	if err := r.pool.QueryRow(ctx, query, userID, since).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Summary aggregates readings within the window.
func (r *Repository) Summary(ctx context.Context, userID string, since time.Time) (domain.VitalsSummary, error) {
	const query = `SELECT
        COALESCE(ROUND(AVG(heart_rate)), 0)::int,
        COALESCE(MIN(heart_rate), 0),
        COALESCE(MAX(heart_rate), 0),
        COALESCE(ROUND(AVG(spo2)::numeric, 1), 0)::float8,
        COALESCE(ROUND(AVG(temperature)::numeric, 1), 0)::float8,
        COALESCE(SUM(steps), 0)::int
        FROM vitals WHERE user_id=$1 AND recorded_at >= $2`

	var summary domain.VitalsSummary
	err := r.pool.QueryRow(ctx, query, userID, since).Scan(
		&summary.AvgHeartRate,
		&summary.MinHeartRate,
		&summary.MaxHeartRate,
		&summary.AvgSpO2,
		&summary.AvgTemperature,
		&summary.TotalSteps,
	)
	return summary, err
}

// CreateAlert inserts an open alert. The partial unique index on
// (user_id, alert_type) WHERE NOT resolved makes the check-and-insert
// atomic: a concurrent duplicate lands on the conflict path and is reported
// as created=false, leaving the existing row untouched.
func (r *Repository) CreateAlert(ctx context.Context, a domain.Alert) (bool, error) {
	const stmt = `INSERT INTO alerts (id, user_id, alert_type, severity, message, resolved, created_at)
        VALUES ($1,$2,$3,$4,$5,false,$6)
        ON CONFLICT (user_id, alert_type) WHERE NOT resolved DO NOTHING`

	tag, err := r.pool.Exec(ctx, stmt,
		a.ID,
		a.UserID,
		a.Type,
		a.Severity,
		a.Message,
		a.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// HasOpenAlert reports whether an unresolved alert of the given type exists.
func (r *Repository) HasOpenAlert(ctx context.Context, userID string, t domain.AlertType) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM alerts WHERE user_id=$1 AND alert_type=$2 AND NOT resolved)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, t).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListAlerts returns the user's alerts newest first, optionally filtered by
// resolved status.
func (r *Repository) ListAlerts(ctx context.Context, userID string, resolved *bool) ([]domain.Alert, error) {
	query := `SELECT id, user_id, alert_type, severity, message, resolved, created_at, resolved_at
        FROM alerts WHERE user_id=$1`
	args := []interface{}{userID}

	if resolved != nil {
		query += ` AND resolved=$2`
		args = append(args, *resolved)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Severity, &a.Message, &a.Resolved, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountOpenAlerts counts the user's unresolved alerts.
func (r *Repository) CountOpenAlerts(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM alerts WHERE user_id=$1 AND NOT resolved`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ResolveAlert marks the alert resolved. The user_id predicate doubles as
// the ownership check; zero rows affected means not found or foreign.
func (r *Repository) ResolveAlert(ctx context.Context, userID, alertID string, at time.Time) (bool, error) {
	const stmt = `UPDATE alerts SET resolved=true, resolved_at=$3
        WHERE id=$1 AND user_id=$2`

	tag, err := r.pool.Exec(ctx, stmt, alertID, userID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetPreferences returns the user's notification toggles, or nil when no
// row exists. Callers treat both outcomes identically to an all-true row
// only through domain-level fail-open resolution.
func (r *Repository) GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	const query = `SELECT user_id, high_heart_rate_enabled, low_spo2_enabled, inactivity_enabled, updated_at
        FROM notification_preferences WHERE user_id=$1`

	var p domain.Preferences
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.HighHeartRateEnabled,
		&p.LowSpO2Enabled,
		&p.InactivityEnabled,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpsertPreferences stores the toggles, one row per user.
func (r *Repository) UpsertPreferences(ctx context.Context, p domain.Preferences) error {
	const stmt = `INSERT INTO notification_preferences (user_id, high_heart_rate_enabled, low_spo2_enabled, inactivity_enabled, updated_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id) DO UPDATE SET
            high_heart_rate_enabled = EXCLUDED.high_heart_rate_enabled,
            low_spo2_enabled = EXCLUDED.low_spo2_enabled,
            inactivity_enabled = EXCLUDED.inactivity_enabled,
            updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, stmt,
		p.UserID,
		p.HighHeartRateEnabled,
		p.LowSpO2Enabled,
		p.InactivityEnabled,
		p.UpdatedAt,
	)
	return err
}

// GetProfile reads the demographic fields, or nil for an unknown user.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	const query = `SELECT id, birth_date, gender FROM users WHERE id=$1`

	var p domain.Profile
	var gender *string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.BirthDate, &gender)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if gender != nil {
		p.Gender = domain.Gender(*gender)
	}
	return &p, nil
}

// DeviceOwned reports whether the device is paired with the user.
func (r *Repository) DeviceOwned(ctx context.Context, userID, deviceID string) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM devices WHERE user_id=$1 AND device_id=$2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, deviceID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanReading(row pgx.Row) (*domain.Reading, error) {
	var reading domain.Reading
	if err := row.Scan(
		&reading.ID,
		&reading.UserID,
		&reading.DeviceID,
		&reading.HeartRate,
		&reading.SpO2,
		&reading.Temperature,
		&reading.Steps,
		&reading.RecordedAt,
	); err != nil {
		return nil, err
	}
	return &reading, nil
}
