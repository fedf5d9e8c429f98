package domain

import (
	"context"
	"time"
)

// ReadingStore persists and queries the append-only vitals time series.
type ReadingStore interface {
	InsertReading(ctx context.Context, r Reading) error
	LatestReading(ctx context.Context, userID string) (*Reading, error)
	// ReadingsSince returns readings recorded at or after since, newest first.
	ReadingsSince(ctx context.Context, userID string, since time.Time) ([]Reading, error)
	// RecentHeartRates returns the most recent non-nil heart rates for the
	// user, newest first, at most limit values.
	RecentHeartRates(ctx context.Context, userID string, limit int) ([]int, error)
	// StepsSince sums the steps recorded at or after since (0 when none).
	StepsSince(ctx context.Context, userID string, since time.Time) (int, error)
	Summary(ctx context.Context, userID string, since time.Time) (VitalsSummary, error)
}

// AlertStore persists alerts and enforces the at-most-one-open-alert
// invariant per (user, type) at the storage layer.
type AlertStore interface {
	// CreateAlert inserts the alert unless an unresolved alert of the same
	// (user, type) already exists, in which case it reports created=false
	// and leaves the existing row untouched.
	CreateAlert(ctx context.Context, a Alert) (created bool, err error)
	HasOpenAlert(ctx context.Context, userID string, t AlertType) (bool, error)
	// ListAlerts returns the user's alerts newest first, optionally filtered
	// by resolved status.
	ListAlerts(ctx context.Context, userID string, resolved *bool) ([]Alert, error)
	CountOpenAlerts(ctx context.Context, userID string) (int, error)
	// ResolveAlert marks the alert resolved and reports whether a row
	// belonging to the user was found.
	ResolveAlert(ctx context.Context, userID, alertID string, at time.Time) (bool, error)
}

// PreferenceStore reads and writes notification toggles. GetPreferences
// returns (nil, nil) when the user has no row.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (*Preferences, error)
	UpsertPreferences(ctx context.Context, p Preferences) error
}

// ProfileStore reads the demographic fields owned by the account subsystem.
// GetProfile returns (nil, nil) when the user is unknown.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// DeviceStore answers pairing-ownership checks for ingestion.
type DeviceStore interface {
	DeviceOwned(ctx context.Context, userID, deviceID string) (bool, error)
}

// EvaluationTrigger hands a persisted reading off for asynchronous alert
// evaluation. The contract is fire-and-forget: no ordering relative to the
// ingestion response, no retry, errors logged only.
type EvaluationTrigger interface {
	TriggerEvaluation(ctx context.Context, r Reading) error
}
