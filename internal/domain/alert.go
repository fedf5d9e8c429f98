package domain

import (
	"errors"
	"time"
)

var (
	// ErrAlertNotFound is returned when an alert does not exist or does not
	// belong to the caller.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrDeviceNotOwned is returned when a reading is submitted for a device
	// that is not paired with the caller.
	ErrDeviceNotOwned = errors.New("device not found or not connected")
)

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertHighHeartRate   AlertType = "high_heart_rate"
	AlertLowSpO2         AlertType = "low_spo2"
	AlertHighTemperature AlertType = "high_temperature"
	AlertLowActivity     AlertType = "low_activity"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a persisted, user-visible health notification. At most one alert
// per (user, type) may be unresolved at any time; the store enforces this.
type Alert struct {
	ID         string
	UserID     string
	Type       AlertType
	Severity   Severity
	Message    string
	Resolved   bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Candidate is a rule-evaluation outcome that has not yet passed
// deduplication.
type Candidate struct {
	Type     AlertType
	Severity Severity
	Message  string
}
