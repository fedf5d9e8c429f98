// Package domain defines the business logic for the vitals service.
package domain

import "time"

// Gender values accepted on user profiles.
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Profile is the read-only slice of the account record this service needs
// for baseline computation.
type Profile struct {
	UserID    string
	BirthDate *time.Time
	Gender    Gender
}

// Reading is an immutable vitals sample reported by a paired device. All
// measurement fields are optional; a nil pointer means the device did not
// report that channel in this sample.
type Reading struct {
	ID          string
	UserID      string
	DeviceID    string
	HeartRate   *int
	SpO2        *float64
	Temperature *float64
	Steps       *int
	RecordedAt  time.Time
}

// VitalsSummary aggregates readings over a time window.
type VitalsSummary struct {
	AvgHeartRate   int
	MinHeartRate   int
	MaxHeartRate   int
	AvgSpO2        float64
	AvgTemperature float64
	TotalSteps     int
}

// Preferences holds per-user notification toggles. A missing row is
// equivalent to all toggles enabled.
type Preferences struct {
	UserID               string
	HighHeartRateEnabled bool
	LowSpO2Enabled       bool
	InactivityEnabled    bool
	UpdatedAt            time.Time
}

// DefaultPreferences returns the fail-open all-enabled defaults.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:               userID,
		HighHeartRateEnabled: true,
		LowSpO2Enabled:       true,
		InactivityEnabled:    true,
	}
}
