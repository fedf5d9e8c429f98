// Package events defines the payloads exchanged between the API and the
// evaluation worker.
package events

import "time"

// EventTypeVitalsRecorded is the header value identifying a recorded-reading
// event.
const EventTypeVitalsRecorded = "vitals.recorded"

// TopicVitalsReadings is the Kafka topic carrying recorded readings, keyed
// by user id so evaluations for one user stay in order on one partition.
const TopicVitalsReadings = "vitals_readings"

// VitalsRecorded is emitted after a reading is persisted. It carries the
// full reading so the evaluator does not need to re-read it.
type VitalsRecorded struct {
	ReadingID   string    `json:"reading_id"`
	UserID      string    `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	SpO2        *float64  `json:"spo2,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Steps       *int      `json:"steps,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
