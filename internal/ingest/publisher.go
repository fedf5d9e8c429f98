// Package ingest publishes recorded readings for asynchronous evaluation.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/events"
)

// Publisher writes vitals.recorded events to Kafka. It satisfies
// domain.EvaluationTrigger; callers invoke it from a fire-and-forget
// goroutine and only log failures.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher constructs a Publisher for the vitals readings topic.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        events.TopicVitalsReadings,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

// TriggerEvaluation publishes the reading keyed by user id.
func (p *Publisher) TriggerEvaluation(ctx context.Context, r domain.Reading) error {
	payload := events.VitalsRecorded{
		ReadingID:   r.ID,
		UserID:      r.UserID,
		DeviceID:    r.DeviceID,
		HeartRate:   r.HeartRate,
		SpO2:        r.SpO2,
		Temperature: r.Temperature,
		Steps:       r.Steps,
		RecordedAt:  r.RecordedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.UserID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.EventTypeVitalsRecorded)},
			{Key: "user_id", Value: []byte(r.UserID)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
