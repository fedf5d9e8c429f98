package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/events"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/rules"
)

// EvaluationHandler feeds recorded readings into the rules engine.
type EvaluationHandler struct {
	engine *rules.Engine
	logger *zap.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(engine *rules.Engine, logger *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{engine: engine, logger: logger}
}

// Handle decodes the event and evaluates the reading. Unknown event types
// are skipped, not failed, so topic evolution never wedges the worker.
func (h *EvaluationHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.EventTypeVitalsRecorded {
		h.logger.Debug("skipping unknown event type", zap.String("event_type", msg.EventType))
		return nil
	}

	var evt events.VitalsRecorded
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode vitals.recorded: %w", err)
	}

	reading := domain.Reading{
		ID:          evt.ReadingID,
		UserID:      evt.UserID,
		DeviceID:    evt.DeviceID,
		HeartRate:   evt.HeartRate,
		SpO2:        evt.SpO2,
		Temperature: evt.Temperature,
		Steps:       evt.Steps,
		RecordedAt:  evt.RecordedAt,
	}
	return h.engine.Evaluate(ctx, reading)
}
