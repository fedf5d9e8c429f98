package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/events"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/persistence/memory"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/rules"
)

// stubReader serves a fixed batch and cancels the run context once drained.
type stubReader struct {
	messages  []kafka.Message
	cancel    context.CancelFunc
	committed []kafka.Message
	closed    bool
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error {
	r.closed = true
	return nil
}

type stubHandler struct {
	handled []Message
	err     error
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.handled = append(h.handled, msg)
	return h.err
}

func vitalsMessage(t *testing.T, offset int64, userID string) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(events.VitalsRecorded{
		ReadingID:  "reading-1",
		UserID:     userID,
		DeviceID:   "watch-1",
		RecordedAt: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return kafka.Message{
		Topic:  events.TopicVitalsReadings,
		Offset: offset,
		Key:    []byte(userID),
		Value:  payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.EventTypeVitalsRecorded)},
			{Key: "user_id", Value: []byte(userID)},
		},
	}
}

func runProcessor(t *testing.T, reader *stubReader, handler Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reader.cancel = cancel

	err := NewProcessor(reader, handler, zaptest.NewLogger(t)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessorDispatchesDecodedMessages(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{vitalsMessage(t, 7, "user-1")}}
	handler := &stubHandler{}
	runProcessor(t, reader, handler)

	require.Len(t, handler.handled, 1)
	msg := handler.handled[0]
	require.Equal(t, events.EventTypeVitalsRecorded, msg.EventType)
	require.Equal(t, "user-1", msg.UserID)
	require.Equal(t, int64(7), msg.Offset)
	require.Len(t, reader.committed, 1)
}

func TestProcessorCommitsDespiteHandlerError(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		vitalsMessage(t, 1, "user-1"),
		vitalsMessage(t, 2, "user-1"),
	}}
	handler := &stubHandler{err: errors.New("database unavailable")}
	runProcessor(t, reader, handler)

	require.Len(t, handler.handled, 2, "a failed evaluation must not block later messages")
	require.Len(t, reader.committed, 2, "offsets advance even when evaluation fails")
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	broken := kafka.Message{
		Topic:  events.TopicVitalsReadings,
		Offset: 3,
		Value:  []byte(`{}`),
		// No event_type header.
	}
	reader := &stubReader{messages: []kafka.Message{broken}}
	handler := &stubHandler{}
	runProcessor(t, reader, handler)

	require.Empty(t, handler.handled, "undecodable messages never reach the handler")
	require.Len(t, reader.committed, 1, "undecodable messages are skipped, not replayed")
}

func TestEvaluationHandlerSkipsUnknownEventTypes(t *testing.T) {
	store := memory.NewStore()
	engine := rules.NewEngine(store, store, store, store, zaptest.NewLogger(t))
	handler := NewEvaluationHandler(engine, zaptest.NewLogger(t))

	err := handler.Handle(context.Background(), Message{
		EventType: "vitals.deleted",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err, "unknown event types are skipped, not failed")
}

func TestEvaluationHandlerEvaluatesRecordedReading(t *testing.T) {
	store := memory.NewStore()
	birth := time.Date(1990, time.January, 10, 0, 0, 0, 0, time.UTC)
	store.SeedProfile(domain.Profile{UserID: "user-1", BirthDate: &birth, Gender: domain.GenderMale})

	spo2 := 90.0
	reading := domain.Reading{
		ID:         "reading-1",
		UserID:     "user-1",
		DeviceID:   "watch-1",
		SpO2:       &spo2,
		RecordedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertReading(context.Background(), reading))

	engine := rules.NewEngine(store, store, store, store, zaptest.NewLogger(t))
	handler := NewEvaluationHandler(engine, zaptest.NewLogger(t))

	payload, err := json.Marshal(events.VitalsRecorded{
		ReadingID:  reading.ID,
		UserID:     reading.UserID,
		DeviceID:   reading.DeviceID,
		SpO2:       reading.SpO2,
		RecordedAt: reading.RecordedAt,
	})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), Message{
		EventType: events.EventTypeVitalsRecorded,
		UserID:    reading.UserID,
		Payload:   payload,
	}))

	open := false
	alerts, err := store.ListAlerts(context.Background(), "user-1", &open)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, domain.AlertLowSpO2, alerts[0].Type)
}

func TestEvaluationHandlerRejectsMalformedPayload(t *testing.T) {
	store := memory.NewStore()
	engine := rules.NewEngine(store, store, store, store, zaptest.NewLogger(t))
	handler := NewEvaluationHandler(engine, zaptest.NewLogger(t))

	err := handler.Handle(context.Background(), Message{
		EventType: events.EventTypeVitalsRecorded,
		Payload:   json.RawMessage(`{not json`),
	})
	require.Error(t, err)
}
