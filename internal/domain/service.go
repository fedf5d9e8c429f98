package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/observability"
)

// Service orchestrates the user-facing operations: reading ingestion, alert
// queries and lifecycle transitions, baseline and preference access. Alert
// evaluation itself runs out of process; see internal/rules.
type Service struct {
	readings ReadingStore
	alerts   AlertStore
	prefs    PreferenceStore
	profiles ProfileStore
	devices  DeviceStore
	trigger  EvaluationTrigger
	logger   *zap.Logger

	triggerTimeout time.Duration
	now            func() time.Time
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithTriggerTimeout bounds the background evaluation handoff.
func WithTriggerTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.triggerTimeout = d }
}

// NewService constructs a Service.
func NewService(
	readings ReadingStore,
	alerts AlertStore,
	prefs PreferenceStore,
	profiles ProfileStore,
	devices DeviceStore,
	trigger EvaluationTrigger,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		readings:       readings,
		alerts:         alerts,
		prefs:          prefs,
		profiles:       profiles,
		devices:        devices,
		trigger:        trigger,
		logger:         logger,
		triggerTimeout: 5 * time.Second,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestInput carries a reading submission from the API layer. The user id
// comes from the verified token, never from the payload.
type IngestInput struct {
	UserID      string
	DeviceID    string
	HeartRate   *int
	SpO2        *float64
	Temperature *float64
	Steps       *int
}

// IngestReading validates device ownership, persists the reading, and hands
// it off for asynchronous alert evaluation. The handoff never blocks or
// fails the ingestion response: trigger errors are logged and counted only.
func (s *Service) IngestReading(ctx context.Context, input IngestInput) (*Reading, error) {
	owned, err := s.devices.DeviceOwned(ctx, input.UserID, input.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("device ownership check: %w", err)
	}
	if !owned {
		return nil, ErrDeviceNotOwned
	}

	reading := Reading{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		DeviceID:    input.DeviceID,
		HeartRate:   input.HeartRate,
		SpO2:        input.SpO2,
		Temperature: input.Temperature,
		Steps:       input.Steps,
		RecordedAt:  s.now(),
	}

	if err := s.readings.InsertReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("persist reading: %w", err)
	}
	observability.RecordReadingIngested()

	go func(r Reading) {
		triggerCtx, cancel := context.WithTimeout(context.Background(), s.triggerTimeout)
		defer cancel()
		if err := s.trigger.TriggerEvaluation(triggerCtx, r); err != nil {
			observability.RecordTriggerFailure()
			s.logger.Error("evaluation trigger failed",
				zap.String("reading_id", r.ID),
				zap.String("user_id", r.UserID),
				zap.Error(err),
			)
		}
	}(reading)

	return &reading, nil
}

// LatestReading returns the user's most recent reading, or nil.
func (s *Service) LatestReading(ctx context.Context, userID string) (*Reading, error) {
	return s.readings.LatestReading(ctx, userID)
}

// ReadingHistory returns readings within the trailing window, newest first.
func (s *Service) ReadingHistory(ctx context.Context, userID string, window time.Duration) ([]Reading, error) {
	return s.readings.ReadingsSince(ctx, userID, s.now().Add(-window))
}

// VitalsStats aggregates readings within the trailing window.
func (s *Service) VitalsStats(ctx context.Context, userID string, window time.Duration) (VitalsSummary, error) {
	return s.readings.Summary(ctx, userID, s.now().Add(-window))
}

// ListAlerts returns the user's alerts newest first; resolved filters by
// lifecycle state when non-nil.
func (s *Service) ListAlerts(ctx context.Context, userID string, resolved *bool) ([]Alert, error) {
	return s.alerts.ListAlerts(ctx, userID, resolved)
}

// CountOpenAlerts reports how many of the user's alerts are unresolved.
func (s *Service) CountOpenAlerts(ctx context.Context, userID string) (int, error) {
	return s.alerts.CountOpenAlerts(ctx, userID)
}

// ResolveAlert marks an alert resolved. Returns ErrAlertNotFound when the
// alert does not exist or belongs to another user. Resolution is
// irreversible.
func (s *Service) ResolveAlert(ctx context.Context, userID, alertID string) error {
	found, err := s.alerts.ResolveAlert(ctx, userID, alertID, s.now())
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if !found {
		return ErrAlertNotFound
	}
	return nil
}

// GetBaseline recomputes the caller's baseline from the current profile.
// An unknown profile yields the fixed defaults rather than an error.
func (s *Service) GetBaseline(ctx context.Context, userID string) (Baseline, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return Baseline{}, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return ComputeBaseline(nil, "", s.now()), nil
	}
	return ComputeBaseline(profile.BirthDate, profile.Gender, s.now()), nil
}

// ResolvePreferences returns the user's notification toggles, failing open
// to the all-enabled defaults on a missing row or storage error. Alert
// delivery must never be suppressed by a preferences lookup problem.
func (s *Service) ResolvePreferences(ctx context.Context, userID string) Preferences {
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		s.logger.Warn("preferences lookup failed, using defaults",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return DefaultPreferences(userID)
	}
	if prefs == nil {
		return DefaultPreferences(userID)
	}
	return *prefs
}

// UpdatePreferences stores the toggles, creating the row if needed.
func (s *Service) UpdatePreferences(ctx context.Context, p Preferences) (Preferences, error) {
	p.UpdatedAt = s.now()
	if err := s.prefs.UpsertPreferences(ctx, p); err != nil {
		return Preferences{}, fmt.Errorf("store preferences: %w", err)
	}
	return p, nil
}
