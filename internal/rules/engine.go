// Package rules implements the alert evaluation engine. It runs once per
// persisted reading, asynchronously from the ingestion path: its result is
// never surfaced to the submitting caller, failures are logged and never
// retried, and a missed evaluation is superseded by the next reading.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/observability"
)

// Engine evaluates readings against the personalized rule set and feeds
// surviving candidates through the deduplicating alert store.
type Engine struct {
	profiles domain.ProfileStore
	prefs    domain.PreferenceStore
	readings domain.ReadingStore
	alerts   domain.AlertStore
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures optional Engine behaviour.
type Option func(*Engine)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine constructs an Engine.
func NewEngine(
	profiles domain.ProfileStore,
	prefs domain.PreferenceStore,
	readings domain.ReadingStore,
	alerts domain.AlertStore,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		profiles: profiles,
		prefs:    prefs,
		readings: readings,
		alerts:   alerts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs all rules for one reading. The baseline is recomputed from
// the current profile on every call so profile edits apply immediately. The
// reading must already be persisted: the sustained and windowed rules query
// history that includes it.
func (e *Engine) Evaluate(ctx context.Context, reading domain.Reading) error {
	profile, err := e.profiles.GetProfile(ctx, reading.UserID)
	if err != nil {
		observability.RecordEvaluationFailure()
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		e.logger.Warn("skipping evaluation for unknown user",
			zap.String("user_id", reading.UserID),
		)
		return nil
	}

	baseline := domain.ComputeBaseline(profile.BirthDate, profile.Gender, e.now())
	prefs := e.resolvePreferences(ctx, reading.UserID)

	var candidates []domain.Candidate
	for _, rule := range []func(context.Context, domain.Reading, domain.Baseline, domain.Preferences) (*domain.Candidate, error){
		e.evalHighHeartRate,
		e.evalLowSpO2,
		e.evalHighTemperature,
		e.evalLowActivity,
	} {
		candidate, err := rule(ctx, reading, baseline, prefs)
		if err != nil {
			observability.RecordEvaluationFailure()
			return err
		}
		if candidate != nil {
			candidates = append(candidates, *candidate)
		}
	}

	for _, candidate := range candidates {
		if err := e.createAlert(ctx, reading.UserID, candidate); err != nil {
			observability.RecordEvaluationFailure()
			return err
		}
	}
	return nil
}

// resolvePreferences fails open: a missing row or storage error yields the
// all-enabled defaults so a real alert is never suppressed by a lookup miss.
func (e *Engine) resolvePreferences(ctx context.Context, userID string) domain.Preferences {
	prefs, err := e.prefs.GetPreferences(ctx, userID)
	if err != nil {
		e.logger.Warn("preferences lookup failed, using defaults",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.DefaultPreferences(userID)
	}
	if prefs == nil {
		return domain.DefaultPreferences(userID)
	}
	return *prefs
}

// createAlert persists a candidate through the store's uniqueness guarantee.
// First wins, no refresh: when an open alert of the same type exists the
// candidate is discarded and the existing row keeps its original message.
func (e *Engine) createAlert(ctx context.Context, userID string, candidate domain.Candidate) error {
	alert := domain.Alert{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      candidate.Type,
		Severity:  candidate.Severity,
		Message:   candidate.Message,
		CreatedAt: e.now(),
	}

	created, err := e.alerts.CreateAlert(ctx, alert)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	if !created {
		observability.RecordAlertDeduplicated(string(candidate.Type))
		return nil
	}

	observability.RecordAlertCreated(string(candidate.Type))
	e.logger.Info("alert created",
		zap.String("alert_id", alert.ID),
		zap.String("user_id", userID),
		zap.String("alert_type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
	)
	return nil
}
