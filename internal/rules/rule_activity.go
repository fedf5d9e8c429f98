package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

const (
	// activityWindow is the trailing window over which steps are summed.
	activityWindow = 24 * time.Hour
	// minDailySteps is the step count below which the user is considered
	// inactive.
	minDailySteps = 1000
)

// evalLowActivity triggers when the 24-hour step sum, including the reading
// under evaluation, falls below the minimum. The rule is gated on the steps
// field being present in the payload, not on its magnitude: a zero-step
// sample still counts as an activity report.
//
// Unlike the other rules this one pre-checks for an existing open alert:
// every low-step reading while the condition persists would otherwise
// produce a fresh candidate on each evaluation.
func (e *Engine) evalLowActivity(ctx context.Context, reading domain.Reading, _ domain.Baseline, prefs domain.Preferences) (*domain.Candidate, error) {
	if reading.Steps == nil || !prefs.InactivityEnabled {
		return nil, nil
	}

	total, err := e.readings.StepsSince(ctx, reading.UserID, e.now().Add(-activityWindow))
	if err != nil {
		return nil, fmt.Errorf("24h step sum: %w", err)
	}
	if total >= minDailySteps {
		return nil, nil
	}

	open, err := e.alerts.HasOpenAlert(ctx, reading.UserID, domain.AlertLowActivity)
	if err != nil {
		return nil, fmt.Errorf("open alert check: %w", err)
	}
	if open {
		return nil, nil
	}

	return &domain.Candidate{
		Type:     domain.AlertLowActivity,
		Severity: domain.SeverityInfo,
		Message:  "Low activity detected. Consider taking a walk to maintain healthy activity levels.",
	}, nil
}
