package rules

import (
	"context"
	"fmt"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// sustainedWindow is how many consecutive readings must exceed the threshold
// before a high-heart-rate alert fires. A single spike never alerts.
const sustainedWindow = 2

// evalHighHeartRate triggers when the two most recent heart-rate readings,
// including the one under evaluation, both exceed the personalized
// threshold.
func (e *Engine) evalHighHeartRate(ctx context.Context, reading domain.Reading, baseline domain.Baseline, prefs domain.Preferences) (*domain.Candidate, error) {
	if reading.HeartRate == nil || !prefs.HighHeartRateEnabled {
		return nil, nil
	}

	threshold := baseline.HighHeartRateThreshold
	if *reading.HeartRate <= threshold {
		return nil, nil
	}

	recent, err := e.readings.RecentHeartRates(ctx, reading.UserID, sustainedWindow)
	if err != nil {
		return nil, fmt.Errorf("recent heart rates: %w", err)
	}
	if len(recent) < sustainedWindow {
		return nil, nil
	}
	for _, bpm := range recent {
		if bpm <= threshold {
			return nil, nil
		}
	}

	age := "unknown"
	if baseline.Age != nil {
		age = fmt.Sprintf("%d", *baseline.Age)
	}

	return &domain.Candidate{
		Type:     domain.AlertHighHeartRate,
		Severity: domain.SeverityWarning,
		Message: fmt.Sprintf(
			"Elevated heart rate detected: %d bpm (threshold: %d bpm for age %s). Consider rest if this persists.",
			*reading.HeartRate, threshold, age,
		),
	}, nil
}
