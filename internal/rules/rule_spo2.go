package rules

import (
	"context"
	"fmt"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// lowSpO2Threshold is a fixed percentage safe across all ages; blood oxygen
// does not get an age-adjusted baseline.
const lowSpO2Threshold = 94.0

// evalLowSpO2 triggers on a single reading below the threshold.
func (e *Engine) evalLowSpO2(_ context.Context, reading domain.Reading, _ domain.Baseline, prefs domain.Preferences) (*domain.Candidate, error) {
	if reading.SpO2 == nil || !prefs.LowSpO2Enabled {
		return nil, nil
	}
	if *reading.SpO2 >= lowSpO2Threshold {
		return nil, nil
	}

	return &domain.Candidate{
		Type:     domain.AlertLowSpO2,
		Severity: domain.SeverityWarning,
		Message: fmt.Sprintf(
			"Low blood oxygen detected: %.1f%%. Normal range is 95-100%%. Please monitor closely.",
			*reading.SpO2,
		),
	}, nil
}
