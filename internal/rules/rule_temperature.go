package rules

import (
	"context"
	"fmt"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// feverThresholdCelsius marks the onset of fever.
const feverThresholdCelsius = 37.5

// evalHighTemperature triggers on a single reading above the fever
// threshold. There is no preference toggle for temperature; the rule is
// always active.
func (e *Engine) evalHighTemperature(_ context.Context, reading domain.Reading, _ domain.Baseline, _ domain.Preferences) (*domain.Candidate, error) {
	if reading.Temperature == nil || *reading.Temperature <= feverThresholdCelsius {
		return nil, nil
	}

	return &domain.Candidate{
		Type:     domain.AlertHighTemperature,
		Severity: domain.SeverityWarning,
		Message: fmt.Sprintf(
			"Elevated body temperature: %.1f°C. Monitor for fever symptoms.",
			*reading.Temperature,
		),
	}, nil
}
