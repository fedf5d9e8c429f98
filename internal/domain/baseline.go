package domain

import (
	"math"
	"time"
)

// Defaults applied when the user's birth date is unknown.
const (
	defaultMaxHeartRate     = 180
	defaultRestingHeartRate = 70
)

// highHeartRateFactor is the fraction of max heart rate above which a
// sustained reading is considered alarming.
const highHeartRateFactor = 0.85

// Baseline holds the personalized physiological reference values derived
// from a user's profile. It is recomputed on every evaluation and never
// persisted, so profile edits take effect immediately.
type Baseline struct {
	Age                    *int
	MaxHeartRate           int
	RestingHeartRate       int
	HighHeartRateThreshold int
}

// restingHeartRateBands maps age bands to baseline resting heart rates.
// Kept as an explicit table so thresholds can be tuned without touching
// evaluation logic.
var restingHeartRateBands = []struct {
	maxAge int // exclusive upper bound; math.MaxInt terminates the table
	bpm    int
}{
	{20, 60},
	{30, 65},
	{40, 70},
	{50, 72},
	{60, 75},
	{math.MaxInt, 78},
}

// femaleRestingAdjustment accounts for the slightly higher average resting
// heart rate observed in females.
const femaleRestingAdjustment = 3

// ComputeBaseline derives the reference values for a profile. Pure and
// deterministic: the caller supplies the evaluation time. A nil birth date
// yields a nil age and the fixed defaults for every heart-rate value.
func ComputeBaseline(birthDate *time.Time, gender Gender, now time.Time) Baseline {
	age := ageAt(birthDate, now)

	maxHR := defaultMaxHeartRate
	restingHR := defaultRestingHeartRate
	if age != nil {
		maxHR = 220 - *age
		restingHR = restingHeartRate(*age, gender)
	}

	return Baseline{
		Age:                    age,
		MaxHeartRate:           maxHR,
		RestingHeartRate:       restingHR,
		HighHeartRateThreshold: int(math.Round(float64(maxHR) * highHeartRateFactor)),
	}
}

// ageAt returns whole years between birth date and now using calendar
// month/day comparison, so the age increments exactly on the anniversary.
func ageAt(birthDate *time.Time, now time.Time) *int {
	if birthDate == nil {
		return nil
	}
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return &age
}

func restingHeartRate(age int, gender Gender) int {
	bpm := restingHeartRateBands[len(restingHeartRateBands)-1].bpm
	for _, band := range restingHeartRateBands {
		if age < band.maxAge {
			bpm = band.bpm
			break
		}
	}
	if gender == GenderFemale {
		bpm += femaleRestingAdjustment
	}
	return bpm
}
