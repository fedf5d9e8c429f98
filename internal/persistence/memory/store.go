// Package memory provides a mutex-guarded in-memory implementation of the
// persistence ports, used by unit tests and local development. The open-alert
// uniqueness invariant is enforced by serializing alert creation under the
// store lock, the in-process equivalent of the Postgres partial unique index.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// Store implements every persistence port over process memory.
type Store struct {
	mu       sync.RWMutex
	readings []domain.Reading
	alerts   []domain.Alert
	prefs    map[string]domain.Preferences
	profiles map[string]domain.Profile
	devices  map[string]string // device_id -> user_id
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		prefs:    make(map[string]domain.Preferences),
		profiles: make(map[string]domain.Profile),
		devices:  make(map[string]string),
	}
}

// SeedProfile registers a user profile.
func (s *Store) SeedProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// SeedDevice pairs a device with a user.
func (s *Store) SeedDevice(userID, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[deviceID] = userID
}

func (s *Store) InsertReading(_ context.Context, r domain.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, r)
	return nil
}

func (s *Store) LatestReading(_ context.Context, userID string) (*domain.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Reading
	for i := range s.readings {
		r := s.readings[i]
		if r.UserID != userID {
			continue
		}
		if latest == nil || r.RecordedAt.After(latest.RecordedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, nil
	}
	out := *latest
	return &out, nil
}

func (s *Store) ReadingsSince(_ context.Context, userID string, since time.Time) ([]domain.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reading
	for _, r := range s.readings {
		if r.UserID == userID && !r.RecordedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (s *Store) RecentHeartRates(_ context.Context, userID string, limit int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	withHR := make([]domain.Reading, 0, len(s.readings))
	for _, r := range s.readings {
		if r.UserID == userID && r.HeartRate != nil {
			withHR = append(withHR, r)
		}
	}
	sort.Slice(withHR, func(i, j int) bool { return withHR[i].RecordedAt.After(withHR[j].RecordedAt) })
	if len(withHR) > limit {
		withHR = withHR[:limit]
	}
	out := make([]int, 0, len(withHR))
	for _, r := range withHR {
		out = append(out, *r.HeartRate)
	}
	return out, nil
}

func (s *Store) StepsSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, r := range s.readings {
		if r.UserID == userID && r.Steps != nil && !r.RecordedAt.Before(since) {
			total += *r.Steps
		}
	}
	return total, nil
}

func (s *Store) Summary(_ context.Context, userID string, since time.Time) (domain.VitalsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary domain.VitalsSummary
	var hrSum, hrCount int
	var spo2Sum float64
	var spo2Count int
	var tempSum float64
	var tempCount int

	for _, r := range s.readings {
		if r.UserID != userID || r.RecordedAt.Before(since) {
			continue
		}
		if r.HeartRate != nil {
			bpm := *r.HeartRate
			hrSum += bpm
			hrCount++
			if summary.MinHeartRate == 0 || bpm < summary.MinHeartRate {
				summary.MinHeartRate = bpm
			}
			if bpm > summary.MaxHeartRate {
				summary.MaxHeartRate = bpm
			}
		}
		if r.SpO2 != nil {
			spo2Sum += *r.SpO2
			spo2Count++
		}
		if r.Temperature != nil {
			tempSum += *r.Temperature
			tempCount++
		}
		if r.Steps != nil {
			summary.TotalSteps += *r.Steps
		}
	}

	if hrCount > 0 {
		summary.AvgHeartRate = (hrSum + hrCount/2) / hrCount
	}
	if spo2Count > 0 {
		summary.AvgSpO2 = roundTenth(spo2Sum / float64(spo2Count))
	}
	if tempCount > 0 {
		summary.AvgTemperature = roundTenth(tempSum / float64(tempCount))
	}
	return summary, nil
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// CreateAlert inserts unless an open alert of the same (user, type) exists.
// The whole check-then-insert runs under the write lock, so concurrent
// evaluations cannot both observe "no open alert".
func (s *Store) CreateAlert(_ context.Context, a domain.Alert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.alerts {
		if existing.UserID == a.UserID && existing.Type == a.Type && !existing.Resolved {
			return false, nil
		}
	}
	s.alerts = append(s.alerts, a)
	return true, nil
}

func (s *Store) HasOpenAlert(_ context.Context, userID string, t domain.AlertType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.UserID == userID && a.Type == t && !a.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListAlerts(_ context.Context, userID string, resolved *bool) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alert
	for _, a := range s.alerts {
		if a.UserID != userID {
			continue
		}
		if resolved != nil && a.Resolved != *resolved {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CountOpenAlerts(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.alerts {
		if a.UserID == userID && !a.Resolved {
			count++
		}
	}
	return count, nil
}

func (s *Store) ResolveAlert(_ context.Context, userID, alertID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == alertID && s.alerts[i].UserID == userID {
			s.alerts[i].Resolved = true
			s.alerts[i].ResolvedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[userID]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (s *Store) UpsertPreferences(_ context.Context, p domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = p
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	out := p
	return &out, nil
}

func (s *Store) DeviceOwned(_ context.Context, userID, deviceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.devices[deviceID]
	return ok && owner == userID, nil
}
