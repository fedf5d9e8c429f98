// Package api exposes HTTP handlers for the vitals service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/auth"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)

	r.Post("/v1/vitals", h.ingestVitals)
	r.Get("/v1/vitals/latest", h.latestVitals)
	r.Get("/v1/vitals/history", h.vitalsHistory)
	r.Get("/v1/vitals/stats", h.vitalsStats)

	r.Get("/v1/alerts", h.listAlerts)
	r.Get("/v1/alerts/open/count", h.openAlertCount)
	r.Post("/v1/alerts/{alertID}/resolve", h.resolveAlert)

	r.Get("/v1/baseline", h.getBaseline)
	r.Get("/v1/preferences", h.getPreferences)
	r.Put("/v1/preferences", h.updatePreferences)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ingestVitals(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeVitalsWrite)
	if !ok {
		return
	}

	var req IngestVitalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	reading, err := h.service.IngestReading(r.Context(), domain.IngestInput{
		UserID:      claims.Subject,
		DeviceID:    req.DeviceID,
		HeartRate:   req.HeartRate,
		SpO2:        req.SpO2,
		Temperature: req.Temperature,
		Steps:       req.Steps,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotOwned) {
			writeError(w, http.StatusNotFound, "not_found", "device not found or not connected")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, IngestVitalsResponse{
		ReadingID:  reading.ID,
		RecordedAt: reading.RecordedAt,
	})
}

func (h *Handler) latestVitals(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	reading, err := h.service.LatestReading(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := LatestVitalsResponse{}
	if reading != nil {
		view := toReadingView(*reading)
		resp.Reading = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) vitalsHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	window, period := parsePeriod(r.URL.Query().Get("period"))
	readings, err := h.service.ReadingHistory(r.Context(), claims.Subject, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ReadingView, 0, len(readings))
	for _, reading := range readings {
		items = append(items, toReadingView(reading))
	}
	writeJSON(w, http.StatusOK, VitalsHistoryResponse{
		Readings: items,
		Period:   period,
		Count:    len(items),
	})
}

func (h *Handler) vitalsStats(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	window, period := parsePeriod(r.URL.Query().Get("period"))
	summary, err := h.service.VitalsStats(r.Context(), claims.Subject, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, VitalsStatsResponse{
		Stats: StatsView{
			HeartRate: HeartRateStats{
				Average: summary.AvgHeartRate,
				Min:     summary.MinHeartRate,
				Max:     summary.MaxHeartRate,
			},
			SpO2:        AverageStat{Average: summary.AvgSpO2},
			Temperature: AverageStat{Average: summary.AvgTemperature},
			Steps:       StepsStats{Total: summary.TotalSteps},
		},
		Period: period,
	})
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		value := raw == "true"
		resolved = &value
	}

	alerts, err := h.service.ListAlerts(r.Context(), claims.Subject, resolved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]AlertView, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, toAlertView(alert))
	}
	writeJSON(w, http.StatusOK, ListAlertsResponse{Alerts: items, Count: len(items)})
}

func (h *Handler) openAlertCount(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	count, err := h.service.CountOpenAlerts(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OpenAlertCountResponse{OpenCount: count})
}

func (h *Handler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthWrite)
	if !ok {
		return
	}

	alertID := chi.URLParam(r, "alertID")
	if alertID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing alert id")
		return
	}

	if err := h.service.ResolveAlert(r.Context(), claims.Subject, alertID); err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "alert not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "alert resolved"})
}

func (h *Handler) getBaseline(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	baseline, err := h.service.GetBaseline(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, BaselineResponse{
		Age:                    baseline.Age,
		MaxHeartRate:           baseline.MaxHeartRate,
		RestingHeartRate:       baseline.RestingHeartRate,
		HighHeartRateThreshold: baseline.HighHeartRateThreshold,
	})
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthRead)
	if !ok {
		return
	}

	prefs := h.service.ResolvePreferences(r.Context(), claims.Subject)
	writeJSON(w, http.StatusOK, toPreferencesView(prefs))
}

func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeHealthWrite)
	if !ok {
		return
	}

	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), domain.Preferences{
		UserID:               claims.Subject,
		HighHeartRateEnabled: enabledOrDefault(req.HighHeartRateEnabled),
		LowSpO2Enabled:       enabledOrDefault(req.LowSpO2Enabled),
		InactivityEnabled:    enabledOrDefault(req.InactivityEnabled),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesView(prefs))
}

// requireScope extracts claims and enforces the scope, writing the error
// response itself on failure.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return nil, false
	}
	return claims, true
}

// parsePeriod maps the query value to a window; unknown values fall back to
// 24 hours.
func parsePeriod(raw string) (time.Duration, string) {
	if raw == "7d" {
		return 7 * 24 * time.Hour, "7d"
	}
	return 24 * time.Hour, "24h"
}

// enabledOrDefault treats an omitted toggle as enabled.
func enabledOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

// IngestVitalsRequest is the payload for POST /v1/vitals.
type IngestVitalsRequest struct {
	DeviceID    string   `json:"device_id"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	SpO2        *float64 `json:"spo2,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Steps       *int     `json:"steps,omitempty"`
}

// Validate ensures request correctness.
func (r IngestVitalsRequest) Validate() error {
	if strings.TrimSpace(r.DeviceID) == "" {
		return errors.New("device_id is required")
	}
	return nil
}

// IngestVitalsResponse describes the response body for a submitted reading.
type IngestVitalsResponse struct {
	ReadingID  string    `json:"reading_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ReadingView exposes one vitals sample.
type ReadingView struct {
	ReadingID   string    `json:"reading_id"`
	DeviceID    string    `json:"device_id"`
	HeartRate   *int      `json:"heart_rate,omitempty"`
	SpO2        *float64  `json:"spo2,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Steps       *int      `json:"steps,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// LatestVitalsResponse wraps the most recent reading; Reading is null when
// the user has no data yet.
type LatestVitalsResponse struct {
	Reading *ReadingView `json:"reading"`
}

// VitalsHistoryResponse packages windowed history results.
type VitalsHistoryResponse struct {
	Readings []ReadingView `json:"readings"`
	Period   string        `json:"period"`
	Count    int           `json:"count"`
}

// HeartRateStats aggregates heart-rate readings.
type HeartRateStats struct {
	Average int `json:"average"`
	Min     int `json:"min"`
	Max     int `json:"max"`
}

// AverageStat carries a single rounded average.
type AverageStat struct {
	Average float64 `json:"average"`
}

// StepsStats carries the step total.
type StepsStats struct {
	Total int `json:"total"`
}

// StatsView groups per-channel aggregates.
type StatsView struct {
	HeartRate   HeartRateStats `json:"heart_rate"`
	SpO2        AverageStat    `json:"spo2"`
	Temperature AverageStat    `json:"temperature"`
	Steps       StepsStats     `json:"steps"`
}

// VitalsStatsResponse packages windowed aggregates.
type VitalsStatsResponse struct {
	Stats  StatsView `json:"stats"`
	Period string    `json:"period"`
}

// AlertView exposes full details about an alert.
type AlertView struct {
	AlertID    string     `json:"alert_id"`
	Type       string     `json:"alert_type"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Resolved   bool       `json:"resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ListAlertsResponse packages list results.
type ListAlertsResponse struct {
	Alerts []AlertView `json:"alerts"`
	Count  int         `json:"count"`
}

// OpenAlertCountResponse carries the unresolved-alert count for badges.
type OpenAlertCountResponse struct {
	OpenCount int `json:"open_count"`
}

// BaselineResponse exposes the recomputed baseline.
type BaselineResponse struct {
	Age                    *int `json:"age"`
	MaxHeartRate           int  `json:"max_heart_rate"`
	RestingHeartRate       int  `json:"resting_heart_rate"`
	HighHeartRateThreshold int  `json:"high_heart_rate_threshold"`
}

// UpdatePreferencesRequest carries the toggle updates; omitted fields
// default to enabled.
type UpdatePreferencesRequest struct {
	HighHeartRateEnabled *bool `json:"high_heart_rate_enabled"`
	LowSpO2Enabled       *bool `json:"low_spo2_enabled"`
	InactivityEnabled    *bool `json:"inactivity_enabled"`
}

// PreferencesView exposes the notification toggles.
type PreferencesView struct {
	HighHeartRateEnabled bool `json:"high_heart_rate_enabled"`
	LowSpO2Enabled       bool `json:"low_spo2_enabled"`
	InactivityEnabled    bool `json:"inactivity_enabled"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toReadingView(r domain.Reading) ReadingView {
	return ReadingView{
		ReadingID:   r.ID,
		DeviceID:    r.DeviceID,
		HeartRate:   r.HeartRate,
		SpO2:        r.SpO2,
		Temperature: r.Temperature,
		Steps:       r.Steps,
		RecordedAt:  r.RecordedAt,
	}
}

func toAlertView(a domain.Alert) AlertView {
	return AlertView{
		AlertID:    a.ID,
		Type:       string(a.Type),
		Severity:   string(a.Severity),
		Message:    a.Message,
		Resolved:   a.Resolved,
		CreatedAt:  a.CreatedAt,
		ResolvedAt: a.ResolvedAt,
	}
}

func toPreferencesView(p domain.Preferences) PreferencesView {
	return PreferencesView{
		HighHeartRateEnabled: p.HighHeartRateEnabled,
		LowSpO2Enabled:       p.LowSpO2Enabled,
		InactivityEnabled:    p.InactivityEnabled,
	}
}
