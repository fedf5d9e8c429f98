package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/PrachiPhunde/WearableTechHealthApp/internal/auth"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/domain"
	"github.com/PrachiPhunde/WearableTechHealthApp/internal/persistence/memory"
)

type noopTrigger struct{}

func (noopTrigger) TriggerEvaluation(context.Context, domain.Reading) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	service := domain.NewService(store, store, store, store, store, noopTrigger{}, zaptest.NewLogger(t))
	router := chi.NewRouter()
	NewHandler(service).RegisterRoutes(router)
	return router, store
}

func doRequest(router http.Handler, method, target, body string, claims *auth.Claims) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func userClaims(scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	return &auth.Claims{Subject: "user-1", Scopes: set}
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doRequest(router, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestIngestVitals(t *testing.T) {
	router, store := newTestRouter(t)
	store.SeedDevice("user-1", "watch-1")

	t.Run("created", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/vitals",
			`{"device_id":"watch-1","heart_rate":72,"spo2":98.0}`,
			userClaims(auth.ScopeVitalsWrite))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp IngestVitalsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.ReadingID)
		require.False(t, resp.RecordedAt.IsZero())
	})

	t.Run("missing device id", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/vitals",
			`{"heart_rate":72}`, userClaims(auth.ScopeVitalsWrite))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "device_id is required")
	})

	t.Run("foreign device", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/vitals",
			`{"device_id":"someone-elses-watch","heart_rate":72}`,
			userClaims(auth.ScopeVitalsWrite))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/vitals",
			`{"device_id":"watch-1"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing scope", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/vitals",
			`{"device_id":"watch-1"}`, userClaims(auth.ScopeHealthRead))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLatestVitalsEmpty(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := doRequest(router, http.MethodGet, "/v1/vitals/latest", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"reading":null}`, rec.Body.String())
}

func TestVitalsHistoryPeriods(t *testing.T) {
	router, store := newTestRouter(t)
	hr := 70
	require.NoError(t, store.InsertReading(context.Background(), domain.Reading{
		ID: "r1", UserID: "user-1", DeviceID: "watch-1", HeartRate: &hr,
		RecordedAt: time.Now().UTC().Add(-time.Hour),
	}))

	rec := doRequest(router, http.MethodGet, "/v1/vitals/history?period=7d", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp VitalsHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "7d", resp.Period)
	require.Equal(t, 1, resp.Count)

	rec = doRequest(router, http.MethodGet, "/v1/vitals/history?period=bogus", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "24h", resp.Period, "unknown periods fall back to 24h")
}

func TestVitalsStats(t *testing.T) {
	router, store := newTestRouter(t)
	hr1, hr2 := 60, 80
	steps := 400
	now := time.Now().UTC()
	require.NoError(t, store.InsertReading(context.Background(), domain.Reading{
		ID: "r1", UserID: "user-1", HeartRate: &hr1, Steps: &steps, RecordedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, store.InsertReading(context.Background(), domain.Reading{
		ID: "r2", UserID: "user-1", HeartRate: &hr2, RecordedAt: now.Add(-time.Hour),
	}))

	rec := doRequest(router, http.MethodGet, "/v1/vitals/stats", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VitalsStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 70, resp.Stats.HeartRate.Average)
	require.Equal(t, 60, resp.Stats.HeartRate.Min)
	require.Equal(t, 80, resp.Stats.HeartRate.Max)
	require.Equal(t, 400, resp.Stats.Steps.Total)
}

func TestAlertEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	ctx := context.Background()
	_, err := store.CreateAlert(ctx, domain.Alert{
		ID:        "alert-1",
		UserID:    "user-1",
		Type:      domain.AlertLowSpO2,
		Severity:  domain.SeverityWarning,
		Message:   "Low blood oxygen detected: 90.0%. Normal range is 95-100%. Please monitor closely.",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	rec := doRequest(router, http.MethodGet, "/v1/alerts", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListAlertsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, "alert-1", list.Alerts[0].AlertID)
	require.Equal(t, "low_spo2", list.Alerts[0].Type)

	rec = doRequest(router, http.MethodGet, "/v1/alerts/open/count", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	var count OpenAlertCountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	require.Equal(t, 1, count.OpenCount)

	rec = doRequest(router, http.MethodPost, "/v1/alerts/alert-1/resolve", "", userClaims(auth.ScopeHealthWrite))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodPost, "/v1/alerts/alert-1/resolve", "", userClaims(auth.ScopeHealthWrite))
	require.Equal(t, http.StatusOK, rec.Code, "resolving twice stays idempotent at the HTTP surface")

	rec = doRequest(router, http.MethodPost, "/v1/alerts/unknown/resolve", "", userClaims(auth.ScopeHealthWrite))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/alerts?resolved=false", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 0, list.Count)
}

func TestGetBaseline(t *testing.T) {
	router, store := newTestRouter(t)
	birth := time.Now().UTC().AddDate(-45, 0, 0)
	store.SeedProfile(domain.Profile{UserID: "user-1", BirthDate: &birth, Gender: domain.GenderMale})

	rec := doRequest(router, http.MethodGet, "/v1/baseline", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BaselineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Age)
	require.Equal(t, 45, *resp.Age)
	require.Equal(t, 175, resp.MaxHeartRate)
	require.Equal(t, 72, resp.RestingHeartRate)
	require.Equal(t, 149, resp.HighHeartRateThreshold)
}

func TestPreferencesRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/v1/preferences", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	var prefs PreferencesView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	require.True(t, prefs.HighHeartRateEnabled)
	require.True(t, prefs.LowSpO2Enabled)
	require.True(t, prefs.InactivityEnabled)

	// Omitted toggles default to enabled.
	rec = doRequest(router, http.MethodPut, "/v1/preferences",
		`{"high_heart_rate_enabled":false}`, userClaims(auth.ScopeHealthWrite))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	require.False(t, prefs.HighHeartRateEnabled)
	require.True(t, prefs.LowSpO2Enabled)
	require.True(t, prefs.InactivityEnabled)

	rec = doRequest(router, http.MethodGet, "/v1/preferences", "", userClaims(auth.ScopeHealthRead))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
	require.False(t, prefs.HighHeartRateEnabled)
}
