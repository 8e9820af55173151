package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/models"
	"github.com/posturestack/posture-engine/internal/resilience"
	"github.com/posturestack/posture-engine/internal/services"
)

type stubStore struct {
	services  []models.Service
	metrics   map[string][]models.MetricSample
	snapshots map[string][]models.ScoreSnapshot
	recs      map[string][]models.Recommendation
}

func newStubStore() *stubStore {
	return &stubStore{
		metrics:   make(map[string][]models.MetricSample),
		snapshots: make(map[string][]models.ScoreSnapshot),
		recs:      make(map[string][]models.Recommendation),
	}
}

func (s *stubStore) ListServices(context.Context) ([]models.Service, error) {
	return s.services, nil
}

func (s *stubStore) ListRecentMetrics(_ context.Context, serviceID string, _ time.Time) ([]models.MetricSample, error) {
	return s.metrics[serviceID], nil
}

func (s *stubStore) ListRecentIncidents(context.Context, string, time.Time) ([]models.IncidentRecord, error) {
	return nil, nil
}

func (s *stubStore) ListDependencyEdges(context.Context, string) ([]models.DependencyEdge, error) {
	return nil, nil
}

func (s *stubStore) StoreSnapshot(_ context.Context, snapshot models.ScoreSnapshot) error {
	s.snapshots[snapshot.ServiceID] = append([]models.ScoreSnapshot{snapshot}, s.snapshots[snapshot.ServiceID]...)
	return nil
}

func (s *stubStore) ListSnapshots(_ context.Context, serviceID string, limit int) ([]models.ScoreSnapshot, error) {
	history := s.snapshots[serviceID]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (s *stubStore) ListRecommendations(_ context.Context, serviceID string) ([]models.Recommendation, error) {
	return s.recs[serviceID], nil
}

func (s *stubStore) ReplaceOpenRecommendations(_ context.Context, serviceID string, recs []models.Recommendation) error {
	s.recs[serviceID] = recs
	return nil
}

func newTestRouter(store services.Store, health *resilience.HealthMonitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := services.NewPostureService(logger, store, config.NewResolver(nil, logger), config.ScoringRunConfig{MaxParallel: 2})
	if health == nil {
		health = resilience.NewHealthMonitor()
	}

	router := gin.New()
	NewHandler(svc, health, logger).RegisterRoutes(router)
	return router
}

func TestHealthEndpoint(t *testing.T) {
	health := resilience.NewHealthMonitor()
	health.AddCheck("store", func(context.Context) error { return nil }, true, time.Second)
	router := newTestRouter(newStubStore(), health)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report resilience.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, resilience.HealthHealthy, report.Status)
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	health := resilience.NewHealthMonitor()
	health.AddCheck("store", func(context.Context) error { return errors.New("refused") }, true, time.Second)
	router := newTestRouter(newStubStore(), health)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvaluateEndpoint(t *testing.T) {
	store := newStubStore()
	store.services = []models.Service{{ID: "checkout"}}
	store.metrics["checkout"] = []models.MetricSample{{
		ServiceID:        "checkout",
		Timestamp:        time.Now().Add(-time.Hour),
		UptimePercent:    99.95,
		ErrorRatePercent: 0.2,
		LatencyP95:       400,
		LatencyP99:       900,
	}}
	router := newTestRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result services.FleetRunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Evaluations, 1)
	require.Equal(t, "checkout", result.Evaluations[0].Service.ID)
	require.Len(t, store.snapshots["checkout"], 1)
}

func TestScoreEndpointNotFound(t *testing.T) {
	router := newTestRouter(newStubStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/checkout/score", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreEndpoint(t *testing.T) {
	store := newStubStore()
	store.snapshots["checkout"] = []models.ScoreSnapshot{{ID: "snap-1", ServiceID: "checkout", OverallScore: 52}}
	router := newTestRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/checkout/score", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot models.ScoreSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.Equal(t, 52.0, snapshot.OverallScore)
}

func TestComplianceEndpointZeroSamples(t *testing.T) {
	router := newTestRouter(newStubStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/checkout/compliance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ComplianceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.IsCompliant)
	require.Equal(t, models.RiskUnknown, result.RiskLevel)
}

func TestTrendEndpoint(t *testing.T) {
	store := newStubStore()
	for _, score := range []float64{90, 88, 86, 84, 82, 60, 58, 56, 54, 52} {
		store.snapshots["checkout"] = append(store.snapshots["checkout"], models.ScoreSnapshot{
			ServiceID:    "checkout",
			OverallScore: score,
		})
	}
	router := newTestRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/services/checkout/trend", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.TrendResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, models.TrendImproving, result.Trend)
}

func TestGenerateRecommendationsEndpoint(t *testing.T) {
	store := newStubStore()
	store.services = []models.Service{{ID: "checkout"}}
	store.metrics["checkout"] = []models.MetricSample{{
		ServiceID:        "checkout",
		Timestamp:        time.Now().Add(-time.Hour),
		UptimePercent:    90,
		ErrorRatePercent: 6,
	}}
	router := newTestRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/generate", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Recommendations, 2)
	require.Len(t, store.recs["checkout"], 2)
}

func TestOverviewEndpoint(t *testing.T) {
	store := newStubStore()
	store.services = []models.Service{{ID: "checkout"}}
	store.snapshots["checkout"] = []models.ScoreSnapshot{{ServiceID: "checkout", OverallScore: 92}}
	router := newTestRouter(store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var overview services.FleetOverview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Equal(t, 1, overview.TotalServices)
	require.Equal(t, 1, overview.ScoredServices)
}
