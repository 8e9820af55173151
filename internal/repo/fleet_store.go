package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/posturestack/posture-engine/internal/cache"
	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/models"
	"github.com/posturestack/posture-engine/internal/resilience"
	"github.com/posturestack/posture-engine/internal/utils"
)

// FleetStoreClient wraps the fleet store APIs: raw telemetry reads,
// configuration documents, and score/recommendation persistence. Retry and
// circuit-breaker behaviour lives here, at the collaborator boundary; the
// scoring core never retries.
type FleetStoreClient struct {
	baseURL             string
	metricsPath         string
	incidentsPath       string
	dependenciesPath    string
	configPath          string
	snapshotsPath       string
	recommendationsPath string
	httpClient          *http.Client
	retry               resilience.RetryPolicy
	breaker             *resilience.CircuitBreaker
	cache               cache.Provider
	dependencyTTL       time.Duration
	configTTL           time.Duration
}

// NewFleetStoreClient constructs a client targeting the configured fleet store.
func NewFleetStoreClient(cfg config.StoreConfig, cacheProvider cache.Provider, dependencyTTL, configTTL time.Duration) *FleetStoreClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retry := resilience.DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	retry.InitialDelay = 200 * time.Millisecond

	return &FleetStoreClient{
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		metricsPath:         cfg.MetricsPath,
		incidentsPath:       cfg.IncidentsPath,
		dependenciesPath:    cfg.DependenciesPath,
		configPath:          cfg.ConfigPath,
		snapshotsPath:       cfg.SnapshotsPath,
		recommendationsPath: cfg.RecommendationsPath,
		httpClient:          &http.Client{Timeout: timeout},
		retry:               retry,
		breaker:             resilience.NewCircuitBreaker("fleet-store", 5, 2, 30*time.Second),
		cache:               cacheProvider,
		dependencyTTL:       dependencyTTL,
		configTTL:           configTTL,
	}
}

// ListRecentMetrics returns a service's metric samples from windowStart onward.
func (c *FleetStoreClient) ListRecentMetrics(ctx context.Context, serviceID string, windowStart time.Time) ([]models.MetricSample, error) {
	var response struct {
		Samples []models.MetricSample `json:"samples"`
	}
	query := url.Values{
		"serviceId":   {serviceID},
		"windowStart": {windowStart.Format(time.RFC3339)},
	}
	if err := c.getJSON(ctx, c.metricsPath, query, &response); err != nil {
		return nil, fmt.Errorf("fleet store metrics request failed: %w", err)
	}
	return response.Samples, nil
}

// ListRecentIncidents returns a service's incidents starting from windowStart onward.
func (c *FleetStoreClient) ListRecentIncidents(ctx context.Context, serviceID string, windowStart time.Time) ([]models.IncidentRecord, error) {
	var response struct {
		Incidents []models.IncidentRecord `json:"incidents"`
	}
	query := url.Values{
		"serviceId":   {serviceID},
		"windowStart": {windowStart.Format(time.RFC3339)},
	}
	if err := c.getJSON(ctx, c.incidentsPath, query, &response); err != nil {
		return nil, fmt.Errorf("fleet store incidents request failed: %w", err)
	}
	return response.Incidents, nil
}

// ListDependencyEdges returns all dependency edges, or those touching serviceID
// as source or target when it is non-empty. The full edge set is cached.
func (c *FleetStoreClient) ListDependencyEdges(ctx context.Context, serviceID string) ([]models.DependencyEdge, error) {
	cacheKey := "posture:dependencies:" + serviceID
	if c.dependencyTTL > 0 {
		if payload, err := c.cache.Get(ctx, cacheKey); err == nil {
			var edges []models.DependencyEdge
			if err := json.Unmarshal(payload, &edges); err == nil {
				return edges, nil
			}
		}
	}

	var response struct {
		Edges []models.DependencyEdge `json:"edges"`
	}
	query := url.Values{}
	if serviceID != "" {
		query.Set("serviceId", serviceID)
	}
	if err := c.getJSON(ctx, c.dependenciesPath, query, &response); err != nil {
		return nil, fmt.Errorf("fleet store dependencies request failed: %w", err)
	}

	if c.dependencyTTL > 0 {
		if payload, err := json.Marshal(response.Edges); err == nil {
			_ = c.cache.Set(ctx, cacheKey, payload, c.dependencyTTL)
		}
	}
	return response.Edges, nil
}

// ListServices returns the fleet membership.
func (c *FleetStoreClient) ListServices(ctx context.Context) ([]models.Service, error) {
	var response struct {
		Services []models.Service `json:"services"`
	}
	if err := c.getJSON(ctx, c.configPath+"/services", nil, &response); err != nil {
		return nil, fmt.Errorf("fleet store services request failed: %w", err)
	}
	return response.Services, nil
}

// GetScoringConfig returns the active scoring document, nil when none is set.
func (c *FleetStoreClient) GetScoringConfig(ctx context.Context) (*models.ScoringConfig, error) {
	var doc models.ScoringConfig
	found, err := c.getConfigDoc(ctx, "scoring", &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// GetSLOConfig returns the active SLO document, nil when none is set.
func (c *FleetStoreClient) GetSLOConfig(ctx context.Context) (*models.SLOConfig, error) {
	var doc models.SLOConfig
	found, err := c.getConfigDoc(ctx, "slo", &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// GetRecommendationRules returns the configured rule set, empty when none is set.
func (c *FleetStoreClient) GetRecommendationRules(ctx context.Context) ([]models.RecommendationRule, error) {
	var doc struct {
		Rules []models.RecommendationRule `json:"rules"`
	}
	found, err := c.getConfigDoc(ctx, "rules", &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.Rules, nil
}

// StoreSnapshot appends one score snapshot. Snapshots are never mutated.
func (c *FleetStoreClient) StoreSnapshot(ctx context.Context, snapshot models.ScoreSnapshot) error {
	if err := c.postJSON(ctx, c.snapshotsPath, snapshot, nil); err != nil {
		return fmt.Errorf("fleet store snapshot write failed: %w", err)
	}
	return nil
}

// ListSnapshots returns up to limit snapshots for a service, most recent first.
func (c *FleetStoreClient) ListSnapshots(ctx context.Context, serviceID string, limit int) ([]models.ScoreSnapshot, error) {
	var response struct {
		Snapshots []models.ScoreSnapshot `json:"snapshots"`
	}
	query := url.Values{"serviceId": {serviceID}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if err := c.getJSON(ctx, c.snapshotsPath, query, &response); err != nil {
		return nil, fmt.Errorf("fleet store snapshots request failed: %w", err)
	}
	return response.Snapshots, nil
}

// ListRecommendations returns a service's recommendations across all statuses.
func (c *FleetStoreClient) ListRecommendations(ctx context.Context, serviceID string) ([]models.Recommendation, error) {
	var response struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	query := url.Values{"serviceId": {serviceID}}
	if err := c.getJSON(ctx, c.recommendationsPath, query, &response); err != nil {
		return nil, fmt.Errorf("fleet store recommendations request failed: %w", err)
	}
	return response.Recommendations, nil
}

// ReplaceOpenRecommendations atomically swaps a service's open recommendations
// for the supplied list. The store must never expose a window with the old
// list gone and the new one absent; a single PUT conveys that contract.
func (c *FleetStoreClient) ReplaceOpenRecommendations(ctx context.Context, serviceID string, recs []models.Recommendation) error {
	payload := struct {
		ServiceID       string                  `json:"serviceId"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}{ServiceID: serviceID, Recommendations: recs}

	if err := c.putJSON(ctx, c.recommendationsPath+"/open", payload, nil); err != nil {
		return fmt.Errorf("fleet store recommendation replace failed: %w", err)
	}
	return nil
}

// Ping probes store reachability for health reporting.
func (c *FleetStoreClient) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return fmt.Errorf("fleet store base URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("fleet store health returned status %d", resp.StatusCode)
	}
	return nil
}

// getConfigDoc fetches one versioned configuration document with cache-aside.
// found=false means the store has no active document of that kind (HTTP 404).
func (c *FleetStoreClient) getConfigDoc(ctx context.Context, kind string, out interface{}) (bool, error) {
	cacheKey := "posture:config:" + kind
	if c.configTTL > 0 {
		if payload, err := c.cache.Get(ctx, cacheKey); err == nil {
			if err := json.Unmarshal(payload, out); err == nil {
				return true, nil
			}
		}
	}

	body, status, err := c.do(ctx, http.MethodGet, c.configPath+"/"+kind, nil, nil)
	if err != nil {
		return false, fmt.Errorf("fleet store %s config request failed: %w", kind, err)
	}
	if status == http.StatusNotFound {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode %s config: %w", kind, err)
	}

	if c.configTTL > 0 {
		_ = c.cache.Set(ctx, cacheKey, body, c.configTTL)
	}
	return true, nil
}

func (c *FleetStoreClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, status, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *FleetStoreClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.writeJSON(ctx, http.MethodPost, path, payload, out)
}

func (c *FleetStoreClient) putJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.writeJSON(ctx, http.MethodPut, path, payload, out)
}

func (c *FleetStoreClient) writeJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	body, status, err := c.do(ctx, method, path, nil, encoded)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// do issues one HTTP request through the breaker and retry policy. A 404 is
// handed back to the caller; server errors and transport failures are retried.
func (c *FleetStoreClient) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, int, error) {
	if c == nil {
		return nil, 0, utils.NewAppError("fleetstore.request", "client not initialised", nil)
	}
	if c.baseURL == "" {
		return nil, 0, utils.NewAppError("fleetstore.request", "base URL not configured", nil)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body []byte
	var status int
	err := c.retry.Execute(ctx, func(ctx context.Context) error {
		return c.breaker.Call(func() error {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, target, reader)
			if err != nil {
				return err
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("fleet store returned status %d", resp.StatusCode)
			}
			body = data
			status = resp.StatusCode
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}
	return body, status, nil
}
