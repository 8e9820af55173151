package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/posturestack/posture-engine/internal/aggregate"
	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/engine"
	"github.com/posturestack/posture-engine/internal/metrics"
	"github.com/posturestack/posture-engine/internal/models"
	"github.com/posturestack/posture-engine/internal/utils"
)

// Store defines the fleet-store operations the posture service depends on.
type Store interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ListRecentMetrics(ctx context.Context, serviceID string, windowStart time.Time) ([]models.MetricSample, error)
	ListRecentIncidents(ctx context.Context, serviceID string, windowStart time.Time) ([]models.IncidentRecord, error)
	ListDependencyEdges(ctx context.Context, serviceID string) ([]models.DependencyEdge, error)
	StoreSnapshot(ctx context.Context, snapshot models.ScoreSnapshot) error
	ListSnapshots(ctx context.Context, serviceID string, limit int) ([]models.ScoreSnapshot, error)
	ListRecommendations(ctx context.Context, serviceID string) ([]models.Recommendation, error)
	ReplaceOpenRecommendations(ctx context.Context, serviceID string, recs []models.Recommendation) error
}

// ServiceEvaluation is the result of scoring one service.
type ServiceEvaluation struct {
	Service        models.Service          `json:"service"`
	Snapshot       models.ScoreSnapshot    `json:"snapshot"`
	Compliance     models.ComplianceResult `json:"compliance"`
	Classification string                  `json:"classification"`
}

// FleetRunResult summarises one full evaluation pass.
type FleetRunResult struct {
	Evaluations []ServiceEvaluation `json:"evaluations"`
	Failed      []string            `json:"failed,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	Duration    time.Duration       `json:"duration"`
}

// FleetOverview summarises the latest posture of the whole fleet.
type FleetOverview struct {
	TotalServices  int            `json:"totalServices"`
	ScoredServices int            `json:"scoredServices"`
	AverageScore   float64        `json:"averageScore"`
	Bands          map[string]int `json:"bands"`
	RiskCounts     map[string]int `json:"riskCounts"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}

// PostureService orchestrates aggregation, scoring, compliance, trend, and
// recommendation generation over the fleet store.
type PostureService struct {
	logger       *slog.Logger
	store        Store
	resolver     *config.Resolver
	metricAgg    *aggregate.MetricAggregator
	incidentAgg  *aggregate.IncidentAggregator
	dependencies *aggregate.DependencyAnalyzer
	scoring      *engine.ScoringEngine
	compliance   *engine.ComplianceEvaluator
	rules        *engine.RuleEngine
	trends       *engine.TrendAnalyzer
	latencies    *utils.LatencyTracker
	maxParallel  int
}

// NewPostureService constructs the service facade.
func NewPostureService(logger *slog.Logger, store Store, resolver *config.Resolver, run config.ScoringRunConfig) *PostureService {
	if logger == nil {
		logger = slog.Default()
	}
	metricAgg := aggregate.NewMetricAggregator()
	if run.MetricLookback > 0 {
		metricAgg.Lookback = run.MetricLookback
	}
	incidentAgg := aggregate.NewIncidentAggregator()
	if run.IncidentLookback > 0 {
		incidentAgg.Lookback = run.IncidentLookback
	}
	maxParallel := run.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 8
	}

	return &PostureService{
		logger:       logger,
		store:        store,
		resolver:     resolver,
		metricAgg:    metricAgg,
		incidentAgg:  incidentAgg,
		dependencies: aggregate.NewDependencyAnalyzer(),
		scoring:      engine.NewScoringEngine(),
		compliance:   engine.NewComplianceEvaluator(),
		rules:        engine.NewRuleEngine(logger),
		trends:       engine.NewTrendAnalyzer(),
		latencies:    utils.NewLatencyTracker(1024),
		maxParallel:  maxParallel,
	}
}

// EvaluateService scores one service and persists the snapshot.
func (s *PostureService) EvaluateService(ctx context.Context, service models.Service) (ServiceEvaluation, error) {
	scoringCfg, err := s.resolver.ScoringConfig(ctx)
	if err != nil {
		return ServiceEvaluation{}, err
	}
	sloCfg, err := s.resolver.SLOConfig(ctx)
	if err != nil {
		return ServiceEvaluation{}, err
	}
	return s.evaluateWithConfig(ctx, service, scoringCfg, sloCfg)
}

// EvaluateFleet scores every service. Services are independent, so they are
// evaluated in parallel under a bounded worker count; configuration documents
// are resolved once and shared read-only across the run.
func (s *PostureService) EvaluateFleet(ctx context.Context) (FleetRunResult, error) {
	start := time.Now()

	servicesList, err := s.store.ListServices(ctx)
	if err != nil {
		return FleetRunResult{}, fmt.Errorf("list services: %w", err)
	}
	scoringCfg, err := s.resolver.ScoringConfig(ctx)
	if err != nil {
		return FleetRunResult{}, err
	}
	sloCfg, err := s.resolver.SLOConfig(ctx)
	if err != nil {
		return FleetRunResult{}, err
	}

	type outcome struct {
		eval ServiceEvaluation
		err  error
		id   string
	}

	sem := make(chan struct{}, s.maxParallel)
	outcomes := make([]outcome, len(servicesList))
	var wg sync.WaitGroup
	for i, svc := range servicesList {
		wg.Add(1)
		go func(i int, svc models.Service) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			eval, err := s.evaluateWithConfig(ctx, svc, scoringCfg, sloCfg)
			outcomes[i] = outcome{eval: eval, err: err, id: svc.ID}
		}(i, svc)
	}
	wg.Wait()

	result := FleetRunResult{StartedAt: start.UTC()}
	for _, o := range outcomes {
		if o.err != nil {
			s.logger.Error("service evaluation failed", slog.String("service_id", o.id), slog.Any("error", o.err))
			result.Failed = append(result.Failed, o.id)
			continue
		}
		result.Evaluations = append(result.Evaluations, o.eval)
	}
	result.Duration = time.Since(start)

	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("evaluation latency", slog.Duration("p95", s.latencies.Percentile(95)), slog.Int("samples", count))
	}
	return result, nil
}

func (s *PostureService) evaluateWithConfig(ctx context.Context, service models.Service, scoringCfg models.ScoringConfig, sloCfg models.SLOConfig) (ServiceEvaluation, error) {
	start := time.Now()
	now := start.UTC()

	features, metricAgg, err := s.collectAggregates(ctx, service.ID, now)
	if err != nil {
		metrics.ObserveEvaluation(time.Since(start), metrics.OutcomeError)
		return ServiceEvaluation{}, err
	}

	snapshot, err := s.scoring.ComputeScore(service, metricAgg, features.incidents, features.degree, scoringCfg)
	if err != nil {
		metrics.ObserveEvaluation(time.Since(start), metrics.OutcomeError)
		return ServiceEvaluation{}, err
	}
	snapshot.ID = uuid.NewString()

	if err := s.store.StoreSnapshot(ctx, snapshot); err != nil {
		metrics.ObserveEvaluation(time.Since(start), metrics.OutcomeError)
		return ServiceEvaluation{}, fmt.Errorf("persist snapshot: %w", err)
	}

	compliance := s.compliance.Evaluate(service.ID, metricAgg, sloCfg)

	duration := time.Since(start)
	s.latencies.Observe(duration)
	metrics.ObserveEvaluation(duration, metrics.OutcomeSuccess)

	return ServiceEvaluation{
		Service:        service,
		Snapshot:       snapshot,
		Compliance:     compliance,
		Classification: engine.Classify(snapshot.OverallScore, scoringCfg.Thresholds),
	}, nil
}

// Compliance evaluates one service's SLO position without persisting anything.
func (s *PostureService) Compliance(ctx context.Context, serviceID string) (models.ComplianceResult, error) {
	sloCfg, err := s.resolver.SLOConfig(ctx)
	if err != nil {
		return models.ComplianceResult{}, err
	}
	now := time.Now().UTC()
	samples, err := s.store.ListRecentMetrics(ctx, serviceID, utils.WindowStart(now, s.metricAgg.Lookback, aggregate.DefaultMetricLookback))
	if err != nil {
		return models.ComplianceResult{}, fmt.Errorf("list metrics: %w", err)
	}
	return s.compliance.Evaluate(serviceID, s.metricAgg.Aggregate(samples, now), sloCfg), nil
}

// Trend analyses a service's score history.
func (s *PostureService) Trend(ctx context.Context, serviceID string) (models.TrendResult, error) {
	history, err := s.store.ListSnapshots(ctx, serviceID, 10)
	if err != nil {
		return models.TrendResult{}, fmt.Errorf("list snapshots: %w", err)
	}
	return s.trends.Analyze(history), nil
}

// LatestScore returns a service's most recent snapshot, if any.
func (s *PostureService) LatestScore(ctx context.Context, serviceID string) (*models.ScoreSnapshot, error) {
	history, err := s.store.ListSnapshots(ctx, serviceID, 1)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}

// Recommendations returns a service's stored recommendations.
func (s *PostureService) Recommendations(ctx context.Context, serviceID string) ([]models.Recommendation, error) {
	return s.store.ListRecommendations(ctx, serviceID)
}

// GenerateRecommendations rebuilds every service's open recommendations. Each
// service's old open list is replaced atomically by the store; other statuses
// are untouched. Running twice on unchanged inputs yields the same open set.
func (s *PostureService) GenerateRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	servicesList, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	rules, err := s.resolver.Rules(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var all []models.Recommendation
	for _, svc := range servicesList {
		features, metricAgg, err := s.collectAggregates(ctx, svc.ID, now)
		if err != nil {
			s.logger.Error("feature collection failed", slog.String("service_id", svc.ID), slog.Any("error", err))
			continue
		}

		vector := engine.FeatureVector{
			AvgUptime:          metricAgg.AvgUptime,
			AvgErrorRate:       metricAgg.AvgErrorRate,
			AvgLatencyP95:      metricAgg.AvgLatencyP95,
			IncidentCount:      features.incidents.Count,
			DependsOnCount:     features.degree.DependsOnCount,
			CriticalDependency: features.degree.DependentCount > 5,
			NoRecentMetrics:    metricAgg.SampleCount == 0,
		}
		if latest, err := s.LatestScore(ctx, svc.ID); err == nil && latest != nil {
			score := latest.OverallScore
			vector.OverallScore = &score
		}

		recs := s.rules.Build(svc.ID, vector, rules)
		if err := s.store.ReplaceOpenRecommendations(ctx, svc.ID, recs); err != nil {
			s.logger.Error("recommendation replace failed", slog.String("service_id", svc.ID), slog.Any("error", err))
			continue
		}
		metrics.ObserveRecommendations(len(recs))
		all = append(all, recs...)
	}
	return all, nil
}

// Overview summarises the fleet's latest posture.
func (s *PostureService) Overview(ctx context.Context) (FleetOverview, error) {
	servicesList, err := s.store.ListServices(ctx)
	if err != nil {
		return FleetOverview{}, fmt.Errorf("list services: %w", err)
	}
	scoringCfg, err := s.resolver.ScoringConfig(ctx)
	if err != nil {
		return FleetOverview{}, err
	}

	overview := FleetOverview{
		TotalServices: len(servicesList),
		Bands:         make(map[string]int),
		RiskCounts:    make(map[string]int),
		GeneratedAt:   time.Now().UTC(),
	}

	sum := 0.0
	for _, svc := range servicesList {
		latest, err := s.LatestScore(ctx, svc.ID)
		if err != nil || latest == nil {
			continue
		}
		overview.ScoredServices++
		sum += latest.OverallScore
		overview.Bands[engine.Classify(latest.OverallScore, scoringCfg.Thresholds)]++

		compliance, err := s.Compliance(ctx, svc.ID)
		if err != nil {
			continue
		}
		overview.RiskCounts[string(compliance.RiskLevel)]++
	}
	if overview.ScoredServices > 0 {
		overview.AverageScore = sum / float64(overview.ScoredServices)
	}
	return overview, nil
}

type aggregates struct {
	incidents aggregate.IncidentAggregate
	degree    aggregate.DependencyDegree
}

func (s *PostureService) collectAggregates(ctx context.Context, serviceID string, now time.Time) (aggregates, aggregate.MetricAggregate, error) {
	samples, err := s.store.ListRecentMetrics(ctx, serviceID, utils.WindowStart(now, s.metricAgg.Lookback, aggregate.DefaultMetricLookback))
	if err != nil {
		return aggregates{}, aggregate.MetricAggregate{}, fmt.Errorf("list metrics: %w", err)
	}
	incidents, err := s.store.ListRecentIncidents(ctx, serviceID, utils.WindowStart(now, s.incidentAgg.Lookback, aggregate.DefaultIncidentLookback))
	if err != nil {
		return aggregates{}, aggregate.MetricAggregate{}, fmt.Errorf("list incidents: %w", err)
	}
	edges, err := s.store.ListDependencyEdges(ctx, serviceID)
	if err != nil {
		return aggregates{}, aggregate.MetricAggregate{}, fmt.Errorf("list dependencies: %w", err)
	}

	return aggregates{
		incidents: s.incidentAgg.Aggregate(incidents, now),
		degree:    s.dependencies.Degree(edges, serviceID),
	}, s.metricAgg.Aggregate(samples, now), nil
}
