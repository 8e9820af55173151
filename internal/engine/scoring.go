package engine

import (
	"math"
	"time"

	"github.com/posturestack/posture-engine/internal/aggregate"
	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/models"
)

// ScoringEngine combines the per-service aggregates into four sub-scores and a
// weighted composite. Pure: identical inputs always produce an identical
// snapshot apart from the computation timestamp.
type ScoringEngine struct{}

// NewScoringEngine creates a scoring engine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// ComputeScore produces a ScoreSnapshot for one service. The snapshot records
// the version of the scoring document used, so historical scores stay
// explainable after config changes. The ID is left for the persistence layer.
func (e *ScoringEngine) ComputeScore(
	service models.Service,
	metrics aggregate.MetricAggregate,
	incidents aggregate.IncidentAggregate,
	deps aggregate.DependencyDegree,
	cfg models.ScoringConfig,
) (models.ScoreSnapshot, error) {
	if cfg.Weights == nil {
		return models.ScoreSnapshot{}, &config.ConfigurationError{Document: "scoring", Field: "weights", Reason: "missing"}
	}

	availability := availabilityScore(metrics)
	incident := incidentScore(incidents)
	redundancy := redundancyScore(deps.DependsOnCount)
	dependency := dependencyScore(deps)

	overall := availability*cfg.Weights.Availability +
		incident*cfg.Weights.Incident +
		redundancy*cfg.Weights.Redundancy +
		dependency*cfg.Weights.Dependency

	return models.ScoreSnapshot{
		ServiceID:         service.ID,
		ComputedAt:        time.Now().UTC(),
		OverallScore:      clampScore(math.Round(overall)),
		AvailabilityScore: availability,
		IncidentScore:     incident,
		RedundancyScore:   redundancy,
		DependencyScore:   dependency,
		ConfigVersion:     cfg.Version,
	}, nil
}

// availabilityScore averages a boosted uptime term and an inverted error-rate term.
func availabilityScore(m aggregate.MetricAggregate) float64 {
	uptime := math.Min(100, m.AvgUptime*1.1)
	errTerm := math.Max(0, 100-m.AvgErrorRate*10)
	return clampScore(math.Round((uptime + errTerm) / 2))
}

// incidentScore saturates at 0 once the severity load reaches 50 weighted points.
func incidentScore(i aggregate.IncidentAggregate) float64 {
	if i.Count == 0 {
		return 100
	}
	return clampScore(math.Max(0, math.Round(100-i.SeverityLoad/50*100)))
}

// redundancyScore bands by fan-out as a stand-in for true redundancy analysis.
func redundancyScore(dependsOn int) float64 {
	switch {
	case dependsOn == 0:
		return 70
	case dependsOn <= 2:
		return 85
	case dependsOn <= 5:
		return 75
	default:
		return 60
	}
}

// dependencyScore penalises fan-out and fan-in complexity, floored at 0.
func dependencyScore(d aggregate.DependencyDegree) float64 {
	score := 100.0
	switch {
	case d.DependsOnCount > 10:
		score -= 30
	case d.DependsOnCount > 5:
		score -= 15
	case d.DependsOnCount > 3:
		score -= 5
	}
	switch {
	case d.DependentCount > 10:
		score -= 10
	case d.DependentCount > 5:
		score -= 5
	}
	return clampScore(score)
}

// Classify maps a composite score onto the configured display bands.
func Classify(score float64, t *models.ScoreThresholds) string {
	if t == nil {
		def := config.DefaultScoringConfig()
		t = def.Thresholds
	}
	switch {
	case score >= t.Excellent:
		return "excellent"
	case score >= t.Good:
		return "good"
	case score >= t.Fair:
		return "fair"
	default:
		return "poor"
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
