package engine

import (
	"time"

	"github.com/posturestack/posture-engine/internal/aggregate"
	"github.com/posturestack/posture-engine/internal/models"
)

// ComplianceEvaluator compares aggregated metrics against SLO targets.
type ComplianceEvaluator struct{}

// NewComplianceEvaluator creates an SLO compliance evaluator.
func NewComplianceEvaluator() *ComplianceEvaluator {
	return &ComplianceEvaluator{}
}

// Evaluate runs the four SLO checks and derives a risk level. With zero samples
// the verdict is non-compliant with unknown risk: the opposite policy from the
// metric aggregator's nominal-health sentinel, never a favorable guess.
func (e *ComplianceEvaluator) Evaluate(serviceID string, m aggregate.MetricAggregate, slo models.SLOConfig) models.ComplianceResult {
	result := models.ComplianceResult{
		ServiceID:   serviceID,
		EvaluatedAt: time.Now().UTC(),
	}

	if m.SampleCount == 0 {
		result.RiskLevel = models.RiskUnknown
		return result
	}

	result.UptimeCompliant = m.AvgUptime >= slo.TargetUptime
	result.ErrorRateCompliant = m.AvgErrorRate <= slo.TargetErrorRate
	result.LatencyP95Compliant = m.AvgLatencyP95 <= slo.TargetLatencyP95
	result.LatencyP99Compliant = m.AvgLatencyP99 <= slo.TargetLatencyP99
	result.IsCompliant = result.UptimeCompliant &&
		result.ErrorRateCompliant &&
		result.LatencyP95Compliant &&
		result.LatencyP99Compliant

	// Risk is graded independently of the overall verdict.
	switch {
	case !result.UptimeCompliant || m.AvgErrorRate > slo.TargetErrorRate*2:
		result.RiskLevel = models.RiskHigh
	case !result.ErrorRateCompliant || !result.LatencyP95Compliant:
		result.RiskLevel = models.RiskMedium
	default:
		result.RiskLevel = models.RiskLow
	}

	return result
}
