package models

import "time"

// ScoreSnapshot is one append-only scoring result for a service. ConfigVersion
// records the ScoringConfig active at computation time so historical scores stay
// explainable without re-deriving weights.
type ScoreSnapshot struct {
	ID                string    `json:"id"`
	ServiceID         string    `json:"serviceId"`
	ComputedAt        time.Time `json:"computedAt"`
	OverallScore      float64   `json:"overallScore"`
	AvailabilityScore float64   `json:"availabilityScore"`
	IncidentScore     float64   `json:"incidentScore"`
	RedundancyScore   float64   `json:"redundancyScore"`
	DependencyScore   float64   `json:"dependencyScore"`
	ConfigVersion     string    `json:"configVersion"`
}

// RiskLevel classifies SLO risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskUnknown RiskLevel = "unknown"
)

// ComplianceResult reports the four SLO checks for one service.
type ComplianceResult struct {
	ServiceID           string    `json:"serviceId"`
	UptimeCompliant     bool      `json:"uptimeCompliant"`
	ErrorRateCompliant  bool      `json:"errorRateCompliant"`
	LatencyP95Compliant bool      `json:"latencyP95Compliant"`
	LatencyP99Compliant bool      `json:"latencyP99Compliant"`
	IsCompliant         bool      `json:"isCompliant"`
	RiskLevel           RiskLevel `json:"riskLevel"`
	EvaluatedAt         time.Time `json:"evaluatedAt"`
}

// TrendDirection labels score movement over the snapshot history.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendResult summarises score direction and spread for one service.
type TrendResult struct {
	Trend      TrendDirection `json:"trend"`
	Volatility float64        `json:"volatility"`
}
