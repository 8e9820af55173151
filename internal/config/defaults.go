package config

import "github.com/posturestack/posture-engine/internal/models"

// Fallback documents used whenever the fleet store has no active configuration.
// Every component receives its defaults from here; nothing else hardcodes them.

// DefaultScoringConfig returns the built-in scoring weights and display thresholds.
func DefaultScoringConfig() models.ScoringConfig {
	return models.ScoringConfig{
		Version: "default",
		Weights: &models.ScoreWeights{
			Availability: 0.4,
			Incident:     0.3,
			Redundancy:   0.2,
			Dependency:   0.1,
		},
		Thresholds: &models.ScoreThresholds{
			Excellent: 90,
			Good:      75,
			Fair:      60,
			Poor:      0,
		},
	}
}

// DefaultSLOConfig returns the built-in SLO targets.
func DefaultSLOConfig() models.SLOConfig {
	return models.SLOConfig{
		Version:          "default",
		TargetUptime:     99.9,
		TargetErrorRate:  1.0,
		TargetLatencyP95: 1000,
		TargetLatencyP99: 2000,
	}
}

// DefaultRules returns the built-in recommendation rule set, one rule per
// known condition, in evaluation order.
func DefaultRules() []models.RecommendationRule {
	return []models.RecommendationRule{
		{
			Condition:      models.ConditionLowUptime,
			Category:       "availability",
			Severity:       models.SeverityHigh,
			Title:          "Improve Service Uptime",
			Description:    "Average uptime over the lookback window is below 95%.",
			ActionableText: "Add health checks and automated restarts; review recent deploy failures.",
			Priority:       5,
		},
		{
			Condition:      models.ConditionHighErrorRate,
			Category:       "reliability",
			Severity:       models.SeverityHigh,
			Title:          "Reduce Error Rate",
			Description:    "Average error rate over the lookback window exceeds 5%.",
			ActionableText: "Inspect error budgets and recent releases; add retries with backoff on flaky dependencies.",
			Priority:       4,
		},
		{
			Condition:      models.ConditionFrequentIncidents,
			Category:       "incidents",
			Severity:       models.SeverityMedium,
			Title:          "Address Recurring Incidents",
			Description:    "More than three incidents were recorded in the lookback window.",
			ActionableText: "Run a postmortem across recent incidents and fix the shared root causes.",
			Priority:       4,
		},
		{
			Condition:      models.ConditionManyDependencies,
			Category:       "architecture",
			Severity:       models.SeverityMedium,
			Title:          "Reduce Dependency Fan-Out",
			Description:    "The service depends directly on more than five other services.",
			ActionableText: "Consolidate calls behind a facade or cache results from stable dependencies.",
			Priority:       3,
		},
		{
			Condition:      models.ConditionSlowResponses,
			Category:       "performance",
			Severity:       models.SeverityMedium,
			Title:          "Improve P95 Latency",
			Description:    "P95 latency exceeds 1000ms over the lookback window.",
			ActionableText: "Profile hot paths and add caching or pagination for expensive queries.",
			Priority:       3,
		},
		{
			Condition:      models.ConditionCriticalDependency,
			Category:       "architecture",
			Severity:       models.SeverityHigh,
			Title:          "Harden Critical Dependency",
			Description:    "More than five services depend on this one; an outage cascades widely.",
			ActionableText: "Add redundancy and load shedding; document degradation modes for consumers.",
			Priority:       4,
		},
		{
			Condition:      models.ConditionNoRecentMetrics,
			Category:       "observability",
			Severity:       models.SeverityMedium,
			Title:          "Restore Metric Reporting",
			Description:    "No metric samples were received in the lookback window.",
			ActionableText: "Verify the metrics agent and scrape configuration for this service.",
			Priority:       2,
		},
	}
}
