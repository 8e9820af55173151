package models

import "time"

// RecommendationStatus tracks the remediation lifecycle. A generation pass
// replaces all open recommendations for a service; the other states are
// immutable history and are never touched.
type RecommendationStatus string

const (
	RecommendationOpen       RecommendationStatus = "open"
	RecommendationInProgress RecommendationStatus = "in-progress"
	RecommendationCompleted  RecommendationStatus = "completed"
	RecommendationDismissed  RecommendationStatus = "dismissed"
)

// Recommendation is one prioritized remediation item for a service.
type Recommendation struct {
	ID             string               `json:"id"`
	ServiceID      string               `json:"serviceId"`
	Category       string               `json:"category"`
	Severity       Severity             `json:"severity"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	ActionableText string               `json:"actionableText"`
	Priority       int                  `json:"priority"`
	Status         RecommendationStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// ConditionKind enumerates the rule predicates the engine understands. Condition
// keys outside this set never fire; they are skipped, not errors.
type ConditionKind string

const (
	ConditionLowUptime          ConditionKind = "uptime<95"
	ConditionHighErrorRate      ConditionKind = "errorRate>5"
	ConditionFrequentIncidents  ConditionKind = "incidentCount>3"
	ConditionManyDependencies   ConditionKind = "dependencyCount>5"
	ConditionSlowResponses      ConditionKind = "latencyP95>1000"
	ConditionCriticalDependency ConditionKind = "criticalDependency"
	ConditionNoRecentMetrics    ConditionKind = "noRecentMetrics"
)

// RecommendationRule binds a condition to the recommendation it emits.
type RecommendationRule struct {
	Condition      ConditionKind `json:"condition" yaml:"condition"`
	Category       string        `json:"category" yaml:"category"`
	Severity       Severity      `json:"severity" yaml:"severity"`
	Title          string        `json:"title" yaml:"title"`
	Description    string        `json:"description" yaml:"description"`
	ActionableText string        `json:"actionableText" yaml:"actionableText"`
	Priority       int           `json:"priority" yaml:"priority"`
}
