package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/posturestack/posture-engine/internal/models"
)

// maxRecommendationsPerService caps the list kept after one generation pass.
// Truncation happens in rule-declaration order, not by priority.
const maxRecommendationsPerService = 5

// lowScoreThreshold triggers the synthetic low-resilience recommendation.
const lowScoreThreshold = 60

// FeatureVector is the per-service input the rules are evaluated against.
type FeatureVector struct {
	AvgUptime          float64
	AvgErrorRate       float64
	AvgLatencyP95      float64
	IncidentCount      int
	DependsOnCount     int
	CriticalDependency bool
	NoRecentMetrics    bool
	OverallScore       *float64
}

// predicates maps every known condition kind to its check. Conditions outside
// this table never fire.
var predicates = map[models.ConditionKind]func(FeatureVector) bool{
	models.ConditionLowUptime:          func(f FeatureVector) bool { return f.AvgUptime < 95 },
	models.ConditionHighErrorRate:      func(f FeatureVector) bool { return f.AvgErrorRate > 5 },
	models.ConditionFrequentIncidents:  func(f FeatureVector) bool { return f.IncidentCount > 3 },
	models.ConditionManyDependencies:   func(f FeatureVector) bool { return f.DependsOnCount > 5 },
	models.ConditionSlowResponses:      func(f FeatureVector) bool { return f.AvgLatencyP95 > 1000 },
	models.ConditionCriticalDependency: func(f FeatureVector) bool { return f.CriticalDependency },
	models.ConditionNoRecentMetrics:    func(f FeatureVector) bool { return f.NoRecentMetrics },
}

// RuleEngine evaluates a configured rule set against per-service feature vectors.
type RuleEngine struct {
	logger *slog.Logger
}

// NewRuleEngine constructs a rule engine.
func NewRuleEngine(logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleEngine{logger: logger}
}

// Build produces the replacement list of open recommendations for one service.
// Rules fire in declaration order; duplicates by title are dropped; a synthetic
// low-resilience item is appended when the latest composite score is below 60;
// the result is cut to the top five in that same order.
func (e *RuleEngine) Build(serviceID string, features FeatureVector, rules []models.RecommendationRule) []models.Recommendation {
	now := time.Now().UTC()
	recs := make([]models.Recommendation, 0, len(rules))
	seenTitles := make(map[string]struct{}, len(rules))

	for _, rule := range rules {
		pred, ok := predicates[rule.Condition]
		if !ok {
			// Unrecognized condition keys never fire; they are not errors.
			e.logger.Warn("unknown rule condition skipped",
				slog.String("condition", string(rule.Condition)), slog.String("service_id", serviceID))
			continue
		}
		if !pred(features) {
			continue
		}
		if _, dup := seenTitles[rule.Title]; dup {
			continue
		}
		seenTitles[rule.Title] = struct{}{}
		recs = append(recs, models.Recommendation{
			ID:             uuid.NewString(),
			ServiceID:      serviceID,
			Category:       rule.Category,
			Severity:       rule.Severity,
			Title:          rule.Title,
			Description:    rule.Description,
			ActionableText: rule.ActionableText,
			Priority:       rule.Priority,
			Status:         models.RecommendationOpen,
			CreatedAt:      now,
		})
	}

	if features.OverallScore != nil && *features.OverallScore < lowScoreThreshold {
		if _, dup := seenTitles["Low Resilience Score"]; !dup {
			recs = append(recs, models.Recommendation{
				ID:             uuid.NewString(),
				ServiceID:      serviceID,
				Category:       "resilience",
				Severity:       models.SeverityHigh,
				Title:          "Low Resilience Score",
				Description:    "The composite resilience score fell below 60.",
				ActionableText: "Review the availability, incident, and dependency sub-scores and remediate the weakest.",
				Priority:       5,
				Status:         models.RecommendationOpen,
				CreatedAt:      now,
			})
		}
	}

	if len(recs) > maxRecommendationsPerService {
		recs = recs[:maxRecommendationsPerService]
	}
	return recs
}
