package config

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/posturestack/posture-engine/internal/models"
)

// ConfigurationError reports a structurally malformed configuration document.
// Missing data elsewhere in the system is absorbed by defaults; a broken scoring
// document is the one condition that must fail fast, since silently substituted
// zero weights would corrupt every downstream score without signal.
type ConfigurationError struct {
	Document string
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: field %s: %s", e.Document, e.Field, e.Reason)
}

// Source supplies versioned configuration documents, typically the fleet store.
type Source interface {
	GetScoringConfig(ctx context.Context) (*models.ScoringConfig, error)
	GetSLOConfig(ctx context.Context) (*models.SLOConfig, error)
	GetRecommendationRules(ctx context.Context) ([]models.RecommendationRule, error)
}

// Resolver resolves the three configuration documents for an evaluation run,
// falling back to the built-in defaults when the source has none.
type Resolver struct {
	source        Source
	logger        *slog.Logger
	fallbackRules []models.RecommendationRule
}

// NewResolver constructs a Resolver. A nil source always resolves defaults.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{source: source, logger: logger}
}

// ScoringConfig returns the active scoring document or the default. A document
// present but missing its weights fails with ConfigurationError.
func (r *Resolver) ScoringConfig(ctx context.Context) (models.ScoringConfig, error) {
	if r.source == nil {
		return DefaultScoringConfig(), nil
	}
	doc, err := r.source.GetScoringConfig(ctx)
	if err != nil {
		r.logger.Warn("scoring config unavailable, using defaults", slog.Any("error", err))
		return DefaultScoringConfig(), nil
	}
	if doc == nil {
		return DefaultScoringConfig(), nil
	}
	if doc.Weights == nil {
		return models.ScoringConfig{}, &ConfigurationError{Document: "scoring", Field: "weights", Reason: "missing"}
	}
	if doc.Thresholds == nil {
		def := DefaultScoringConfig()
		doc.Thresholds = def.Thresholds
	}
	if sum := doc.Weights.Availability + doc.Weights.Incident + doc.Weights.Redundancy + doc.Weights.Dependency; math.Abs(sum-1.0) > 0.001 {
		// Accepted; the composite score is clamped downstream.
		r.logger.Warn("scoring weights do not sum to 1.0",
			slog.String("version", doc.Version), slog.Float64("sum", sum))
	}
	return *doc, nil
}

// SLOConfig returns the active SLO document or the default.
func (r *Resolver) SLOConfig(ctx context.Context) (models.SLOConfig, error) {
	if r.source == nil {
		return DefaultSLOConfig(), nil
	}
	doc, err := r.source.GetSLOConfig(ctx)
	if err != nil {
		r.logger.Warn("SLO config unavailable, using defaults", slog.Any("error", err))
		return DefaultSLOConfig(), nil
	}
	if doc == nil {
		return DefaultSLOConfig(), nil
	}
	return *doc, nil
}

// SetFallbackRules overrides the built-in default rule pack, typically with a
// file-loaded one. Store-configured rules still take precedence.
func (r *Resolver) SetFallbackRules(rules []models.RecommendationRule) {
	r.fallbackRules = rules
}

// Rules returns the configured rule set, the fallback pack, or the defaults.
func (r *Resolver) Rules(ctx context.Context) ([]models.RecommendationRule, error) {
	if r.source != nil {
		rules, err := r.source.GetRecommendationRules(ctx)
		if err != nil {
			r.logger.Warn("recommendation rules unavailable, using fallback", slog.Any("error", err))
		} else if len(rules) > 0 {
			return rules, nil
		}
	}
	if len(r.fallbackRules) > 0 {
		return r.fallbackRules, nil
	}
	return DefaultRules(), nil
}
