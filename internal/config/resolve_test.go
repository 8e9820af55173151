package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/posturestack/posture-engine/internal/models"
)

type fakeSource struct {
	scoring    *models.ScoringConfig
	scoringErr error
	slo        *models.SLOConfig
	sloErr     error
	rules      []models.RecommendationRule
	rulesErr   error
}

func (s *fakeSource) GetScoringConfig(context.Context) (*models.ScoringConfig, error) {
	return s.scoring, s.scoringErr
}

func (s *fakeSource) GetSLOConfig(context.Context) (*models.SLOConfig, error) {
	return s.slo, s.sloErr
}

func (s *fakeSource) GetRecommendationRules(context.Context) ([]models.RecommendationRule, error) {
	return s.rules, s.rulesErr
}

func resolverLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestResolverNilSourceUsesDefaults(t *testing.T) {
	r := NewResolver(nil, resolverLogger())

	scoring, err := r.ScoringConfig(context.Background())
	if err != nil {
		t.Fatalf("scoring config: %v", err)
	}
	if scoring.Weights == nil || scoring.Weights.Availability != 0.4 {
		t.Fatalf("expected default weights, got %+v", scoring.Weights)
	}

	slo, err := r.SLOConfig(context.Background())
	if err != nil {
		t.Fatalf("slo config: %v", err)
	}
	if slo.TargetUptime != 99.9 {
		t.Fatalf("expected default uptime target, got %v", slo.TargetUptime)
	}

	rules, err := r.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules) != 7 {
		t.Fatalf("expected 7 default rules, got %d", len(rules))
	}
}

func TestResolverSourceErrorFallsBack(t *testing.T) {
	src := &fakeSource{
		scoringErr: errors.New("store down"),
		sloErr:     errors.New("store down"),
		rulesErr:   errors.New("store down"),
	}
	r := NewResolver(src, resolverLogger())

	scoring, err := r.ScoringConfig(context.Background())
	if err != nil {
		t.Fatalf("scoring config: %v", err)
	}
	if scoring.Version != "default" {
		t.Fatalf("expected default scoring config, got %q", scoring.Version)
	}

	rules, err := r.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules) != 7 {
		t.Fatalf("expected default rules on source error, got %d", len(rules))
	}
}

func TestResolverStoreDocumentWins(t *testing.T) {
	src := &fakeSource{
		scoring: &models.ScoringConfig{
			Version: "v42",
			Weights: &models.ScoreWeights{Availability: 0.25, Incident: 0.25, Redundancy: 0.25, Dependency: 0.25},
		},
	}
	r := NewResolver(src, resolverLogger())

	scoring, err := r.ScoringConfig(context.Background())
	if err != nil {
		t.Fatalf("scoring config: %v", err)
	}
	if scoring.Version != "v42" {
		t.Fatalf("expected stored document, got %q", scoring.Version)
	}
	if scoring.Thresholds == nil {
		t.Fatalf("expected default thresholds filled in")
	}
}

func TestResolverMissingWeightsFails(t *testing.T) {
	src := &fakeSource{scoring: &models.ScoringConfig{Version: "broken"}}
	r := NewResolver(src, resolverLogger())

	_, err := r.ScoringConfig(context.Background())
	if err == nil {
		t.Fatalf("expected error for document without weights")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if cfgErr.Document != "scoring" || cfgErr.Field != "weights" {
		t.Fatalf("unexpected error detail %+v", cfgErr)
	}
}

func TestResolverRulePrecedence(t *testing.T) {
	fileRules := []models.RecommendationRule{{Condition: models.ConditionLowUptime, Title: "From File"}}
	storeRules := []models.RecommendationRule{{Condition: models.ConditionLowUptime, Title: "From Store"}}

	// Fallback pack is used when the source has no rules.
	r := NewResolver(&fakeSource{}, resolverLogger())
	r.SetFallbackRules(fileRules)
	rules, err := r.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules) != 1 || rules[0].Title != "From File" {
		t.Fatalf("expected fallback rules, got %+v", rules)
	}

	// Store rules take precedence over the fallback pack.
	r = NewResolver(&fakeSource{rules: storeRules}, resolverLogger())
	r.SetFallbackRules(fileRules)
	rules, err = r.Rules(context.Background())
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules) != 1 || rules[0].Title != "From Store" {
		t.Fatalf("expected store rules, got %+v", rules)
	}
}
