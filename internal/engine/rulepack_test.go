package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/posturestack/posture-engine/internal/models"
)

func TestLoadRulePack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(`rules:
  - condition: "uptime<95"
    category: availability
    severity: high
    title: Improve Service Uptime
    priority: 5
  - condition: "errorRate>5"
    category: reliability
    severity: high
    title: Reduce Error Rate
    priority: 4
`), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	pack, err := LoadRulePack(path, testLogger())
	if err != nil {
		t.Fatalf("load rule pack: %v", err)
	}
	if pack == nil {
		t.Fatalf("expected pack")
	}
	defer pack.Close()

	rules := pack.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Condition != models.ConditionLowUptime {
		t.Fatalf("expected uptime condition first, got %q", rules[0].Condition)
	}
	if rules[1].Severity != models.SeverityHigh {
		t.Fatalf("expected high severity, got %q", rules[1].Severity)
	}
}

func TestLoadRulePackMissingFile(t *testing.T) {
	pack, err := LoadRulePack(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if pack != nil {
		t.Fatalf("expected nil pack when file missing")
	}
	if rules := pack.Rules(); rules != nil {
		t.Fatalf("expected nil rules from nil pack, got %d", len(rules))
	}
}

func TestLoadRulePackEmptyPath(t *testing.T) {
	pack, err := LoadRulePack("", testLogger())
	if err != nil || pack != nil {
		t.Fatalf("expected nil pack and error for empty path, got %v %v", pack, err)
	}
}

func TestLoadRulePackMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("rules: [unterminated"), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	if _, err := LoadRulePack(path, testLogger()); err == nil {
		t.Fatalf("expected parse error")
	}
}
