package models

// ScoreWeights distributes the composite score across the four sub-scores.
// Weights are expected to sum to 1.0; the scoring engine does not enforce this
// and clamps the composite instead.
type ScoreWeights struct {
	Availability float64 `json:"availability" yaml:"availability"`
	Incident     float64 `json:"incident" yaml:"incident"`
	Redundancy   float64 `json:"redundancy" yaml:"redundancy"`
	Dependency   float64 `json:"dependency" yaml:"dependency"`
}

// ScoreThresholds name the display bands for a composite score. Display only;
// no computation depends on them.
type ScoreThresholds struct {
	Excellent float64 `json:"excellent" yaml:"excellent"`
	Good      float64 `json:"good" yaml:"good"`
	Fair      float64 `json:"fair" yaml:"fair"`
	Poor      float64 `json:"poor" yaml:"poor"`
}

// ScoringConfig is a versioned scoring document, immutable for one evaluation run.
type ScoringConfig struct {
	Version    string           `json:"version" yaml:"version"`
	Weights    *ScoreWeights    `json:"weights" yaml:"weights"`
	Thresholds *ScoreThresholds `json:"thresholds" yaml:"thresholds"`
}

// SLOConfig is a versioned document of service-level objective targets.
type SLOConfig struct {
	Version          string  `json:"version" yaml:"version"`
	TargetUptime     float64 `json:"targetUptime" yaml:"targetUptime"`
	TargetErrorRate  float64 `json:"targetErrorRate" yaml:"targetErrorRate"`
	TargetLatencyP95 float64 `json:"targetLatencyP95" yaml:"targetLatencyP95"`
	TargetLatencyP99 float64 `json:"targetLatencyP99" yaml:"targetLatencyP99"`
}
