package aggregate

import (
	"sort"
	"time"

	"github.com/posturestack/posture-engine/internal/models"
)

const (
	// DefaultMetricLookback bounds the metric window when none is configured.
	DefaultMetricLookback = 7 * 24 * time.Hour
	// DefaultMetricLimit caps the sample count when no window applies.
	DefaultMetricLimit = 7

	// Sentinel aggregates reported when a service has no samples in-window.
	// Absent telemetry assumes nominal health rather than zero.
	DefaultAvgUptime    = 95.0
	DefaultAvgErrorRate = 1.0
)

// MetricAggregate is a service's metric series reduced to point estimates.
type MetricAggregate struct {
	AvgUptime     float64
	AvgErrorRate  float64
	AvgLatencyP95 float64
	AvgLatencyP99 float64
	SampleCount   int
}

// MetricAggregator reduces raw samples over a lookback window into unweighted means.
type MetricAggregator struct {
	Lookback time.Duration
	Limit    int
}

// NewMetricAggregator creates an aggregator with the default window and limit.
func NewMetricAggregator() *MetricAggregator {
	return &MetricAggregator{Lookback: DefaultMetricLookback, Limit: DefaultMetricLimit}
}

// Aggregate reduces the samples falling inside the lookback window ending at now.
// With a zero lookback the most recent Limit samples are used instead. Zero
// in-window samples yield the documented nominal-health sentinel.
func (a *MetricAggregator) Aggregate(samples []models.MetricSample, now time.Time) MetricAggregate {
	window := a.windowed(samples, now)
	if len(window) == 0 {
		return MetricAggregate{
			AvgUptime:    DefaultAvgUptime,
			AvgErrorRate: DefaultAvgErrorRate,
		}
	}

	agg := MetricAggregate{SampleCount: len(window)}
	for _, s := range window {
		agg.AvgUptime += s.UptimePercent
		agg.AvgErrorRate += s.ErrorRatePercent
		agg.AvgLatencyP95 += s.LatencyP95
		agg.AvgLatencyP99 += s.LatencyP99
	}
	n := float64(len(window))
	agg.AvgUptime /= n
	agg.AvgErrorRate /= n
	agg.AvgLatencyP95 /= n
	agg.AvgLatencyP99 /= n
	return agg
}

func (a *MetricAggregator) windowed(samples []models.MetricSample, now time.Time) []models.MetricSample {
	if a.Lookback > 0 {
		cutoff := now.Add(-a.Lookback)
		window := make([]models.MetricSample, 0, len(samples))
		for _, s := range samples {
			if !s.Timestamp.Before(cutoff) {
				window = append(window, s)
			}
		}
		return window
	}

	limit := a.Limit
	if limit <= 0 {
		limit = DefaultMetricLimit
	}
	if len(samples) <= limit {
		return samples
	}
	sorted := append([]models.MetricSample(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	return sorted[:limit]
}
