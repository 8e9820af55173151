package aggregate

import (
	"time"

	"github.com/posturestack/posture-engine/internal/models"
)

// DefaultIncidentLookback bounds the incident window when none is configured.
const DefaultIncidentLookback = 30 * 24 * time.Hour

// severityWeights maps incident severity to its contribution to the load.
// Unknown severities count as 1.
var severityWeights = map[models.Severity]float64{
	models.SeverityCritical: 10,
	models.SeverityHigh:     5,
	models.SeverityMedium:   2,
	models.SeverityLow:      1,
}

// IncidentAggregate is a service's incident history reduced to a weighted load.
type IncidentAggregate struct {
	Count        int
	SeverityLoad float64
}

// IncidentAggregator reduces incident records over a lookback window. All
// incidents inside the window count equally regardless of recency.
type IncidentAggregator struct {
	Lookback time.Duration
}

// NewIncidentAggregator creates an aggregator with the default window.
func NewIncidentAggregator() *IncidentAggregator {
	return &IncidentAggregator{Lookback: DefaultIncidentLookback}
}

// Aggregate counts incidents whose start time falls inside the lookback window
// ending at now and sums their severity weights.
func (a *IncidentAggregator) Aggregate(incidents []models.IncidentRecord, now time.Time) IncidentAggregate {
	lookback := a.Lookback
	if lookback <= 0 {
		lookback = DefaultIncidentLookback
	}
	cutoff := now.Add(-lookback)

	var agg IncidentAggregate
	for _, inc := range incidents {
		if inc.StartTime.Before(cutoff) {
			continue
		}
		agg.Count++
		weight, ok := severityWeights[inc.Severity]
		if !ok {
			weight = 1
		}
		agg.SeverityLoad += weight
	}
	return agg
}
