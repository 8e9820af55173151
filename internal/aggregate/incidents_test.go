package aggregate

import (
	"testing"
	"time"

	"github.com/posturestack/posture-engine/internal/models"
)

func incidentAt(ts time.Time, severity models.Severity) models.IncidentRecord {
	return models.IncidentRecord{
		ServiceID: "checkout",
		Severity:  severity,
		StartTime: ts,
		Status:    models.IncidentResolved,
	}
}

func TestIncidentAggregateSeverityLoad(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	incidents := []models.IncidentRecord{
		incidentAt(now.Add(-24*time.Hour), models.SeverityCritical),
		incidentAt(now.Add(-48*time.Hour), models.SeverityHigh),
		incidentAt(now.Add(-72*time.Hour), models.SeverityMedium),
		incidentAt(now.Add(-96*time.Hour), models.SeverityLow),
	}

	agg := NewIncidentAggregator().Aggregate(incidents, now)
	if agg.Count != 4 {
		t.Fatalf("expected 4 incidents, got %d", agg.Count)
	}
	if agg.SeverityLoad != 18 {
		t.Fatalf("expected load 18, got %v", agg.SeverityLoad)
	}
}

func TestIncidentAggregateUnknownSeverityCountsAsOne(t *testing.T) {
	now := time.Now()
	incidents := []models.IncidentRecord{incidentAt(now.Add(-time.Hour), models.Severity("mystery"))}

	agg := NewIncidentAggregator().Aggregate(incidents, now)
	if agg.SeverityLoad != 1 {
		t.Fatalf("expected unknown severity weight 1, got %v", agg.SeverityLoad)
	}
}

func TestIncidentAggregateWindowExcludesOldIncidents(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	incidents := []models.IncidentRecord{
		incidentAt(now.Add(-24*time.Hour), models.SeverityHigh),
		incidentAt(now.Add(-45*24*time.Hour), models.SeverityCritical),
	}

	agg := NewIncidentAggregator().Aggregate(incidents, now)
	if agg.Count != 1 {
		t.Fatalf("expected 1 in-window incident, got %d", agg.Count)
	}
	if agg.SeverityLoad != 5 {
		t.Fatalf("expected load 5, got %v", agg.SeverityLoad)
	}
}
