package models

import "time"

// Service identifies one fleet member. Owned by the fleet store; read-only here.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// MetricSample is one point of a service's append-only health time series.
type MetricSample struct {
	ServiceID        string    `json:"serviceId"`
	Timestamp        time.Time `json:"timestamp"`
	UptimePercent    float64   `json:"uptimePercent"`
	LatencyP95       float64   `json:"latencyP95"`
	LatencyP99       float64   `json:"latencyP99"`
	ErrorRatePercent float64   `json:"errorRatePercent"`
	Throughput       float64   `json:"throughput"`
}

// Severity captures incident impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IncidentStatus tracks the incident lifecycle.
type IncidentStatus string

const (
	IncidentOpen     IncidentStatus = "open"
	IncidentResolved IncidentStatus = "resolved"
	IncidentClosed   IncidentStatus = "closed"
)

// IncidentRecord is one incident attributed to a service. EndTime is nil while open.
type IncidentRecord struct {
	ID        string         `json:"id"`
	ServiceID string         `json:"serviceId"`
	Severity  Severity       `json:"severity"`
	Category  string         `json:"category"`
	StartTime time.Time      `json:"startTime"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Status    IncidentStatus `json:"status"`
}

// DependencyEdge is a directed dependency between two services. Multiple edges
// with the same (source, target) collapse to one during analysis.
type DependencyEdge struct {
	SourceServiceID string `json:"sourceServiceId"`
	TargetServiceID string `json:"targetServiceId"`
	Type            string `json:"type,omitempty"`
	IsRequired      bool   `json:"isRequired"`
}
