package resilience

import (
	"context"
	"sync"
	"time"
)

// HealthStatus is the verdict of a health check or the whole monitor.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// CheckFunc probes one collaborator; a nil error means healthy.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Critical bool          `json:"critical"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// HealthReport aggregates all probe outcomes. A failing critical check makes
// the whole report unhealthy; a failing non-critical one degrades it.
type HealthReport struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

type healthCheck struct {
	name     string
	fn       CheckFunc
	critical bool
	timeout  time.Duration
}

// HealthMonitor runs named health checks against collaborators.
type HealthMonitor struct {
	mu     sync.Mutex
	checks []healthCheck
}

// NewHealthMonitor creates an empty monitor.
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{}
}

// AddCheck registers a probe. A zero timeout defaults to five seconds.
func (m *HealthMonitor) AddCheck(name string, fn CheckFunc, critical bool, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, healthCheck{name: name, fn: fn, critical: critical, timeout: timeout})
}

// CheckAll executes every registered probe and aggregates the verdict.
func (m *HealthMonitor) CheckAll(ctx context.Context) HealthReport {
	m.mu.Lock()
	checks := append([]healthCheck(nil), m.checks...)
	m.mu.Unlock()

	report := HealthReport{Status: HealthHealthy, Timestamp: time.Now().UTC()}
	for _, check := range checks {
		result := runCheck(ctx, check)
		report.Checks = append(report.Checks, result)
		if result.Status != HealthUnhealthy {
			continue
		}
		if check.critical {
			report.Status = HealthUnhealthy
		} else if report.Status == HealthHealthy {
			report.Status = HealthDegraded
		}
	}
	return report
}

func runCheck(ctx context.Context, check healthCheck) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, check.timeout)
	defer cancel()

	start := time.Now()
	err := check.fn(checkCtx)
	result := CheckResult{
		Name:     check.name,
		Status:   HealthHealthy,
		Critical: check.critical,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Status = HealthUnhealthy
		result.Error = err.Error()
	}
	return result
}
