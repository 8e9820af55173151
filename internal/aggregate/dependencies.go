package aggregate

import "github.com/posturestack/posture-engine/internal/models"

// DependencyDegree holds a service's one-hop fan-out and fan-in counts.
type DependencyDegree struct {
	DependsOnCount int
	DependentCount int
}

// DependencyAnalyzer derives direct degree counts from the dependency edge set.
// No transitive closure is computed; cycles are inert because analysis is
// per-node, never a graph traversal.
type DependencyAnalyzer struct{}

// NewDependencyAnalyzer creates a dependency analyzer.
func NewDependencyAnalyzer() *DependencyAnalyzer {
	return &DependencyAnalyzer{}
}

// Degree counts edges where serviceID is source (fan-out) or target (fan-in).
// Duplicate (source, target) pairs collapse to one edge; self-edges are ignored.
func (a *DependencyAnalyzer) Degree(edges []models.DependencyEdge, serviceID string) DependencyDegree {
	type pair struct{ source, target string }
	seen := make(map[pair]struct{}, len(edges))

	var degree DependencyDegree
	for _, edge := range edges {
		if edge.SourceServiceID == edge.TargetServiceID {
			continue
		}
		key := pair{edge.SourceServiceID, edge.TargetServiceID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if edge.SourceServiceID == serviceID {
			degree.DependsOnCount++
		}
		if edge.TargetServiceID == serviceID {
			degree.DependentCount++
		}
	}
	return degree
}
