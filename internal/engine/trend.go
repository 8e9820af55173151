package engine

import (
	"math"

	"github.com/posturestack/posture-engine/internal/models"
)

// trendWindow is the number of snapshots per comparison window.
const trendWindow = 5

// trendThreshold is the mean-difference (in score points) separating stable
// from improving or declining.
const trendThreshold = 5.0

// TrendAnalyzer derives direction and volatility from a score history.
type TrendAnalyzer struct{}

// NewTrendAnalyzer creates a trend analyzer.
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// Analyze expects history ordered most-recent-first. Direction compares the
// mean of the first window against the mean of the next; it needs at least one
// snapshot in each, otherwise the trend is stable. Volatility is the population
// standard deviation of the whole series (0 below two snapshots).
func (a *TrendAnalyzer) Analyze(history []models.ScoreSnapshot) models.TrendResult {
	result := models.TrendResult{Trend: models.TrendStable}

	recent := window(history, 0, trendWindow)
	older := window(history, trendWindow, 2*trendWindow)
	if len(recent) > 0 && len(older) > 0 {
		diff := mean(recent) - mean(older)
		switch {
		case diff > trendThreshold:
			result.Trend = models.TrendImproving
		case diff < -trendThreshold:
			result.Trend = models.TrendDeclining
		}
	}

	if len(history) >= 2 {
		result.Volatility = stdDev(history)
	}
	return result
}

func window(history []models.ScoreSnapshot, from, to int) []models.ScoreSnapshot {
	if from >= len(history) {
		return nil
	}
	if to > len(history) {
		to = len(history)
	}
	return history[from:to]
}

func mean(snapshots []models.ScoreSnapshot) float64 {
	sum := 0.0
	for _, s := range snapshots {
		sum += s.OverallScore
	}
	return sum / float64(len(snapshots))
}

func stdDev(snapshots []models.ScoreSnapshot) float64 {
	m := mean(snapshots)
	variance := 0.0
	for _, s := range snapshots {
		variance += math.Pow(s.OverallScore-m, 2)
	}
	variance /= float64(len(snapshots))
	return math.Sqrt(variance)
}
