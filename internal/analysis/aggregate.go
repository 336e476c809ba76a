package analysis

import (
	"math"
	"strings"

	"plantscan-service/internal/domain/scan"
)

// Aggregate drops malformed predictions and those below threshold, splits
// the rest into healthy and unhealthy and picks the most confident of each.
func Aggregate(predictions []scan.RawPrediction, threshold float64) scan.Aggregate {
	agg := scan.Aggregate{Valid: make([]scan.RawPrediction, 0, len(predictions))}

	bestHealthy, bestUnhealthy := -1, -1
	sum := 0.0

	for _, p := range predictions {
		if !wellFormed(p) || p.Confidence < threshold {
			continue
		}

		agg.Valid = append(agg.Valid, p)
		idx := len(agg.Valid) - 1
		sum += p.Confidence

		if IsHealthyLabel(p.ClassLabel) {
			agg.HealthyCount++
			if bestHealthy < 0 || p.Confidence > agg.Valid[bestHealthy].Confidence {
				bestHealthy = idx
			}
		} else {
			agg.UnhealthyCount++
			if bestUnhealthy < 0 || p.Confidence > agg.Valid[bestUnhealthy].Confidence {
				bestUnhealthy = idx
			}
		}
	}

	if len(agg.Valid) > 0 {
		agg.AverageConfidence = sum / float64(len(agg.Valid))
	}
	if bestHealthy >= 0 {
		p := agg.Valid[bestHealthy]
		agg.BestHealthy = &p
	}
	if bestUnhealthy >= 0 {
		p := agg.Valid[bestUnhealthy]
		agg.BestUnhealthy = &p
	}

	return agg
}

func wellFormed(p scan.RawPrediction) bool {
	if strings.TrimSpace(p.ClassLabel) == "" {
		return false
	}
	c := p.Confidence
	return !math.IsNaN(c) && c >= 0 && c <= 1
}

// IsHealthyLabel reports whether a detected class counts as healthy: the
// label contains "healthy" and not "unhealthy", in any case.
func IsHealthyLabel(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "healthy") && !strings.Contains(l, "unhealthy")
}
