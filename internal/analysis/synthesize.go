package analysis

import (
	"fmt"
	"math"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/matcher"
	"plantscan-service/internal/utils"
)

const (
	notDetectedScore = 100
	healthyScore     = 95
	minDiseaseScore  = 10
)

var (
	notDetectedRecommendations = []string{
		"Improve the lighting and take the photo again",
		"Refocus the camera on a single leaf",
	}
	unmatchedUnhealthyRecommendations = []string{
		"Consult a plant specialist",
		"Take a closer photo of the affected area",
	}
	unmatchedHealthyRecommendations = []string{
		"Routine care",
	}
)

// Synthesize turns an aggregate into a diagnosis. The matcher carries the
// knowledge base. Empty aggregates produce the "not detected" result.
func Synthesize(agg scan.Aggregate, m *matcher.Matcher) scan.AnalysisResult {
	if len(agg.Valid) == 0 {
		return notDetected()
	}

	target := agg.BestUnhealthy
	healthy := false
	if target == nil {
		target = agg.BestHealthy
		healthy = true
	}

	res := scan.AnalysisResult{
		IsHealthy:         healthy,
		HealthScore:       healthScore(target.Confidence, healthy),
		AverageConfidence: math.Round(agg.AverageConfidence*1000) / 10,
		ConfidenceLevel:   confidenceLevel(len(agg.Valid), agg.AverageConfidence),
		PredictionsCount:  len(agg.Valid),
		HealthyCount:      agg.HealthyCount,
		UnhealthyCount:    agg.UnhealthyCount,
		DetectedClasses:   distinctClasses(agg.Valid),
		PlantType:         utils.Humanize(m.PlantType(target.ClassLabel)),
	}

	match := m.Match(utils.NormalizeClassName(target.ClassLabel))
	res.MatchTier = match.Confidence

	entry, ok := m.KnowledgeBase().Get(match.Key)
	if match.Matched() && ok {
		key := match.Key
		res.MatchedEntryKey = &key
		res.DiagnosisLabel = entry.DisplayName
		res.RiskTier = entry.Severity
		res.Recommendations = entry.Remedies
		res.DetailText = fmt.Sprintf("%s identified from detected class %q (%.1f%% confidence)",
			entry.DisplayName, target.ClassLabel, target.Confidence*100)
		return res
	}

	res.MatchTier = scan.MatchNone
	res.DiagnosisLabel = utils.Humanize(target.ClassLabel)
	if healthy {
		res.RiskTier = scan.SeverityLow
		res.Recommendations = clone(unmatchedHealthyRecommendations)
	} else {
		res.RiskTier = scan.SeverityMedium
		res.Recommendations = clone(unmatchedUnhealthyRecommendations)
	}
	res.DetailText = fmt.Sprintf("Detected class %q (%.1f%% confidence) has no reference entry, showing a generic diagnosis",
		target.ClassLabel, target.Confidence*100)

	return res
}

func notDetected() scan.AnalysisResult {
	return scan.AnalysisResult{
		IsHealthy:       true,
		HealthScore:     notDetectedScore,
		RiskTier:        scan.SeverityLow,
		DiagnosisLabel:  "No disease detected",
		DetailText:      "Nothing was detected above the confidence threshold",
		Recommendations: clone(notDetectedRecommendations),
		MatchTier:       scan.MatchNone,
		ConfidenceLevel: scan.ConfidenceMedium,
		DetectedClasses: []string{},
	}
}

func healthScore(confidence float64, healthy bool) int {
	if healthy {
		return healthyScore
	}
	score := 100 - int(math.Round(confidence*100))
	if score < minDiseaseScore {
		return minDiseaseScore
	}
	return score
}

func confidenceLevel(count int, avg float64) scan.ConfidenceLevel {
	switch {
	case count >= 2 && avg > 0.8:
		return scan.ConfidenceVeryHigh
	case count >= 1 && avg > 0.6:
		return scan.ConfidenceHigh
	default:
		return scan.ConfidenceMedium
	}
}

func distinctClasses(preds []scan.RawPrediction) []string {
	seen := make(map[string]struct{}, len(preds))
	out := make([]string, 0, len(preds))
	for _, p := range preds {
		if _, ok := seen[p.ClassLabel]; ok {
			continue
		}
		seen[p.ClassLabel] = struct{}{}
		out = append(out, p.ClassLabel)
	}
	return out
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
