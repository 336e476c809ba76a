package analysis

import (
	"github.com/rs/zerolog"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/matcher"
)

// Analyzer runs the whole reconciliation pipeline. It holds no per-call
// state and may be shared between goroutines.
type Analyzer struct {
	matcher *matcher.Matcher
	log     zerolog.Logger
}

func NewAnalyzer(m *matcher.Matcher, log zerolog.Logger) *Analyzer {
	return &Analyzer{matcher: m, log: log}
}

func (a *Analyzer) Matcher() *matcher.Matcher {
	return a.matcher
}

// Analyze filters, aggregates and diagnoses one prediction set.
func (a *Analyzer) Analyze(predictions []scan.RawPrediction, threshold float64) scan.AnalysisResult {
	agg := Aggregate(predictions, threshold)
	res := Synthesize(agg, a.matcher)

	ev := a.log.Debug().
		Int("raw_count", len(predictions)).
		Int("valid_count", len(agg.Valid)).
		Float64("threshold", threshold).
		Str("match_tier", string(res.MatchTier)).
		Int("health_score", res.HealthScore)
	if res.MatchedEntryKey != nil {
		ev = ev.Str("matched_key", *res.MatchedEntryKey)
	}
	ev.Msg("analysis complete")

	return res
}
