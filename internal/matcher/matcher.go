package matcher

import (
	"strings"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/knowledge"
	"plantscan-service/internal/utils"
)

const (
	DefaultPlantBonus    = 10
	DefaultMinMatchScore = 10
)

// DefaultPlantNames are the plants the detectors are trained on.
var DefaultPlantNames = []string{
	"apple", "blueberry", "cherry", "corn", "cucumber", "grape", "lettuce",
	"orange", "peach", "pepper", "potato", "raspberry", "soybean", "squash",
	"strawberry", "tomato",
}

var stopwords = map[string]struct{}{
	"leaf":   {},
	"veggie": {},
	"fruit":  {},
	"plant":  {},
	"-":      {},
	"_":      {},
}

// Options are the fuzzy matching tunables.
type Options struct {
	PlantBonus    int
	MinMatchScore int
	PlantNames    []string
}

func DefaultOptions() Options {
	return Options{
		PlantBonus:    DefaultPlantBonus,
		MinMatchScore: DefaultMinMatchScore,
		PlantNames:    DefaultPlantNames,
	}
}

type candidate struct {
	key     string
	tokens  map[string]struct{}
	healthy bool
}

// Matcher resolves raw class labels to knowledge base keys. Key tokens are
// computed once so a Matcher can be shared by concurrent analyses.
type Matcher struct {
	kb         *knowledge.KnowledgeBase
	opts       Options
	plants     map[string]struct{}
	normalized map[string]string
	candidates []candidate
}

func New(kb *knowledge.KnowledgeBase, opts Options) *Matcher {
	if kb == nil {
		kb = knowledge.Empty()
	}

	m := &Matcher{
		kb:         kb,
		opts:       opts,
		plants:     make(map[string]struct{}, len(opts.PlantNames)),
		normalized: make(map[string]string),
	}
	for _, p := range opts.PlantNames {
		m.plants[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	for _, key := range kb.Keys() {
		n := utils.NormalizeClassName(key)
		if _, exists := m.normalized[n]; !exists {
			m.normalized[n] = key
		}
		tokens := tokenSet(key)
		m.candidates = append(m.candidates, candidate{
			key:     key,
			tokens:  tokens,
			healthy: isHealthy(tokens),
		})
	}

	return m
}

// KnowledgeBase returns the knowledge base the matcher was built on.
func (m *Matcher) KnowledgeBase() *knowledge.KnowledgeBase {
	return m.kb
}

// Match resolves rawClass in order: exact key, delimiter variant, token
// overlap. Absence of a match is reported as MatchNone, never as an error.
func (m *Matcher) Match(rawClass string) scan.MatchResult {
	normalized := utils.NormalizeClassName(rawClass)
	if normalized == "" {
		return scan.MatchResult{Confidence: scan.MatchNone}
	}

	if m.kb.Has(normalized) {
		return scan.MatchResult{Key: normalized, Confidence: scan.MatchExact}
	}

	if key, ok := m.matchVariant(normalized); ok {
		return scan.MatchResult{Key: key, Confidence: scan.MatchVariant}
	}

	if key, score, ok := m.matchFuzzy(normalized); ok {
		return scan.MatchResult{Key: key, Confidence: scan.MatchFuzzy, Score: score}
	}

	return scan.MatchResult{Confidence: scan.MatchNone}
}

func variants(s string) []string {
	return []string{
		strings.ReplaceAll(s, "_", "-"),
		strings.ReplaceAll(s, "-", "_"),
		strings.ReplaceAll(s, " ", "-"),
		strings.ReplaceAll(s, " ", "_"),
		strings.ReplaceAll(s, "_", " "),
		strings.ReplaceAll(s, "-", " "),
		strings.NewReplacer("_", "-", " ", "-").Replace(s),
		strings.NewReplacer("-", "_", " ", "_").Replace(s),
		strings.NewReplacer("-", " ", "_", " ").Replace(s),
	}
}

func (m *Matcher) matchVariant(normalized string) (string, bool) {
	for _, v := range variants(normalized) {
		if m.kb.Has(v) {
			return v, true
		}
		if key, ok := m.normalized[utils.NormalizeClassName(v)]; ok {
			return key, true
		}
	}
	if key, ok := m.normalized[normalized]; ok {
		return key, true
	}
	return "", false
}

func (m *Matcher) matchFuzzy(normalized string) (string, int, bool) {
	target := tokenSet(normalized)
	if len(target) == 0 {
		return "", 0, false
	}
	targetHealthy := isHealthy(target)
	targetPlants := m.plantsIn(target)

	bestKey, bestScore := "", 0
	for _, c := range m.candidates {
		if c.healthy != targetHealthy {
			continue
		}

		score := 0
		for tok := range target {
			if _, ok := c.tokens[tok]; ok {
				score++
			}
		}
		for p := range targetPlants {
			if _, ok := c.tokens[p]; ok {
				score += m.opts.PlantBonus
				break
			}
		}

		if score > bestScore {
			bestKey, bestScore = c.key, score
		}
	}

	if bestKey == "" || bestScore < m.opts.MinMatchScore {
		return "", bestScore, false
	}
	return bestKey, bestScore, true
}

// PlantType returns the first recognized plant name in a label, or "".
func (m *Matcher) PlantType(label string) string {
	for _, tok := range utils.Tokenize(label) {
		if _, ok := m.plants[tok]; ok {
			return tok
		}
	}
	return ""
}

func (m *Matcher) plantsIn(tokens map[string]struct{}) map[string]struct{} {
	found := make(map[string]struct{})
	for tok := range tokens {
		if _, ok := m.plants[tok]; ok {
			found[tok] = struct{}{}
		}
	}
	return found
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range utils.Tokenize(s) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// IsHealthyLabel reports whether a label carries the healthy token and not
// the unhealthy one.
func IsHealthyLabel(label string) bool {
	return isHealthy(tokenSet(label))
}

func isHealthy(tokens map[string]struct{}) bool {
	_, healthy := tokens["healthy"]
	_, unhealthy := tokens["unhealthy"]
	return healthy && !unhealthy
}
