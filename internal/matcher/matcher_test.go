package matcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/knowledge"
	"plantscan-service/internal/utils"
)

func loadKB(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()
	kb, err := knowledge.Load(filepath.Join("..", "..", "data", "diseases.json"))
	require.NoError(t, err)
	return kb
}

func newKB(t *testing.T, keys ...string) *knowledge.KnowledgeBase {
	t.Helper()
	entries := make(map[string]scan.KnowledgeBaseEntry, len(keys))
	for _, k := range keys {
		entries[k] = scan.KnowledgeBaseEntry{DisplayName: k, Severity: scan.SeverityMedium, Remedies: []string{"r"}}
	}
	kb, err := knowledge.New(entries)
	require.NoError(t, err)
	return kb
}

func TestMatch_Tiers(t *testing.T) {
	m := New(loadKB(t), DefaultOptions())

	tests := []struct {
		name string
		raw  string
		key  string
		tier scan.MatchTier
	}{
		{"exact", "tomato-early blight", "tomato-early blight", scan.MatchExact},
		{"exact after normalization", "  Tomato - Early  Blight", "tomato-early blight", scan.MatchExact},
		{"underscore variant", "unknown-disease", "unknown_disease", scan.MatchVariant},
		{"spaced hyphen key", "Cucumber Leaf - Unhealthy", "cucumber leaf - unhealthy", scan.MatchVariant},
		{"space variant", "cucumber powdery mildew", "cucumber-powdery-mildew", scan.MatchVariant},
		{"fuzzy healthy", "Tomato___healthy", "tomato-healthy", scan.MatchFuzzy},
		{"fuzzy disease", "Tomato___Early_blight", "tomato-early blight", scan.MatchFuzzy},
		{"fuzzy plant gate", "Lettuce___Downy_mildew", "lettuce-downy mildew", scan.MatchFuzzy},
		{"no match", "xyz-unknown-pathogen", "", scan.MatchNone},
		{"empty", "", "", scan.MatchNone},
		{"unknown plant", "Grape___Black_rot", "", scan.MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := m.Match(tt.raw)
			require.Equal(t, tt.tier, res.Confidence)
			require.Equal(t, tt.key, res.Key)
		})
	}
}

func TestMatch_RoundTripOnExactKeys(t *testing.T) {
	kb := loadKB(t)
	m := New(kb, DefaultOptions())

	for _, k := range kb.Keys() {
		if utils.NormalizeClassName(k) != k {
			continue
		}
		res := m.Match(utils.NormalizeClassName(k))
		require.Equal(t, scan.MatchExact, res.Confidence, k)
		require.Equal(t, k, res.Key)
	}
}

func TestMatch_HealthGateExclusive(t *testing.T) {
	kb := loadKB(t)
	m := New(kb, DefaultOptions())

	inputs := []string{
		"Tomato___healthy", "tomato unhealthy spots", "Bell_Pepper_healthy",
		"bell pepper leaf unhealthy", "cucumber healthy leaf", "strawberry___unhealthy",
		"potato healthy", "corn rust", "lettuce leaf healthy",
	}
	for _, in := range inputs {
		res := m.Match(in)
		if res.Confidence != scan.MatchFuzzy {
			continue
		}
		require.Equal(t, IsHealthyLabel(in), IsHealthyLabel(res.Key), "%q matched %q", in, res.Key)
	}
}

func TestMatch_HealthyNeverMatchesDiseased(t *testing.T) {
	m := New(newKB(t, "tomato-early blight", "tomato-late blight"), DefaultOptions())

	res := m.Match("Tomato___healthy")
	require.Equal(t, scan.MatchNone, res.Confidence)
}

func TestMatch_RequiresPlantBonus(t *testing.T) {
	m := New(newKB(t, "early blight-disease"), DefaultOptions())

	// two shared tokens, no shared plant
	res := m.Match("potato early blight")
	require.Equal(t, scan.MatchNone, res.Confidence)
}

func TestMatch_TunableThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.MinMatchScore = 2
	m := New(newKB(t, "early blight-disease"), opts)

	res := m.Match("potato early blight")
	require.Equal(t, scan.MatchFuzzy, res.Confidence)
	require.Equal(t, "early blight-disease", res.Key)
	require.Equal(t, 2, res.Score)
}

func TestMatch_TieKeepsFirstKey(t *testing.T) {
	m := New(newKB(t, "tomato-b spot", "tomato-a spot"), DefaultOptions())

	res := m.Match("Tomato___spot")
	require.Equal(t, scan.MatchFuzzy, res.Confidence)
	require.Equal(t, "tomato-a spot", res.Key)
	require.Equal(t, 12, res.Score)
}

func TestMatch_EmptyKnowledgeBase(t *testing.T) {
	m := New(nil, DefaultOptions())
	require.Equal(t, scan.MatchNone, m.Match("tomato-healthy").Confidence)
}

func TestMatch_Deterministic(t *testing.T) {
	m := New(loadKB(t), DefaultOptions())
	first := m.Match("Strawberry___healthy")
	for i := 0; i < 50; i++ {
		require.Equal(t, first, m.Match("Strawberry___healthy"))
	}
}

func TestPlantType(t *testing.T) {
	m := New(nil, DefaultOptions())
	require.Equal(t, "pepper", m.PlantType("Pepper,_bell___Bacterial_spot"))
	require.Equal(t, "tomato", m.PlantType("tomato-early blight"))
	require.Equal(t, "", m.PlantType("xyz-unknown"))
}

func TestIsHealthyLabel(t *testing.T) {
	require.True(t, IsHealthyLabel("Tomato___healthy"))
	require.False(t, IsHealthyLabel("bell pepper leaf-unhealthy"))
	require.False(t, IsHealthyLabel("tomato-early blight"))
}
