package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantscan-service/internal/domain/scan"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.4", 0.4, true},
		{" 0,35 ", 0.35, true},
		{"40", 0.4, true},
		{"75%", 0.75, true},
		{"1", 1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-0.1", 0, false},
		{"150", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseThreshold(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}

func TestThresholdStore(t *testing.T) {
	s := newThresholdStore(0.5)
	assert.Equal(t, 0.5, s.Get(1))

	s.Set(1, 0.3)
	assert.Equal(t, 0.3, s.Get(1))
	assert.Equal(t, 0.5, s.Get(2))
}

func TestFormatDiagnosis(t *testing.T) {
	text := formatDiagnosis(scan.AnalysisResult{
		IsHealthy:         false,
		HealthScore:       15,
		RiskTier:          scan.SeverityHigh,
		DiagnosisLabel:    "Early Blight (Tomato)",
		Recommendations:   []string{"Remove infected leaves", "Apply fungicide"},
		AverageConfidence: 81.5,
		PlantType:         "Tomato",
		PredictionsCount:  2,
	})

	assert.True(t, strings.HasPrefix(text, "🔴 Early Blight (Tomato)"))
	assert.Contains(t, text, "Plant: Tomato")
	assert.Contains(t, text, "Health score: 15/100")
	assert.Contains(t, text, "avg confidence 81.5%")
	assert.Contains(t, text, "• Apply fungicide")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestFormatDiagnosis_NothingDetected(t *testing.T) {
	text := formatDiagnosis(scan.AnalysisResult{
		IsHealthy:       true,
		HealthScore:     100,
		RiskTier:        scan.SeverityLow,
		DiagnosisLabel:  "No disease detected",
		Recommendations: []string{"Improve the lighting and take the photo again"},
	})

	assert.True(t, strings.HasPrefix(text, "✅ No disease detected"))
	assert.NotContains(t, text, "Detections:")
	assert.NotContains(t, text, "Plant:")
}

func TestFormatReplyText(t *testing.T) {
	text := formatReplyText(msgStart, 0.5)
	assert.True(t, strings.HasPrefix(text, "🌱 Hi!"))
	assert.Contains(t, text, "(now 0.50)")
	assert.NotContains(t, text, "\t")
}
