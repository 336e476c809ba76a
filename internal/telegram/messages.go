package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/dedent"

	"plantscan-service/internal/domain/scan"
)

const (
	msgStart = `
		🌱 Hi! I check plant leaves for diseases.

		📸 Send me a photo of a leaf and I will tell you what I see and what to do about it.

		📋 Commands:
		/help - how to take a good photo
		/threshold <0-1> - detection confidence for this chat (now %.2f)`

	msgHelp = `
		ℹ️ How to use the bot:

		1️⃣ Send a photo of one leaf or fruit
		2️⃣ Wait a few seconds for the analysis
		3️⃣ You get a diagnosis, a health score and care tips

		💡 Tips:
		• Shoot in daylight, without flash
		• Fill the frame with the affected area
		• Keep the photo sharp`

	msgSendPhoto       = "📸 Please send a photo of the plant."
	msgUnknownCommand  = "❓ Unknown command. Use /help."
	msgProcessing      = "⏳ Analyzing the photo..."
	msgProcessingError = "⚠️ Could not analyze the photo. Please try another one."
	msgThresholdUsage  = "Usage: /threshold 0.4 (a value between 0 and 1, or a percentage)"
	msgThresholdSet    = "✅ Detection threshold set to %.2f"
)

func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// parseThreshold accepts 0..1 or a percentage such as "40" or "40%".
func parseThreshold(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	if v > 1 {
		v /= 100
	}
	return v, true
}

func statusIcon(r scan.AnalysisResult) string {
	if r.IsHealthy {
		return "✅"
	}
	switch r.RiskTier {
	case scan.SeverityHigh:
		return "🔴"
	case scan.SeverityMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

func formatDiagnosis(r scan.AnalysisResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", statusIcon(r), r.DiagnosisLabel)
	if r.PlantType != "" {
		fmt.Fprintf(&sb, "Plant: %s\n", r.PlantType)
	}
	fmt.Fprintf(&sb, "Health score: %d/100\n", r.HealthScore)
	fmt.Fprintf(&sb, "Risk: %s\n", r.RiskTier)
	if r.PredictionsCount > 0 {
		fmt.Fprintf(&sb, "Detections: %d (avg confidence %.1f%%)\n", r.PredictionsCount, r.AverageConfidence)
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\nWhat to do:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "• %s\n", rec)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
