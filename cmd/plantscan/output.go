package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/service"
)

var (
	titleColor   = color.New(color.Bold)
	healthyColor = color.New(color.FgGreen, color.Bold)
	labelColor   = color.New(color.FgCyan)
	mutedColor   = color.New(color.Faint)

	severityColors = map[scan.Severity]*color.Color{
		scan.SeverityLow:    color.New(color.FgGreen),
		scan.SeverityMedium: color.New(color.FgYellow),
		scan.SeverityHigh:   color.New(color.FgRed, color.Bold),
	}
)

func severityColor(s scan.Severity) *color.Color {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return color.New(color.Reset)
}

func printResult(w io.Writer, r scan.AnalysisResult) {
	if r.IsHealthy {
		healthyColor.Fprintf(w, "%s\n", r.DiagnosisLabel)
	} else {
		severityColor(r.RiskTier).Fprintf(w, "%s\n", r.DiagnosisLabel)
	}
	mutedColor.Fprintf(w, "%s\n\n", r.DetailText)

	field := func(name, format string, a ...any) {
		labelColor.Fprintf(w, "%-18s", name)
		fmt.Fprintf(w, format+"\n", a...)
	}

	field("health score", "%d/100", r.HealthScore)
	labelColor.Fprintf(w, "%-18s", "risk")
	severityColor(r.RiskTier).Fprintf(w, "%s\n", r.RiskTier)
	if r.PlantType != "" {
		field("plant", "%s", r.PlantType)
	}
	field("match", "%s", r.MatchTier)
	if r.MatchedEntryKey != nil {
		field("entry", "%s", *r.MatchedEntryKey)
	}
	field("confidence", "%.1f%% (%s)", r.AverageConfidence, r.ConfidenceLevel)
	field("detections", "%d (%d healthy, %d unhealthy)", r.PredictionsCount, r.HealthyCount, r.UnhealthyCount)
	if len(r.DetectedClasses) > 0 {
		field("classes", "%s", strings.Join(r.DetectedClasses, ", "))
	}

	titleColor.Fprintln(w, "\nRecommendations")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}
}

func printDiseaseList(w io.Writer, diseases []service.DiseaseInfo) {
	for _, d := range diseases {
		labelColor.Fprintf(w, "%-32s", d.Key)
		severityColor(d.Severity).Fprintf(w, "%-8s", d.Severity)
		fmt.Fprintf(w, "%s\n", d.DisplayName)
	}
	mutedColor.Fprintf(w, "\n%d entries\n", len(diseases))
}

func printDisease(w io.Writer, d service.DiseaseInfo) {
	titleColor.Fprintf(w, "%s\n", d.DisplayName)
	labelColor.Fprintf(w, "%-10s", "key")
	fmt.Fprintf(w, "%s\n", d.Key)
	labelColor.Fprintf(w, "%-10s", "severity")
	severityColor(d.Severity).Fprintf(w, "%s\n", d.Severity)

	titleColor.Fprintln(w, "\nRemedies")
	for i, r := range d.Remedies {
		fmt.Fprintf(w, "  %d. %s\n", i+1, r)
	}
}
