package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ParseSeverity accepts low/medium/high in any case.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

type ConfidenceLevel string

const (
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
)

// BoxUnit declares how bounding box coordinates are expressed.
type BoxUnit string

const (
	BoxUnitFraction BoxUnit = "fraction" // 0..1 of the image side
	BoxUnitPercent  BoxUnit = "percent"  // 0..100 of the image side
	BoxUnitPixels   BoxUnit = "pixels"
)

// BoundingBox is center based.
type BoundingBox struct {
	XCenter float64 `json:"x"`
	YCenter float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Unit    BoxUnit `json:"unit,omitempty"`
}

// RawPrediction is one detected object as emitted by a detector.
type RawPrediction struct {
	ClassLabel  string      `json:"class"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"box"`
}

type KnowledgeBaseEntry struct {
	DisplayName string   `json:"display_name" toml:"display_name"`
	Severity    Severity `json:"severity" toml:"severity"`
	Remedies    []string `json:"remedies" toml:"remedies"`
}

type MatchTier string

const (
	MatchExact   MatchTier = "exact"
	MatchVariant MatchTier = "variant"
	MatchFuzzy   MatchTier = "fuzzy"
	MatchNone    MatchTier = "none"
)

type MatchResult struct {
	Key        string    `json:"key,omitempty"`
	Confidence MatchTier `json:"confidence"`
	Score      int       `json:"score,omitempty"`
}

// Matched reports whether a knowledge base key was resolved.
func (m MatchResult) Matched() bool {
	return m.Confidence != MatchNone && m.Key != ""
}

// Aggregate is the filtered and partitioned view of one prediction set.
type Aggregate struct {
	Valid             []RawPrediction
	HealthyCount      int
	UnhealthyCount    int
	AverageConfidence float64
	BestUnhealthy     *RawPrediction
	BestHealthy       *RawPrediction
}

type AnalysisResult struct {
	IsHealthy         bool            `json:"is_healthy"`
	HealthScore       int             `json:"health_score"`
	RiskTier          Severity        `json:"risk_tier"`
	DiagnosisLabel    string          `json:"diagnosis"`
	DetailText        string          `json:"detail"`
	Recommendations   []string        `json:"recommendations"`
	AverageConfidence float64         `json:"average_confidence"`
	MatchedEntryKey   *string         `json:"matched_entry_key,omitempty"`
	MatchTier         MatchTier       `json:"match_tier"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level"`
	PlantType         string          `json:"plant_type,omitempty"`
	PredictionsCount  int             `json:"predictions_count"`
	HealthyCount      int             `json:"healthy_count"`
	UnhealthyCount    int             `json:"unhealthy_count"`
	DetectedClasses   []string        `json:"detected_classes"`
}

// Scan is one analyzed image kept in history.
type Scan struct {
	ID          uuid.UUID       `json:"id"`
	Filename    string          `json:"filename,omitempty"`
	Detector    string          `json:"detector"`
	Threshold   float64         `json:"threshold"`
	Predictions []RawPrediction `json:"predictions"`
	Result      AnalysisResult  `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Stats struct {
	Total       int64            `json:"total"`
	Healthy     int64            `json:"healthy"`
	Unhealthy   int64            `json:"unhealthy"`
	ByDiagnosis map[string]int64 `json:"by_diagnosis"`
}

// AnalyzeRequest is the body of a direct analysis call.
type AnalyzeRequest struct {
	Predictions []RawPrediction `json:"predictions"`
	Threshold   *float64        `json:"threshold,omitempty"`
	ImageWidth  int             `json:"image_width,omitempty"`
	ImageHeight int             `json:"image_height,omitempty"`
}
