package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"plantscan-service/internal/analysis"
	"plantscan-service/internal/domain/scan"
)

func TestPixelRect(t *testing.T) {
	r := pixelRect(scan.BoundingBox{XCenter: 0.5, YCenter: 0.5, Width: 0.2, Height: 0.4, Unit: scan.BoxUnitFraction}, 100, 50)
	require.Equal(t, image.Rect(40, 15, 60, 35), r)

	r = pixelRect(scan.BoundingBox{XCenter: 95, YCenter: 10, Width: 20, Height: 10, Unit: scan.BoxUnitPixels}, 100, 50)
	require.Equal(t, image.Rect(85, 5, 100, 15), r)
}

func TestBoxColor(t *testing.T) {
	tests := []struct {
		label string
		want  color.RGBA
	}{
		{"Tomato___healthy", healthyColor},
		{"tomatohealthy", healthyColor},
		{"cucumber leaf - healthy", healthyColor},
		{"bell pepper leaf-unhealthy", unhealthyColor},
		{"tomato-early blight", unhealthyColor},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, boxColor(tt.label), tt.label)
	}
}

func TestBoxColorFollowsAggregation(t *testing.T) {
	preds := []scan.RawPrediction{
		{ClassLabel: "tomatohealthy", Confidence: 0.9},
		{ClassLabel: "LettuceHealthy", Confidence: 0.9},
		{ClassLabel: "leafunhealthy", Confidence: 0.9},
	}
	agg := analysis.Aggregate(preds, 0.5)

	green := 0
	for _, p := range preds {
		if boxColor(p.ClassLabel) == healthyColor {
			green++
		}
	}
	require.Equal(t, agg.HealthyCount, green)
}
