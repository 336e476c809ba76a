package detector

import (
	"math"
	"strings"

	"plantscan-service/internal/domain/scan"
)

// NormalizeConfidence maps percentage-scale values (1, 100] into 0..1.
// Anything else outside 0..1 is reported as invalid.
func NormalizeConfidence(c float64) (float64, bool) {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0, false
	}
	if c > 1 {
		if c > 100 {
			return 0, false
		}
		c /= 100
	}
	return c, true
}

// NormalizePredictions is the boundary between detectors and the analysis
// pipeline: confidences end up in 0..1, boxes in fractions of the image and
// predictions without a class or with an unusable confidence are dropped.
// unit declares the coordinate system the producer used.
func NormalizePredictions(preds []scan.RawPrediction, unit scan.BoxUnit, width, height int) []scan.RawPrediction {
	out := make([]scan.RawPrediction, 0, len(preds))

	for _, p := range preds {
		label := strings.TrimSpace(p.ClassLabel)
		if label == "" {
			continue
		}
		conf, ok := NormalizeConfidence(p.Confidence)
		if !ok {
			continue
		}

		box := p.BoundingBox
		u := box.Unit
		if u == "" {
			u = unit
		}
		box = toFraction(box, u, width, height)

		out = append(out, scan.RawPrediction{
			ClassLabel:  label,
			Confidence:  conf,
			BoundingBox: box,
		})
	}

	return out
}

func toFraction(b scan.BoundingBox, unit scan.BoxUnit, width, height int) scan.BoundingBox {
	switch unit {
	case scan.BoxUnitPercent:
		return scan.BoundingBox{
			XCenter: b.XCenter / 100,
			YCenter: b.YCenter / 100,
			Width:   b.Width / 100,
			Height:  b.Height / 100,
			Unit:    scan.BoxUnitFraction,
		}
	case scan.BoxUnitPixels:
		if width <= 0 || height <= 0 {
			b.Unit = scan.BoxUnitPixels
			return b
		}
		w, h := float64(width), float64(height)
		return scan.BoundingBox{
			XCenter: b.XCenter / w,
			YCenter: b.YCenter / h,
			Width:   b.Width / w,
			Height:  b.Height / h,
			Unit:    scan.BoxUnitFraction,
		}
	default:
		b.Unit = scan.BoxUnitFraction
		return b
	}
}
