package annotate

import (
	"errors"
	"image"
	"image/color"

	"plantscan-service/internal/analysis"
	"plantscan-service/internal/domain/scan"
)

// ErrUnavailable is returned when the binary was built without OpenCV.
var ErrUnavailable = errors.New("annotation requires the gocv build tag")

var (
	healthyColor   = color.RGBA{G: 200, A: 255}
	unhealthyColor = color.RGBA{R: 230, G: 40, B: 40, A: 255}
)

// boxColor uses the same healthy rule as the aggregation, so a box is green
// exactly when its prediction was counted healthy.
func boxColor(label string) color.RGBA {
	if analysis.IsHealthyLabel(label) {
		return healthyColor
	}
	return unhealthyColor
}

// pixelRect converts a fraction-unit box into a pixel rectangle clamped to
// the image. Pixel-unit boxes are used as is.
func pixelRect(b scan.BoundingBox, width, height int) image.Rectangle {
	cx, cy, w, h := b.XCenter, b.YCenter, b.Width, b.Height
	if b.Unit != scan.BoxUnitPixels {
		cx, w = cx*float64(width), w*float64(width)
		cy, h = cy*float64(height), h*float64(height)
	}

	r := image.Rect(int(cx-w/2), int(cy-h/2), int(cx+w/2), int(cy+h/2))
	return r.Intersect(image.Rect(0, 0, width, height))
}
