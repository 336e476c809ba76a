//go:build gocv
// +build gocv

package annotate

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"plantscan-service/internal/domain/scan"
)

// Annotator draws detection boxes and labels on the image.
type Annotator struct {
	Thickness int
}

func New() *Annotator {
	return &Annotator{Thickness: 2}
}

// Annotate returns a JPEG with one rectangle per prediction. Healthy
// detections are green, others red.
func (a *Annotator) Annotate(imageData []byte, preds []scan.RawPrediction) ([]byte, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	for _, p := range preds {
		rect := pixelRect(p.BoundingBox, mat.Cols(), mat.Rows())
		if rect.Empty() {
			continue
		}
		c := boxColor(p.ClassLabel)
		gocv.Rectangle(&mat, rect, c, a.Thickness)
		label := fmt.Sprintf("%s %.0f%%", p.ClassLabel, p.Confidence*100)
		gocv.PutText(&mat, label, image.Pt(rect.Min.X, max(rect.Min.Y-6, 12)), gocv.FontHersheySimplex, 0.5, c, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
