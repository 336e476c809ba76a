package detector

import (
	"context"
	"errors"
	"time"

	"plantscan-service/internal/domain/scan"
)

var ErrEmptyImage = errors.New("empty image")

// Options are passed through to the underlying model.
type Options struct {
	Confidence float64 // 0..1
	Overlap    float64 // 0..1
}

// Detection is the normalized output of one inference call. Boxes are in
// scan.BoxUnitFraction unless the producer could not determine image size.
type Detection struct {
	Predictions   []scan.RawPrediction
	ImageWidth    int
	ImageHeight   int
	Model         string
	InferenceTime time.Duration
}

// Detector wraps a hosted or local object detection model.
type Detector interface {
	Name() string
	Detect(ctx context.Context, image []byte, filename string, opts Options) (*Detection, error)
}
