//go:build !gocv
// +build !gocv

package annotate

import "plantscan-service/internal/domain/scan"

type Annotator struct {
	Thickness int
}

// New returns an annotator that always fails with ErrUnavailable.
func New() *Annotator {
	return &Annotator{Thickness: 2}
}

func (a *Annotator) Annotate([]byte, []scan.RawPrediction) ([]byte, error) {
	return nil, ErrUnavailable
}
