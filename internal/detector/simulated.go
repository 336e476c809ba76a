package detector

import (
	"context"
	"path/filepath"
	"strings"

	"plantscan-service/internal/domain/scan"
)

type plantGuess struct {
	keyword string
	disease string
	healthy string
}

// Checked in order; the first keyword found in the filename wins.
var simulatedPlants = []plantGuess{
	{"pepper", "bell pepper leaf-unhealthy", "bell pepper leaf-healthy"},
	{"bell", "bell pepper leaf-unhealthy", "bell pepper leaf-healthy"},
	{"tomato", "tomato-early blight", "tomato-healthy"},
	{"potato", "Potato___Late_blight", "Potato___healthy"},
	{"cucumber", "cucumber-mosaic", "cucumber leaf - healthy"},
	{"lettuce", "lettuce-downy mildew", "lettuce-healthy"},
	{"strawberry", "strawberry-angular leafspot", "strawberry leaf-healthy"},
	{"corn", "Corn_(maize)___Common_rust_", "Corn_(maize)___healthy"},
	{"apple", "Apple___Apple_scab", "Apple___healthy"},
	{"grape", "Grape___Black_rot", "Grape___healthy"},
}

var healthyKeywords = []string{"healthy", "sehat", "normal"}

// SimulatedDetector guesses predictions from the file name. It is used for
// demos and tests when no model is configured.
type SimulatedDetector struct{}

func NewSimulatedDetector() *SimulatedDetector {
	return &SimulatedDetector{}
}

func (d *SimulatedDetector) Name() string {
	return "simulated"
}

func (d *SimulatedDetector) Detect(ctx context.Context, image []byte, filename string, opts Options) (*Detection, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.ToLower(filepath.Base(filename))
	guess := simulatedPlants[0]
	for _, p := range simulatedPlants {
		if strings.Contains(name, p.keyword) {
			guess = p
			break
		}
	}

	healthy := false
	for _, kw := range healthyKeywords {
		if strings.Contains(name, kw) && !strings.Contains(name, "un"+kw) {
			healthy = true
			break
		}
	}

	var preds []scan.RawPrediction
	if healthy {
		preds = []scan.RawPrediction{
			{ClassLabel: guess.healthy, Confidence: 0.92, BoundingBox: scan.BoundingBox{XCenter: 40.5, YCenter: 50.2, Width: 25.8, Height: 32.1}},
		}
	} else {
		preds = []scan.RawPrediction{
			{ClassLabel: guess.disease, Confidence: 0.85, BoundingBox: scan.BoundingBox{XCenter: 30.5, YCenter: 45.2, Width: 25.8, Height: 32.1}},
			{ClassLabel: guess.disease, Confidence: 0.78, BoundingBox: scan.BoundingBox{XCenter: 65.3, YCenter: 60.8, Width: 22.5, Height: 28.3}},
		}
	}

	kept := preds[:0]
	for _, p := range preds {
		if p.Confidence >= opts.Confidence {
			kept = append(kept, p)
		}
	}

	return &Detection{
		Predictions: NormalizePredictions(kept, scan.BoxUnitPercent, 0, 0),
		Model:       "simulated",
	}, nil
}
