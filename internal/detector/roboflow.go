package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"plantscan-service/internal/domain/scan"
)

const (
	RoboflowBaseURL = "https://detect.roboflow.com"
	RoboflowModelID = "crop-disease-identification-dniia/2"
)

var ErrNotConfigured = errors.New("roboflow api key is not configured")

type RoboflowOpts struct {
	APIKey  string
	BaseURL string
	ModelID string
	Timeout time.Duration
}

// RoboflowDetector calls the hosted Roboflow inference API.
type RoboflowDetector struct {
	httpClient *resty.Client
	apiKey     string
	modelID    string
}

type roboflowPrediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

type roboflowResponse struct {
	Predictions []roboflowPrediction `json:"predictions"`
	Image       struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"image"`
	Time float64 `json:"time"`
}

func NewRoboflowDetector(opts RoboflowOpts) *RoboflowDetector {
	baseURL := RoboflowBaseURL
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	modelID := RoboflowModelID
	if opts.ModelID != "" {
		modelID = opts.ModelID
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RoboflowDetector{
		httpClient: resty.New().
			SetDebug(false).
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		apiKey:  strings.TrimSpace(opts.APIKey),
		modelID: strings.Trim(modelID, "/"),
	}
}

func (d *RoboflowDetector) Name() string {
	return "roboflow"
}

// Detect uploads the image and returns normalized predictions.
func (d *RoboflowDetector) Detect(ctx context.Context, image []byte, filename string, opts Options) (*Detection, error) {
	if d.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if filename == "" {
		filename = "image.jpg"
	}

	result := &roboflowResponse{}
	_, err := handleError(d.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":    d.apiKey,
			"confidence": fmt.Sprintf("%.0f", opts.Confidence*100),
			"overlap":    fmt.Sprintf("%.0f", opts.Overlap*100),
			"format":     "json",
		}).
		SetFileReader("file", filename, bytes.NewReader(image)).
		SetResult(result).
		Post("/" + d.modelID))
	if err != nil {
		return nil, fmt.Errorf("roboflow inference: %w", err)
	}

	preds := make([]scan.RawPrediction, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		preds = append(preds, scan.RawPrediction{
			ClassLabel: p.Class,
			Confidence: p.Confidence,
			BoundingBox: scan.BoundingBox{
				XCenter: p.X,
				YCenter: p.Y,
				Width:   p.Width,
				Height:  p.Height,
			},
		})
	}

	return &Detection{
		Predictions:   NormalizePredictions(preds, scan.BoxUnitPixels, result.Image.Width, result.Image.Height),
		ImageWidth:    result.Image.Width,
		ImageHeight:   result.Image.Height,
		Model:         d.modelID,
		InferenceTime: time.Duration(result.Time * float64(time.Second)),
	}, nil
}

// handleError turns >399 responses into errors; resty reports them as success.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}
