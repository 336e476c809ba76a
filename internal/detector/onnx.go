package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"
	"time"

	"github.com/nfnt/resize"
	ort "github.com/yalue/onnxruntime_go"

	"plantscan-service/internal/domain/scan"
)

const defaultIOUThreshold = 0.45

// Metadata describes an exported YOLO model. Output is [1, 4+classes, anchors].
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
}

type ONNXOpts struct {
	ModelPath         string
	MetadataPath      string
	SharedLibraryPath string
	IOUThreshold      float64
}

// ONNXDetector runs a local model. The session reuses its tensors, so
// inference is serialized.
type ONNXDetector struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	Metadata     Metadata
	iou          float64
}

func NewONNXDetector(opts ONNXOpts) (*ONNXDetector, error) {
	metaFile, err := os.ReadFile(opts.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(metaFile, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := metadata.validate(); err != nil {
		return nil, err
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	iou := opts.IOUThreshold
	if iou <= 0 {
		iou = defaultIOUThreshold
	}

	return &ONNXDetector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		Metadata:     metadata,
		iou:          iou,
	}, nil
}

func (m *Metadata) validate() error {
	if m.InputName == "" {
		m.InputName = "images"
	}
	if m.OutputName == "" {
		m.OutputName = "output0"
	}
	if len(m.Classes) == 0 {
		return fmt.Errorf("metadata: classes are required")
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("metadata: image_size must be positive")
	}
	want := int64(3 * m.ImageSize * m.ImageSize)
	got := int64(1)
	for _, d := range m.InputShape {
		got *= d
	}
	if len(m.InputShape) == 0 || got != want {
		return fmt.Errorf("metadata: input_shape %v must hold %d values ([1, 3, %d, %d])", m.InputShape, want, m.ImageSize, m.ImageSize)
	}
	if len(m.OutputShape) != 3 || m.OutputShape[1] != int64(4+len(m.Classes)) {
		return fmt.Errorf("metadata: output_shape must be [1, %d, anchors]", 4+len(m.Classes))
	}
	return nil
}

func (d *ONNXDetector) Name() string {
	return "onnx"
}

func (d *ONNXDetector) Detect(ctx context.Context, imageData []byte, filename string, opts Options) (*Detection, error) {
	if len(imageData) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	input := preprocess(img, d.Metadata.ImageSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	d.mu.Lock()
	copy(d.inputTensor.GetData(), input)
	err = d.session.Run()
	output := append([]float32(nil), d.outputTensor.GetData()...)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	anchors := int(d.Metadata.OutputShape[2])
	boxes := decodeYOLO(output, len(d.Metadata.Classes), anchors, opts.Confidence)
	boxes = nonMaxSuppression(boxes, d.iou)

	preds := make([]scan.RawPrediction, 0, len(boxes))
	for _, b := range boxes {
		preds = append(preds, scan.RawPrediction{
			ClassLabel:  d.Metadata.Classes[b.class],
			Confidence:  b.score,
			BoundingBox: scan.BoundingBox{XCenter: b.cx, YCenter: b.cy, Width: b.w, Height: b.h},
		})
	}

	size := d.Metadata.ImageSize
	return &Detection{
		Predictions:   NormalizePredictions(preds, scan.BoxUnitPixels, size, size),
		ImageWidth:    img.Bounds().Dx(),
		ImageHeight:   img.Bounds().Dy(),
		Model:         "onnx",
		InferenceTime: time.Since(start),
	}, nil
}

func (d *ONNXDetector) Close() {
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
	if d.session != nil {
		d.session.Destroy()
	}
	ort.DestroyEnvironment()
}

// preprocess stretches the image to size x size and lays it out as CHW
// floats in 0..1.
func preprocess(img image.Image, size int) []float32 {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear)
	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	data := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*width + x
			data[i] = float32(r) / 65535.0
			data[plane+i] = float32(g) / 65535.0
			data[2*plane+i] = float32(b) / 65535.0
		}
	}
	return data
}
