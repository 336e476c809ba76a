package service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"plantscan-service/internal/analysis"
	"plantscan-service/internal/detector"
	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/knowledge"
	"plantscan-service/internal/matcher"
	"plantscan-service/internal/repository"
)

type failingDetector struct{}

func (failingDetector) Name() string { return "failing" }

func (failingDetector) Detect(ctx context.Context, image []byte, filename string, opts detector.Options) (*detector.Detection, error) {
	return nil, errors.New("upstream returned 502")
}

func newService(t *testing.T, det detector.Detector) (*ScanService, *repository.MemoryScanRepository) {
	t.Helper()
	kb, err := knowledge.Load(filepath.Join("..", "..", "data", "diseases.json"))
	require.NoError(t, err)

	analyzer := analysis.NewAnalyzer(matcher.New(kb, matcher.DefaultOptions()), zerolog.Nop())
	repo := repository.NewMemoryScanRepository()
	svc := NewScanService(repo, det, analyzer, Options{Threshold: 0.5, Overlap: 0.3}, zerolog.Nop())
	return svc, repo
}

func ptr(f float64) *float64 { return &f }

func TestProcessImage_Disease(t *testing.T) {
	svc, _ := newService(t, detector.NewSimulatedDetector())
	ctx := context.Background()

	rec, err := svc.ProcessImage(ctx, []byte("jpeg"), "tomato_leaf.jpg", nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, rec.ID)
	require.Equal(t, "simulated", rec.Detector)
	require.Equal(t, 0.5, rec.Threshold)
	require.False(t, rec.Result.IsHealthy)
	require.Equal(t, "Early Blight (Tomato)", rec.Result.DiagnosisLabel)
	require.Equal(t, scan.SeverityHigh, rec.Result.RiskTier)
	require.Equal(t, 15, rec.Result.HealthScore)
	require.Equal(t, scan.MatchExact, rec.Result.MatchTier)

	for _, p := range rec.Predictions {
		require.Equal(t, scan.BoxUnitFraction, p.BoundingBox.Unit)
		require.LessOrEqual(t, p.BoundingBox.XCenter, 1.0)
	}

	stored, err := svc.GetScan(ctx, rec.ID.String())
	require.NoError(t, err)
	require.Equal(t, rec.Result.DiagnosisLabel, stored.Result.DiagnosisLabel)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, int64(1), stats.Unhealthy)
}

func TestProcessImage_Healthy(t *testing.T) {
	svc, _ := newService(t, detector.NewSimulatedDetector())

	rec, err := svc.ProcessImage(context.Background(), []byte("jpeg"), "tomato_healthy.jpg", ptr(50))
	require.NoError(t, err)
	require.Equal(t, 0.5, rec.Threshold)
	require.True(t, rec.Result.IsHealthy)
	require.Equal(t, 95, rec.Result.HealthScore)
	require.Equal(t, "Healthy Tomato", rec.Result.DiagnosisLabel)
}

func TestProcessImage_Errors(t *testing.T) {
	ctx := context.Background()

	svc, _ := newService(t, detector.NewSimulatedDetector())
	_, err := svc.ProcessImage(ctx, nil, "x.jpg", nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ProcessImage(ctx, []byte("x"), "x.jpg", ptr(150))
	require.ErrorIs(t, err, ErrInvalidInput)

	noDetector, _ := newService(t, nil)
	_, err = noDetector.ProcessImage(ctx, []byte("x"), "x.jpg", nil)
	require.ErrorIs(t, err, ErrDetectorUnavailable)

	failing, repo := newService(t, failingDetector{})
	_, err = failing.ProcessImage(ctx, []byte("x"), "x.jpg", nil)
	require.ErrorIs(t, err, ErrDetectorUnavailable)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Total)
}

func TestAnalyze_NormalizesInput(t *testing.T) {
	svc, repo := newService(t, nil)

	res, err := svc.Analyze(context.Background(), scan.AnalyzeRequest{
		Predictions: []scan.RawPrediction{
			{ClassLabel: "tomato-early blight", Confidence: 85},
			{ClassLabel: "  ", Confidence: 0.99},
			{ClassLabel: "tomato-healthy", Confidence: 250},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Early Blight (Tomato)", res.DiagnosisLabel)
	require.Equal(t, 15, res.HealthScore)
	require.Equal(t, 1, res.PredictionsCount)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Total)
}

func TestAnalyze_Empty(t *testing.T) {
	svc, _ := newService(t, nil)

	res, err := svc.Analyze(context.Background(), scan.AnalyzeRequest{})
	require.NoError(t, err)
	require.True(t, res.IsHealthy)
	require.Equal(t, 100, res.HealthScore)

	_, err = svc.Analyze(context.Background(), scan.AnalyzeRequest{Threshold: ptr(-1)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAndDeleteScan(t *testing.T) {
	svc, _ := newService(t, detector.NewSimulatedDetector())
	ctx := context.Background()

	_, err := svc.GetScan(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetScan(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := svc.ProcessImage(ctx, []byte("x"), "potato.jpg", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteScan(ctx, rec.ID.String()))
	require.ErrorIs(t, svc.DeleteScan(ctx, rec.ID.String()), ErrNotFound)
}

func TestListScans(t *testing.T) {
	svc, _ := newService(t, detector.NewSimulatedDetector())
	ctx := context.Background()

	for _, name := range []string{"tomato.jpg", "potato.jpg", "lettuce_healthy.jpg"} {
		_, err := svc.ProcessImage(ctx, []byte("x"), name, nil)
		require.NoError(t, err)
	}

	scans, err := svc.ListScans(ctx, 0, -3)
	require.NoError(t, err)
	require.Len(t, scans, 3)

	scans, err = svc.ListScans(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
}

func TestCleanupOldScans(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()

	_, err := svc.CleanupOldScans(ctx, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, repo.Save(ctx, &scan.Scan{ID: uuid.New(), CreatedAt: time.Now().AddDate(0, 0, -10)}))
	require.NoError(t, repo.Save(ctx, &scan.Scan{ID: uuid.New(), CreatedAt: time.Now()}))

	deleted, err := svc.CleanupOldScans(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestRunCleanup_StopsOnCancel(t *testing.T) {
	svc, repo := newService(t, nil)
	require.NoError(t, repo.Save(context.Background(), &scan.Scan{ID: uuid.New(), CreatedAt: time.Now().AddDate(0, 0, -40)}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.RunCleanup(ctx, 30, time.Hour))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Total)
}

func TestDiseases(t *testing.T) {
	svc, _ := newService(t, nil)

	list := svc.ListDiseases()
	require.Len(t, list, 16)
	require.True(t, sort.SliceIsSorted(list, func(i, j int) bool { return list[i].Key < list[j].Key }))

	d, err := svc.GetDisease("tomato-early blight")
	require.NoError(t, err)
	require.Equal(t, "Early Blight (Tomato)", d.DisplayName)

	d, err = svc.GetDisease("Tomato - Early  Blight")
	require.NoError(t, err)
	require.Equal(t, "tomato-early blight", d.Key)

	d, err = svc.GetDisease("tomato-early_blight")
	require.NoError(t, err)
	require.Equal(t, "tomato-early blight", d.Key)

	for _, key := range []string{"xyz", "tomato", "lettuce", "cucumber rust", "Tomato___Early_blight"} {
		_, err = svc.GetDisease(key)
		require.ErrorIs(t, err, ErrNotFound, key)
	}

	_, err = svc.GetDisease(" ")
	require.ErrorIs(t, err, ErrInvalidInput)
}
