package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"plantscan-service/internal/analysis"
	"plantscan-service/internal/detector"
	"plantscan-service/internal/domain/scan"
	"plantscan-service/internal/repository"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrDetectorUnavailable = errors.New("detector unavailable")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ScanRepository stores scan history.
type ScanRepository interface {
	Save(ctx context.Context, s *scan.Scan) error
	Get(ctx context.Context, id uuid.UUID) (*scan.Scan, error)
	List(ctx context.Context, limit, offset int) ([]scan.Scan, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
	Stats(ctx context.Context) (*scan.Stats, error)
}

type Options struct {
	Threshold float64
	Overlap   float64
}

type ScanService struct {
	repo     ScanRepository
	detector detector.Detector
	analyzer *analysis.Analyzer
	opts     Options
	log      zerolog.Logger
}

// NewScanService wires the pipeline. det may be nil, in which case only
// direct analysis of predictions is available.
func NewScanService(repo ScanRepository, det detector.Detector, analyzer *analysis.Analyzer, opts Options, log zerolog.Logger) *ScanService {
	return &ScanService{
		repo:     repo,
		detector: det,
		analyzer: analyzer,
		opts:     opts,
		log:      log,
	}
}

func (s *ScanService) DefaultThreshold() float64 {
	return s.opts.Threshold
}

func (s *ScanService) DetectorName() string {
	if s.detector == nil {
		return ""
	}
	return s.detector.Name()
}

func (s *ScanService) resolveThreshold(threshold *float64) (float64, error) {
	if threshold == nil {
		return s.opts.Threshold, nil
	}
	t, ok := detector.NormalizeConfidence(*threshold)
	if !ok {
		return 0, fmt.Errorf("%w: threshold must be between 0 and 1", ErrInvalidInput)
	}
	return t, nil
}

// ProcessImage runs the detector on an image, analyzes the predictions and
// stores the scan in history.
func (s *ScanService) ProcessImage(ctx context.Context, image []byte, filename string, threshold *float64) (*scan.Scan, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	t, err := s.resolveThreshold(threshold)
	if err != nil {
		return nil, err
	}
	if s.detector == nil {
		return nil, fmt.Errorf("%w: no detector configured", ErrDetectorUnavailable)
	}

	detection, err := s.detector.Detect(ctx, image, filename, detector.Options{
		Confidence: t,
		Overlap:    s.opts.Overlap,
	})
	if err != nil {
		s.log.Error().
			Err(err).
			Str("detector", s.detector.Name()).
			Str("filename", filename).
			Msg("detection failed")
		if errors.Is(err, detector.ErrEmptyImage) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	result := s.analyzer.Analyze(detection.Predictions, t)

	record := &scan.Scan{
		ID:          uuid.New(),
		Filename:    filename,
		Detector:    s.detector.Name(),
		Threshold:   t,
		Predictions: detection.Predictions,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, record); err != nil {
		s.log.Error().
			Err(err).
			Str("scan_id", record.ID.String()).
			Msg("failed to save scan")
		return nil, fmt.Errorf("failed to save scan: %w", err)
	}

	s.log.Info().
		Str("scan_id", record.ID.String()).
		Str("detector", record.Detector).
		Str("filename", filename).
		Int("predictions", len(detection.Predictions)).
		Dur("inference_time", detection.InferenceTime).
		Str("diagnosis", result.DiagnosisLabel).
		Str("match_tier", string(result.MatchTier)).
		Int("health_score", result.HealthScore).
		Msg("scan processed")

	return record, nil
}

// Analyze diagnoses predictions supplied by the caller. Nothing is stored.
func (s *ScanService) Analyze(ctx context.Context, req scan.AnalyzeRequest) (*scan.AnalysisResult, error) {
	t, err := s.resolveThreshold(req.Threshold)
	if err != nil {
		return nil, err
	}
	if req.ImageWidth < 0 || req.ImageHeight < 0 {
		return nil, fmt.Errorf("%w: image size cannot be negative", ErrInvalidInput)
	}

	preds := detector.NormalizePredictions(req.Predictions, scan.BoxUnitFraction, req.ImageWidth, req.ImageHeight)
	if dropped := len(req.Predictions) - len(preds); dropped > 0 {
		s.log.Debug().Int("dropped", dropped).Msg("dropped malformed predictions")
	}

	result := s.analyzer.Analyze(preds, t)
	return &result, nil
}

func (s *ScanService) ListScans(ctx context.Context, limit, offset int) ([]scan.Scan, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	scans, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}

func (s *ScanService) GetScan(ctx context.Context, id string) (*scan.Scan, error) {
	scanID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid scan id", ErrInvalidInput)
	}

	record, err := s.repo.Get(ctx, scanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: scan %s", ErrNotFound, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return record, nil
}

func (s *ScanService) DeleteScan(ctx context.Context, id string) error {
	scanID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid scan id", ErrInvalidInput)
	}

	err = s.repo.Delete(ctx, scanID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: scan %s", ErrNotFound, scanID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete scan: %w", err)
	}

	s.log.Info().Str("scan_id", scanID.String()).Msg("scan deleted")
	return nil
}

func (s *ScanService) Stats(ctx context.Context) (*scan.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

// CleanupOldScans deletes scans older than the given number of days.
func (s *ScanService) CleanupOldScans(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", ErrInvalidInput)
	}

	deleted, err := s.repo.DeleteOlderThan(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old scans")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old scans")
	}
	return deleted, nil
}

// RunCleanup calls CleanupOldScans every interval until ctx is done.
func (s *ScanService) RunCleanup(ctx context.Context, days int, interval time.Duration) error {
	if days <= 0 || interval <= 0 {
		s.log.Info().Msg("scan history cleanup disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// errors are logged by CleanupOldScans
		_, _ = s.CleanupOldScans(ctx, days)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
