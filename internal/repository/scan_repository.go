package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"plantscan-service/internal/domain/scan"
)

var ErrNotFound = errors.New("scan not found")

const maxListLimit = 100

type ScanRepository struct {
	db *gorm.DB
}

func NewScanRepository(db *gorm.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

type ScanRecord struct {
	ID                uuid.UUID                               `gorm:"type:uuid;primaryKey"`
	Filename          *string
	Detector          string                                  `gorm:"not null"`
	Threshold         float64                                 `gorm:"not null"`
	IsHealthy         bool                                    `gorm:"not null"`
	HealthScore       int                                     `gorm:"not null"`
	RiskTier          string                                  `gorm:"not null"`
	Diagnosis         string                                  `gorm:"not null"`
	MatchedKey        *string
	AverageConfidence float64
	Predictions       datatypes.JSONSlice[scan.RawPrediction] `gorm:"type:jsonb"`
	Result            datatypes.JSONType[scan.AnalysisResult] `gorm:"type:jsonb"`
	CreatedAt         time.Time                               `gorm:"not null"`
}

func (ScanRecord) TableName() string {
	return "scans"
}

func toRecord(s *scan.Scan) ScanRecord {
	rec := ScanRecord{
		ID:                s.ID,
		Detector:          s.Detector,
		Threshold:         s.Threshold,
		IsHealthy:         s.Result.IsHealthy,
		HealthScore:       s.Result.HealthScore,
		RiskTier:          string(s.Result.RiskTier),
		Diagnosis:         s.Result.DiagnosisLabel,
		MatchedKey:        s.Result.MatchedEntryKey,
		AverageConfidence: s.Result.AverageConfidence,
		Predictions:       datatypes.NewJSONSlice(s.Predictions),
		Result:            datatypes.NewJSONType(s.Result),
		CreatedAt:         s.CreatedAt,
	}
	if s.Filename != "" {
		rec.Filename = &s.Filename
	}
	return rec
}

func (r ScanRecord) toDomain() scan.Scan {
	s := scan.Scan{
		ID:          r.ID,
		Detector:    r.Detector,
		Threshold:   r.Threshold,
		Predictions: []scan.RawPrediction(r.Predictions),
		Result:      r.Result.Data(),
		CreatedAt:   r.CreatedAt,
	}
	if r.Filename != nil {
		s.Filename = *r.Filename
	}
	return s
}

func (r *ScanRepository) Save(ctx context.Context, s *scan.Scan) error {
	rec := toRecord(s)
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *ScanRepository) Get(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var rec ScanRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s := rec.toDomain()
	return &s, nil
}

func (r *ScanRepository) List(ctx context.Context, limit, offset int) ([]scan.Scan, error) {
	query := r.db.WithContext(ctx).Model(&ScanRecord{}).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(min(limit, maxListLimit))
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []ScanRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	scans := make([]scan.Scan, 0, len(records))
	for _, rec := range records {
		scans = append(scans, rec.toDomain())
	}
	return scans, nil
}

func (r *ScanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ScanRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScanRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&ScanRecord{})
	return res.RowsAffected, res.Error
}

func (r *ScanRepository) Stats(ctx context.Context) (*scan.Stats, error) {
	stats := &scan.Stats{ByDiagnosis: map[string]int64{}}

	if err := r.db.WithContext(ctx).Model(&ScanRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&ScanRecord{}).Where("is_healthy = ?", true).Count(&stats.Healthy).Error; err != nil {
		return nil, err
	}
	stats.Unhealthy = stats.Total - stats.Healthy

	var rows []struct {
		Diagnosis string
		Count     int64
	}
	err := r.db.WithContext(ctx).
		Model(&ScanRecord{}).
		Select("diagnosis, count(*) as count").
		Group("diagnosis").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByDiagnosis[row.Diagnosis] = row.Count
	}

	return stats, nil
}
