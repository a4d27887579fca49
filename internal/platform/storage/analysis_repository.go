package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
)

// AnalysisRepository stores and queries analysis records.
type AnalysisRepository interface {
	Save(ctx context.Context, record *AnalysisRecord) error
	FindByID(ctx context.Context, id uint) (*AnalysisRecord, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*AnalysisRecord, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*AnalysisRecord, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Save(ctx context.Context, record *AnalysisRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "analysis.save", "failed to save analysis record", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(ctx context.Context, id uint) (*AnalysisRecord, error) {
	var record AnalysisRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "analysis.find_by_id", "failed to find analysis record", err)
	}
	return &record, nil
}

func (r *analysisRepository) ListRecent(ctx context.Context, limit, offset int) ([]*AnalysisRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var records []*AnalysisRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "analysis.list_recent", "failed to list analysis records", err)
	}
	return records, nil
}

func (r *analysisRepository) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]*AnalysisRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var records []*AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "analysis.list_by_client", "failed to list analysis records", err)
	}
	return records, nil
}

func (r *analysisRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AnalysisRecord{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(errors.KindStorage, "analysis.count_by_status", "failed to count analysis records", err)
	}
	return count, nil
}
