package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"myopiadx/internal/model"
)

type ReportArtifactRepository struct {
	db *gorm.DB
}

func NewReportArtifactRepository(db *gorm.DB) *ReportArtifactRepository {
	return &ReportArtifactRepository{db: db}
}

func (r *ReportArtifactRepository) Create(artifact *model.ReportArtifact) error {
	if err := r.db.Create(artifact).Error; err != nil {
		return fmt.Errorf("create report artifact failed: %w", err)
	}
	return nil
}

func (r *ReportArtifactRepository) GetByStoredName(name string) (*model.ReportArtifact, error) {
	var artifact model.ReportArtifact
	if err := r.db.Where("stored_name = ?", name).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query report artifact failed: %w", err)
	}
	return &artifact, nil
}

func (r *ReportArtifactRepository) ListRecent(limit int) ([]model.ReportArtifact, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var artifacts []model.ReportArtifact
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&artifacts).Error; err != nil {
		return nil, fmt.Errorf("list report artifacts failed: %w", err)
	}
	return artifacts, nil
}

func (r *ReportArtifactRepository) DeleteByStoredName(name string) error {
	if err := r.db.Where("stored_name = ?", name).Delete(&model.ReportArtifact{}).Error; err != nil {
		return fmt.Errorf("delete report artifact failed: %w", err)
	}
	return nil
}
