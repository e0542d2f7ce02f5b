package repository

import (
	"fmt"

	"gorm.io/gorm"

	"myopiadx/internal/model"
)

type ExamRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	if err := r.db.Create(exam).Error; err != nil {
		return fmt.Errorf("create exam failed: %w", err)
	}
	return nil
}

func (r *ExamRepository) ListRecent(limit int) ([]model.Exam, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var exams []model.Exam
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("list exams failed: %w", err)
	}
	return exams, nil
}

func (r *ExamRepository) ListByPatientName(name string, limit int) ([]model.Exam, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var exams []model.Exam
	if err := r.db.Where("patient_name = ?", name).
		Order("created_at DESC").Limit(limit).Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("list exams by patient failed: %w", err)
	}
	return exams, nil
}
