package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"myopiadx/internal/model"
)

type SpecialistRepository struct {
	db *gorm.DB
}

func NewSpecialistRepository(db *gorm.DB) *SpecialistRepository {
	return &SpecialistRepository{db: db}
}

// ErrDuplicateKey surfaces a unique-index violation on insert so the
// service can report a conflict even when the existence check raced.
var ErrDuplicateKey = errors.New("duplicate key")

func (r *SpecialistRepository) Create(specialist *model.Specialist) error {
	if err := r.db.Create(specialist).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create specialist failed: %w", err)
	}
	return nil
}

func (r *SpecialistRepository) GetByEmail(email string) (*model.Specialist, error) {
	var specialist model.Specialist
	if err := r.db.Where("email = ?", email).First(&specialist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query specialist by email failed: %w", err)
	}
	return &specialist, nil
}

func (r *SpecialistRepository) GetByMedicalID(medicalID string) (*model.Specialist, error) {
	var specialist model.Specialist
	if err := r.db.Where("medical_id = ?", medicalID).First(&specialist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query specialist by medical id failed: %w", err)
	}
	return &specialist, nil
}

func (r *SpecialistRepository) GetByID(id uint) (*model.Specialist, error) {
	var specialist model.Specialist
	if err := r.db.First(&specialist, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query specialist by id failed: %w", err)
	}
	return &specialist, nil
}
