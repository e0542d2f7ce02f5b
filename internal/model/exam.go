package model

import "time"

// Exam is the audit record of one /detect screening. It is published to
// the broker by the screening service and persisted by the exam worker.
type Exam struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ExamUID          string    `gorm:"size:36;not null;uniqueIndex" json:"exam_uid"`
	SpecialistID     uint      `gorm:"index" json:"specialist_id,omitempty"`
	PatientName      string    `gorm:"size:128;not null" json:"patient_name"`
	SpecialistReview string    `gorm:"type:text" json:"specialist_review"`
	UploadName       string    `gorm:"size:64;not null" json:"upload_name"`
	ResultName       string    `gorm:"size:64;not null" json:"result_name"`
	ReportName       string    `gorm:"size:64;not null" json:"report_name"`
	DetectionCount   int       `gorm:"not null" json:"detection_count"`
	TopLabel         string    `gorm:"size:64" json:"top_label"`
	TopScore         float32   `json:"top_score"`
	CreatedAt        time.Time `json:"created_at"`
}
