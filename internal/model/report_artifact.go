package model

import "time"

// ReportArtifact maps a generated on-disk report name to the client-facing
// download name. Stored names are server-generated UUIDs; client input is
// never used as a disk filename.
type ReportArtifact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoredName   string    `gorm:"size:64;not null;uniqueIndex" json:"stored_name"`
	DownloadName string    `gorm:"size:160;not null" json:"download_name"`
	PatientName  string    `gorm:"size:128;not null;index" json:"patient_name"`
	RiskSummary  string    `gorm:"size:64" json:"risk_summary"`
	CreatedAt    time.Time `json:"created_at"`
}
