package model

import "time"

// Specialist is a registered clinical user. Uniqueness on email and
// medical ID is enforced by the database indexes, not only by the
// service-level existence checks.
type Specialist struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	FullName          string    `gorm:"size:128;not null" json:"fullName"`
	Email             string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	MedicalID         string    `gorm:"size:64;not null;uniqueIndex" json:"medicalId"`
	Specialty         string    `gorm:"size:64;not null" json:"specialty"`
	Hospital          string    `gorm:"size:128" json:"hospital"`
	YearsOfExperience string    `gorm:"size:16" json:"yearsOfExperience"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Specialties is the closed set accepted at registration.
var Specialties = []string{
	"Ophthalmology",
	"Optometry",
	"Pediatric Ophthalmology",
	"Retina Specialist",
	"Cornea Specialist",
	"Glaucoma Specialist",
	"Neuro-ophthalmology",
	"Oculoplastics",
	"Other",
}

func ValidSpecialty(s string) bool {
	for _, v := range Specialties {
		if v == s {
			return true
		}
	}
	return false
}
