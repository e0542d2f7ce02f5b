package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"myopiadx/internal/model"
	"myopiadx/internal/pkg/jwtutil"
	"myopiadx/internal/repository"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailExists        = errors.New("email already registered")
	ErrMedicalIDExists    = errors.New("medical ID already registered")
	ErrInvalidSpecialty   = errors.New("invalid specialty")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidCredential  = errors.New("invalid password")
	ErrSpecialistNotFound = errors.New("specialist not found")
)

// SpecialistStore is the account persistence contract. Create must
// report unique-column conflicts as repository.ErrDuplicateKey.
type SpecialistStore interface {
	Create(specialist *model.Specialist) error
	GetByEmail(email string) (*model.Specialist, error)
	GetByMedicalID(medicalID string) (*model.Specialist, error)
	GetByID(id uint) (*model.Specialist, error)
}

type AuthService struct {
	specialistRepo SpecialistStore
	jwtSecret      string
	jwtExpiration  time.Duration
}

type RegisterInput struct {
	FullName          string
	Email             string
	MedicalID         string
	Specialty         string
	Hospital          string
	YearsOfExperience string
	Password          string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token      string
	Specialist *model.Specialist
}

func NewAuthService(specialistRepo SpecialistStore, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		specialistRepo: specialistRepo,
		jwtSecret:      jwtSecret,
		jwtExpiration:  jwtExpiration,
	}
}

func (s *AuthService) Register(input RegisterInput) (*AuthResult, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	medicalID := strings.TrimSpace(input.MedicalID)
	specialty := strings.TrimSpace(input.Specialty)
	password := strings.TrimSpace(input.Password)

	if fullName == "" || email == "" || medicalID == "" || password == "" || len(password) < 8 {
		return nil, ErrInvalidInput
	}
	if !model.ValidSpecialty(specialty) {
		return nil, ErrInvalidSpecialty
	}

	existingByEmail, err := s.specialistRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	existingByMedicalID, err := s.specialistRepo.GetByMedicalID(medicalID)
	if err != nil {
		return nil, err
	}
	if existingByMedicalID != nil {
		return nil, ErrMedicalIDExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	specialist := &model.Specialist{
		FullName:          fullName,
		Email:             email,
		MedicalID:         medicalID,
		Specialty:         specialty,
		Hospital:          strings.TrimSpace(input.Hospital),
		YearsOfExperience: strings.TrimSpace(input.YearsOfExperience),
		PasswordHash:      string(hash),
	}
	if err := s.specialistRepo.Create(specialist); err != nil {
		// The unique indexes close the window between the existence
		// checks above and the insert.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, specialist.ID, specialist.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Specialist: specialist}, nil
}

// Login distinguishes an unknown email from a wrong password so the
// transport can answer 404 and 401 respectively.
func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	specialist, err := s.specialistRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if specialist == nil {
		return nil, ErrSpecialistNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(specialist.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, specialist.ID, specialist.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Specialist: specialist}, nil
}

func (s *AuthService) GetSpecialistByID(id uint) (*model.Specialist, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.specialistRepo.GetByID(id)
}
