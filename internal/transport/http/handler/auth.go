package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"myopiadx/internal/app"
	"myopiadx/internal/model"
	"myopiadx/internal/transport/http/middleware"
	"myopiadx/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	FullName          string `json:"fullName" binding:"required,min=2,max=128"`
	Email             string `json:"email" binding:"required,email,max=128"`
	MedicalID         string `json:"medicalId" binding:"required,min=2,max=64"`
	Specialty         string `json:"specialty" binding:"required"`
	Hospital          string `json:"hospital"`
	YearsOfExperience string `json:"yearsOfExperience"`
	Password          string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Register(app.RegisterInput{
		FullName:          req.FullName,
		Email:             req.Email,
		MedicalID:         req.MedicalID,
		Specialty:         req.Specialty,
		Hospital:          req.Hospital,
		YearsOfExperience: req.YearsOfExperience,
		Password:          req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidSpecialty):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrEmailExists),
			errors.Is(err, app.ErrMedicalIDExists),
			errors.Is(err, app.ErrDuplicateAccount):
			response.Error(c, http.StatusConflict, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "register failed")
		}
		return
	}

	response.Created(c, gin.H{
		"token":  result.Token,
		"userId": result.Specialist.ID,
		"user":   profilePayload(result.Specialist),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrSpecialistNotFound):
			// Distinct from a wrong password by contract.
			response.Error(c, http.StatusNotFound, "no account for this email")
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, "invalid password")
		default:
			response.Error(c, http.StatusInternalServerError, "login failed")
		}
		return
	}

	payload := profilePayload(result.Specialist)
	payload["token"] = result.Token
	payload["userId"] = result.Specialist.ID
	response.OK(c, payload)
}

// Profile serves GET /user/:user_id. A specialist can only read their
// own profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	requestedID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	callerID := middleware.SpecialistID(c)
	if callerID == 0 || callerID != uint(requestedID) {
		response.Error(c, http.StatusForbidden, "access denied")
		return
	}

	specialist, err := h.authService.GetSpecialistByID(uint(requestedID))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "fetch profile failed")
		return
	}
	if specialist == nil {
		response.Error(c, http.StatusNotFound, "specialist not found")
		return
	}

	response.OK(c, profilePayload(specialist))
}

func profilePayload(s *model.Specialist) gin.H {
	return gin.H{
		"id":                s.ID,
		"fullName":          s.FullName,
		"email":             s.Email,
		"medicalId":         s.MedicalID,
		"specialty":         s.Specialty,
		"hospital":          s.Hospital,
		"yearsOfExperience": s.YearsOfExperience,
	}
}
