package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"myopiadx/internal/app"
	"myopiadx/internal/risk"
	"myopiadx/internal/transport/http/response"
)

type RecommendationHandler struct {
	recommendationService *app.RecommendationService
}

func NewRecommendationHandler(recommendationService *app.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// Pointer fields so an absent measurement is distinguishable from zero;
// all three are required by contract.
type RecommendRequest struct {
	AxialLength  *float64 `json:"axial_length" binding:"required"`
	Refraction   *float64 `json:"refraction" binding:"required"`
	VisualAcuity *float64 `json:"visual_acuity" binding:"required"`
}

type recommendResponse struct {
	risk.Verdict
	RiskChartPath string `json:"risk_chart_path"`
}

// Recommend serves POST /recommend.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "axial_length, refraction and visual_acuity are required")
		return
	}

	result, err := h.recommendationService.Assess(c.Request.Context(), risk.Measurement{
		AxialLength:  *req.AxialLength,
		Refraction:   *req.Refraction,
		VisualAcuity: *req.VisualAcuity,
	})
	if err != nil {
		if errors.Is(err, risk.ErrInvalidMeasurement) {
			response.Error(c, http.StatusBadRequest, "measurements outside the physically plausible range")
			return
		}
		response.Error(c, http.StatusInternalServerError, "assessment failed")
		return
	}

	response.OK(c, recommendResponse{
		Verdict:       result.Verdict,
		RiskChartPath: "/charts/" + result.ChartName,
	})
}

type SaveRecommendationRequest struct {
	PatientName    string `json:"patient_name" binding:"required"`
	Recommendation struct {
		RiskParameters struct {
			AxialLength struct {
				Value *float64 `json:"value" binding:"required"`
			} `json:"axial_length" binding:"required"`
			Refraction struct {
				Value *float64 `json:"value" binding:"required"`
			} `json:"refraction" binding:"required"`
			VisualAcuity struct {
				Value *float64 `json:"value" binding:"required"`
			} `json:"visual_acuity" binding:"required"`
		} `json:"risk_parameters" binding:"required"`
	} `json:"recommendation" binding:"required"`
}

// Save serves POST /save-recommendation. Only the measurement values
// are taken from the posted recommendation; the verdict and the text
// that lands in the PDF are recomputed server-side.
func (h *RecommendationHandler) Save(c *gin.Context) {
	var req SaveRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "patient_name and recommendation with measurement values are required")
		return
	}

	artifact, err := h.recommendationService.Save(c.Request.Context(), app.SaveRecommendationInput{
		PatientName: req.PatientName,
		Measurement: risk.Measurement{
			AxialLength:  *req.Recommendation.RiskParameters.AxialLength.Value,
			Refraction:   *req.Recommendation.RiskParameters.Refraction.Value,
			VisualAcuity: *req.Recommendation.RiskParameters.VisualAcuity.Value,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingPatient), errors.Is(err, risk.ErrInvalidMeasurement):
			response.Error(c, http.StatusBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "save recommendation failed")
		}
		return
	}

	response.OK(c, gin.H{
		"message":  "recommendation saved",
		"filename": artifact.StoredName,
	})
}

// Download serves GET /download-recommendation/:filename as an
// attachment under the recorded display name.
func (h *RecommendationHandler) Download(c *gin.Context) {
	path, artifact, err := h.recommendationService.Open(c.Param("filename"))
	if err != nil {
		if errors.Is(err, app.ErrReportNotFound) {
			response.Error(c, http.StatusNotFound, "recommendation not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "open recommendation failed")
		return
	}
	c.FileAttachment(path, artifact.DownloadName)
}

// List serves GET /api/recommendations for authenticated specialists.
func (h *RecommendationHandler) List(c *gin.Context) {
	artifacts, err := h.recommendationService.List(50)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "list recommendations failed")
		return
	}
	response.OK(c, gin.H{"recommendations": artifacts})
}
