package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"myopiadx/internal/app"
	"myopiadx/internal/detect"
	"myopiadx/internal/transport/http/middleware"
	"myopiadx/internal/transport/http/response"
)

type ScreeningHandler struct {
	screeningService *app.ScreeningService
	maxUploadBytes   int64
}

func NewScreeningHandler(screeningService *app.ScreeningService, maxUploadBytes int64) *ScreeningHandler {
	return &ScreeningHandler{
		screeningService: screeningService,
		maxUploadBytes:   maxUploadBytes,
	}
}

// Detect accepts a multipart fundus image plus patient metadata, runs
// the detection pipeline and returns the annotated image and report URLs.
func (h *ScreeningHandler) Detect(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "no file uploaded")
		return
	}
	if file.Size > h.maxUploadBytes {
		response.Error(c, http.StatusBadRequest,
			fmt.Sprintf("file too large (max %d MB)", h.maxUploadBytes>>20))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	result, err := h.screeningService.Screen(c.Request.Context(), app.ScreenInput{
		SpecialistID:     middleware.SpecialistID(c),
		PatientName:      c.PostForm("patient_name"),
		SpecialistReview: c.PostForm("specialist_review"),
		ImageData:        data,
		ImageExt:         filepath.Ext(file.Filename),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingPatient),
			errors.Is(err, app.ErrMissingImage),
			errors.Is(err, app.ErrUnsupportedImage):
			response.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, detect.ErrNoDetections):
			response.Error(c, http.StatusUnprocessableEntity, "model produced no detections for this image")
		default:
			response.Error(c, http.StatusInternalServerError, "detection failed")
		}
		return
	}

	response.OK(c, gin.H{
		"exam_uid":   result.ExamUID,
		"image_url":  "/results/" + result.ResultName,
		"pdf_url":    "/reports/" + result.ReportName,
		"detections": result.Detections,
	})
}

// ListExams serves the screening history for authenticated specialists.
func (h *ScreeningHandler) ListExams(c *gin.Context) {
	exams, err := h.screeningService.ListExams(50)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "list exams failed")
		return
	}
	response.OK(c, gin.H{"exams": exams})
}
