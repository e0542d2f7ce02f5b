package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"myopiadx/internal/pkg/pdfextract"
	"myopiadx/internal/transport/http/response"
)

const maxReferralSize = 10 << 20 // 10 MB

// ReferralHandler extracts plain text from an uploaded referral-note
// PDF so specialists can paste prior findings into a review.
type ReferralHandler struct{}

func NewReferralHandler() *ReferralHandler {
	return &ReferralHandler{}
}

func (h *ReferralHandler) ExtractText(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "no file uploaded")
		return
	}
	if file.Size > maxReferralSize {
		response.Error(c, http.StatusBadRequest, "referral PDF too large (max 10MB)")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, "referral must be a PDF")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "could not extract text from PDF")
		return
	}

	response.OK(c, gin.H{"text": text})
}
