package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"myopiadx/internal/detect"
	"myopiadx/internal/risk"
)

// pageBreakAt is the Y position (mm on an A4 page) past which the next
// block starts on a fresh page.
const (
	pageHeight  = 297.0
	pageBreakAt = 260.0
)

// DetectionReportData is everything the detection report needs.
type DetectionReportData struct {
	PatientName      string
	SpecialistReview string
	Detections       []detect.Detection
	AnnotatedPNG     []byte
	GeneratedAt      time.Time
}

// RecommendationReportData is everything the recommendation report needs.
type RecommendationReportData struct {
	PatientName string
	Measurement risk.Measurement
	Verdict     risk.Verdict
	ChartPNG    []byte
	GeneratedAt time.Time
}

// Renderer assembles PDF reports. A UTF-8 font is loaded from the
// configured path when readable; otherwise the built-in Helvetica is
// used, which restricts output to cp1252 text but never fails a render.
type Renderer struct {
	clinicName string
	fontBytes  []byte
}

func NewRenderer(clinicName, unicodeFontPath string) *Renderer {
	r := &Renderer{clinicName: clinicName}
	if unicodeFontPath != "" {
		if data, err := os.ReadFile(unicodeFontPath); err == nil {
			r.fontBytes = data
		}
	}
	return r
}

// DetectionReport writes the screening report PDF.
func (r *Renderer) DetectionReport(w io.Writer, data DetectionReportData) error {
	pdf, font := r.newDocument()

	r.header(pdf, font, "Fundus Screening Report")
	r.field(pdf, font, "Patient", data.PatientName)
	r.field(pdf, font, "Generated", data.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(4)

	r.sectionTitle(pdf, font, "Detected Findings")
	r.detectionTable(pdf, font, data.Detections)
	pdf.Ln(4)

	if data.SpecialistReview != "" {
		r.sectionTitle(pdf, font, "Specialist Review")
		r.paragraph(pdf, font, data.SpecialistReview)
		pdf.Ln(4)
	}

	if len(data.AnnotatedPNG) > 0 {
		r.sectionTitle(pdf, font, "Annotated Image")
		r.embedPNG(pdf, "annotated", data.AnnotatedPNG, 150)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render detection report failed: %w", err)
	}
	return nil
}

// RecommendationReport writes the risk assessment report PDF.
func (r *Renderer) RecommendationReport(w io.Writer, data RecommendationReportData) error {
	pdf, font := r.newDocument()

	r.header(pdf, font, "Myopia Risk Assessment")
	r.field(pdf, font, "Patient", data.PatientName)
	r.field(pdf, font, "Generated", data.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(4)

	r.sectionTitle(pdf, font, "Clinical Measurements")
	r.measurementRow(pdf, font, "Axial Length (mm)", data.Measurement.AxialLength, data.Verdict.Parameters.AxialLength)
	r.measurementRow(pdf, font, "Refraction (D)", data.Measurement.Refraction, data.Verdict.Parameters.Refraction)
	r.measurementRow(pdf, font, "Visual Acuity", data.Measurement.VisualAcuity, data.Verdict.Parameters.VisualAcuity)
	pdf.Ln(4)

	r.sectionTitle(pdf, font, "Overall Risk")
	r.paragraph(pdf, font, string(data.Verdict.Summary))
	pdf.Ln(4)

	r.sectionTitle(pdf, font, "Primary Recommendations")
	r.numberedList(pdf, font, data.Verdict.Primary)
	pdf.Ln(2)

	r.sectionTitle(pdf, font, "Secondary Recommendations")
	r.numberedList(pdf, font, data.Verdict.Secondary)
	pdf.Ln(4)

	if len(data.ChartPNG) > 0 {
		r.sectionTitle(pdf, font, "Risk Factor Chart")
		r.embedPNG(pdf, "risk-chart", data.ChartPNG, 130)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render recommendation report failed: %w", err)
	}
	return nil
}

func (r *Renderer) newDocument() (*fpdf.Fpdf, string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Auto page break carries overlong MultiCell blocks onto fresh
	// pages; ensureSpace still keeps block headers off the break line.
	pdf.SetAutoPageBreak(true, pageHeight-pageBreakAt)

	font := "Helvetica"
	if len(r.fontBytes) > 0 {
		pdf.AddUTF8FontFromBytes("unicode", "", r.fontBytes)
		if pdf.Err() {
			// Corrupt font file: clear the sticky error and fall back.
			pdf.ClearError()
		} else {
			font = "unicode"
		}
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(font, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s - page %d", r.clinicName, pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	return pdf, font
}

// ensureSpace starts a new page when the cursor has crossed the break
// line, so no block begins in the footer band.
func ensureSpace(pdf *fpdf.Fpdf, needed float64) {
	if pdf.GetY()+needed > pageBreakAt {
		pdf.AddPage()
	}
}

func (r *Renderer) header(pdf *fpdf.Fpdf, font, title string) {
	pdf.SetFont(font, "", 18)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(0, 6, r.clinicName, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (r *Renderer) field(pdf *fpdf.Fpdf, font, label, value string) {
	ensureSpace(pdf, 7)
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(40, 7, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func (r *Renderer) sectionTitle(pdf *fpdf.Fpdf, font, title string) {
	ensureSpace(pdf, 9)
	pdf.SetFont(font, "", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
}

func (r *Renderer) paragraph(pdf *fpdf.Fpdf, font, text string) {
	ensureSpace(pdf, 12)
	pdf.SetFont(font, "", 11)
	pdf.MultiCell(0, 6, text, "", "L", false)
}

func (r *Renderer) numberedList(pdf *fpdf.Fpdf, font string, items []string) {
	pdf.SetFont(font, "", 11)
	for i, item := range items {
		ensureSpace(pdf, 6)
		pdf.CellFormat(8, 6, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.MultiCell(0, 6, item, "", "L", false)
	}
}

func (r *Renderer) measurementRow(pdf *fpdf.Fpdf, font, label string, value float64, factor risk.Factor) {
	ensureSpace(pdf, 7)
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(60, 7, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", value), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, string(factor.Category), "1", 1, "C", false, 0, "")
}

func (r *Renderer) detectionTable(pdf *fpdf.Fpdf, font string, detections []detect.Detection) {
	pdf.SetFont(font, "", 11)
	ensureSpace(pdf, 7)
	pdf.CellFormat(80, 7, "Finding", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Confidence", "1", 0, "R", false, 0, "")
	pdf.CellFormat(60, 7, "Location (px)", "1", 1, "L", false, 0, "")
	for _, det := range detections {
		ensureSpace(pdf, 7)
		pdf.CellFormat(80, 7, det.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.0f%%", det.Score*100), "1", 0, "R", false, 0, "")
		loc := fmt.Sprintf("(%d, %d) - (%d, %d)", det.Box.X0, det.Box.Y0, det.Box.X1, det.Box.Y1)
		pdf.CellFormat(60, 7, loc, "1", 1, "L", false, 0, "")
	}
}

func (r *Renderer) embedPNG(pdf *fpdf.Fpdf, name string, png []byte, widthMM float64) {
	ensureSpace(pdf, 80)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), widthMM, 0, true, opts, 0, "")
}
