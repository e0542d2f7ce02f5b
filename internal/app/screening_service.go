package app

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"myopiadx/internal/detect"
	"myopiadx/internal/model"
	"myopiadx/internal/report"
	"myopiadx/internal/repository"
	"myopiadx/internal/storage"
)

var (
	ErrMissingImage     = errors.New("image file is required")
	ErrMissingPatient   = errors.New("patient name is required")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrDetectionFailed  = errors.New("detection failed")
)

// FundusDetector is the detection gateway contract consumed here.
type FundusDetector interface {
	Detect(imageData []byte) (*detect.Result, error)
}

// ExamEventPublisher enqueues the screening audit record for async
// persistence.
type ExamEventPublisher interface {
	Publish(ctx context.Context, exam model.Exam) error
}

type ScreeningService struct {
	detector  FundusDetector
	store     *storage.Store
	renderer  *report.Renderer
	publisher ExamEventPublisher
	examRepo  *repository.ExamRepository
}

type ScreenInput struct {
	SpecialistID     uint
	PatientName      string
	SpecialistReview string
	ImageData        []byte
	ImageExt         string
}

type ScreenResult struct {
	ExamUID    string
	UploadName string
	ResultName string
	ReportName string
	Detections []detect.Detection
}

func NewScreeningService(
	detector FundusDetector,
	store *storage.Store,
	renderer *report.Renderer,
	publisher ExamEventPublisher,
	examRepo *repository.ExamRepository,
) *ScreeningService {
	return &ScreeningService{
		detector:  detector,
		store:     store,
		renderer:  renderer,
		publisher: publisher,
		examRepo:  examRepo,
	}
}

// Screen runs the full detection pipeline: persist the upload, detect,
// write the annotated image and the PDF report, then enqueue the exam
// record. If a downstream step fails, every artifact written by an
// earlier step is removed so nothing half-finished stays referencable.
func (s *ScreeningService) Screen(ctx context.Context, input ScreenInput) (*ScreenResult, error) {
	patientName := strings.TrimSpace(input.PatientName)
	if patientName == "" {
		return nil, ErrMissingPatient
	}
	if len(input.ImageData) == 0 {
		return nil, ErrMissingImage
	}

	ext := strings.ToLower(strings.TrimSpace(input.ImageExt))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return nil, ErrUnsupportedImage
	}

	uploadName, err := s.store.Save(storage.KindUpload, ext, input.ImageData)
	if err != nil {
		return nil, err
	}

	result, err := s.detector.Detect(input.ImageData)
	if err != nil {
		s.cleanup(storage.KindUpload, uploadName)
		if errors.Is(err, detect.ErrNoDetections) {
			return nil, err
		}
		log.Printf("detector failed: %v", err)
		return nil, ErrDetectionFailed
	}

	var annotated bytes.Buffer
	if err := png.Encode(&annotated, result.Annotated); err != nil {
		s.cleanup(storage.KindUpload, uploadName)
		return nil, ErrDetectionFailed
	}
	resultName, err := s.store.Save(storage.KindResult, ".png", annotated.Bytes())
	if err != nil {
		s.cleanup(storage.KindUpload, uploadName)
		return nil, err
	}

	var reportBuf bytes.Buffer
	err = s.renderer.DetectionReport(&reportBuf, report.DetectionReportData{
		PatientName:      patientName,
		SpecialistReview: strings.TrimSpace(input.SpecialistReview),
		Detections:       result.Detections,
		AnnotatedPNG:     annotated.Bytes(),
		GeneratedAt:      time.Now(),
	})
	if err != nil {
		s.cleanup(storage.KindUpload, uploadName)
		s.cleanup(storage.KindResult, resultName)
		return nil, err
	}
	reportName, err := s.store.Save(storage.KindReport, ".pdf", reportBuf.Bytes())
	if err != nil {
		s.cleanup(storage.KindUpload, uploadName)
		s.cleanup(storage.KindResult, resultName)
		return nil, err
	}

	top := result.Detections[0]
	exam := model.Exam{
		ExamUID:          uuid.NewString(),
		SpecialistID:     input.SpecialistID,
		PatientName:      patientName,
		SpecialistReview: strings.TrimSpace(input.SpecialistReview),
		UploadName:       uploadName,
		ResultName:       resultName,
		ReportName:       reportName,
		DetectionCount:   len(result.Detections),
		TopLabel:         top.Label,
		TopScore:         top.Score,
		CreatedAt:        time.Now(),
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, exam); err != nil {
			// Audit publish failure does not fail the screening.
			log.Printf("publish exam record failed: %v", err)
		}
	}

	return &ScreenResult{
		ExamUID:    exam.ExamUID,
		UploadName: uploadName,
		ResultName: resultName,
		ReportName: reportName,
		Detections: result.Detections,
	}, nil
}

func (s *ScreeningService) ListExams(limit int) ([]model.Exam, error) {
	return s.examRepo.ListRecent(limit)
}

func (s *ScreeningService) cleanup(kind storage.Kind, name string) {
	if err := s.store.Remove(kind, name); err != nil {
		log.Printf("cleanup %s artifact %s failed: %v", kind, name, err)
	}
}
