package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"myopiadx/internal/model"
	"myopiadx/internal/report"
	"myopiadx/internal/risk"
	"myopiadx/internal/storage"
)

var ErrReportNotFound = errors.New("report not found")

// VerdictCache memoizes assessments; a nil cache disables memoization.
type VerdictCache interface {
	Get(ctx context.Context, m risk.Measurement) (*risk.Verdict, bool, error)
	Set(ctx context.Context, m risk.Measurement, verdict risk.Verdict) error
}

// ReportArtifactStore is the persistence contract for the stored-name
// mapping table.
type ReportArtifactStore interface {
	Create(artifact *model.ReportArtifact) error
	GetByStoredName(name string) (*model.ReportArtifact, error)
	ListRecent(limit int) ([]model.ReportArtifact, error)
}

type RecommendationService struct {
	cache        VerdictCache
	store        *storage.Store
	renderer     *report.Renderer
	artifactRepo ReportArtifactStore
}

type AssessResult struct {
	Verdict   risk.Verdict
	ChartName string
}

type SaveRecommendationInput struct {
	PatientName string
	Measurement risk.Measurement
}

func NewRecommendationService(
	cache VerdictCache,
	store *storage.Store,
	renderer *report.Renderer,
	artifactRepo ReportArtifactStore,
) *RecommendationService {
	return &RecommendationService{
		cache:        cache,
		store:        store,
		renderer:     renderer,
		artifactRepo: artifactRepo,
	}
}

// Assess scores the measurement (through the cache when possible) and
// renders the risk chart. Cache failures degrade to recomputation; the
// engine is cheap and pure.
func (s *RecommendationService) Assess(ctx context.Context, m risk.Measurement) (*AssessResult, error) {
	verdict, err := s.assessCached(ctx, m)
	if err != nil {
		return nil, err
	}

	var chartBuf bytes.Buffer
	if err := risk.RenderChart(*verdict, &chartBuf); err != nil {
		return nil, err
	}
	chartName, err := s.store.Save(storage.KindChart, ".png", chartBuf.Bytes())
	if err != nil {
		return nil, err
	}

	return &AssessResult{Verdict: *verdict, ChartName: chartName}, nil
}

// Save re-assesses the measurement server-side (client-supplied verdict
// text is never trusted), renders the recommendation PDF under a
// generated name and records the name mapping.
func (s *RecommendationService) Save(ctx context.Context, input SaveRecommendationInput) (*model.ReportArtifact, error) {
	patientName := strings.TrimSpace(input.PatientName)
	if patientName == "" {
		return nil, ErrMissingPatient
	}

	verdict, err := s.assessCached(ctx, input.Measurement)
	if err != nil {
		return nil, err
	}

	var chartBuf bytes.Buffer
	if err := risk.RenderChart(*verdict, &chartBuf); err != nil {
		return nil, err
	}

	var pdfBuf bytes.Buffer
	err = s.renderer.RecommendationReport(&pdfBuf, report.RecommendationReportData{
		PatientName: patientName,
		Measurement: input.Measurement,
		Verdict:     *verdict,
		ChartPNG:    chartBuf.Bytes(),
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	storedName, err := s.store.Save(storage.KindReport, ".pdf", pdfBuf.Bytes())
	if err != nil {
		return nil, err
	}

	artifact := &model.ReportArtifact{
		StoredName:   storedName,
		DownloadName: downloadName(patientName),
		PatientName:  patientName,
		RiskSummary:  string(verdict.Summary),
		CreatedAt:    time.Now(),
	}
	if err := s.artifactRepo.Create(artifact); err != nil {
		// No mapping row, no referencable artifact.
		if remErr := s.store.Remove(storage.KindReport, storedName); remErr != nil {
			log.Printf("cleanup report %s failed: %v", storedName, remErr)
		}
		return nil, err
	}
	return artifact, nil
}

// Open resolves a stored report name to its on-disk path plus the
// recorded download name.
func (s *RecommendationService) Open(name string) (string, *model.ReportArtifact, error) {
	artifact, err := s.artifactRepo.GetByStoredName(name)
	if err != nil {
		return "", nil, err
	}
	if artifact == nil {
		return "", nil, ErrReportNotFound
	}

	path, err := s.store.Resolve(storage.KindReport, artifact.StoredName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return "", nil, ErrReportNotFound
		}
		return "", nil, err
	}
	return path, artifact, nil
}

func (s *RecommendationService) List(limit int) ([]model.ReportArtifact, error) {
	return s.artifactRepo.ListRecent(limit)
}

func (s *RecommendationService) assessCached(ctx context.Context, m risk.Measurement) (*risk.Verdict, error) {
	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, m); err == nil && hit {
			return cached, nil
		}
	}

	verdict, err := risk.Assess(m)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, m, verdict); err != nil {
			log.Printf("cache verdict failed: %v", err)
		}
	}
	return &verdict, nil
}

// downloadName builds the client-facing attachment name. It is metadata
// for the Content-Disposition header, never a disk path, but path
// separators are stripped anyway.
func downloadName(patientName string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '"', '\'', '\x00':
			return '_'
		}
		return r
	}, patientName)
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), " ", "_")
	return fmt.Sprintf("%s_myopia_recommendation.pdf", cleaned)
}
