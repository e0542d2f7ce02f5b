package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myopiadx/internal/model"
	"myopiadx/internal/report"
	"myopiadx/internal/risk"
	"myopiadx/internal/storage"
)

type memArtifactStore struct {
	rows      []model.ReportArtifact
	createErr error
}

func (m *memArtifactStore) Create(artifact *model.ReportArtifact) error {
	if m.createErr != nil {
		return m.createErr
	}
	artifact.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *artifact)
	return nil
}

func (m *memArtifactStore) GetByStoredName(name string) (*model.ReportArtifact, error) {
	for _, row := range m.rows {
		if row.StoredName == name {
			copied := row
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memArtifactStore) ListRecent(_ int) ([]model.ReportArtifact, error) {
	return m.rows, nil
}

type memVerdictCache struct {
	entries map[string]risk.Verdict
	sets    int
	hits    int
}

func newMemVerdictCache() *memVerdictCache {
	return &memVerdictCache{entries: map[string]risk.Verdict{}}
}

func (c *memVerdictCache) key(m risk.Measurement) string {
	return fmt.Sprintf("%v/%v/%v", m.AxialLength, m.Refraction, m.VisualAcuity)
}

func (c *memVerdictCache) Get(_ context.Context, m risk.Measurement) (*risk.Verdict, bool, error) {
	v, ok := c.entries[c.key(m)]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &v, true, nil
}

func (c *memVerdictCache) Set(_ context.Context, m risk.Measurement, verdict risk.Verdict) error {
	c.sets++
	c.entries[c.key(m)] = verdict
	return nil
}

func newRecommendationFixture(t *testing.T, cache VerdictCache, artifacts ReportArtifactStore) (*RecommendationService, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	renderer := report.NewRenderer("Test Clinic", "")
	return NewRecommendationService(cache, store, renderer, artifacts), store
}

func TestAssessReturnsVerdictAndChart(t *testing.T) {
	svc, store := newRecommendationFixture(t, nil, &memArtifactStore{})
	m := risk.Measurement{AxialLength: 25, Refraction: 4, VisualAcuity: 0.6}

	res, err := svc.Assess(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, risk.TierModerate, res.Verdict.Summary)
	require.NotEmpty(t, res.ChartName)

	_, err = store.Resolve(storage.KindChart, res.ChartName)
	assert.NoError(t, err, "chart artifact should exist on disk")
}

func TestAssessPropagatesInvalidMeasurement(t *testing.T) {
	svc, _ := newRecommendationFixture(t, nil, &memArtifactStore{})

	_, err := svc.Assess(context.Background(), risk.Measurement{AxialLength: -1, Refraction: 0, VisualAcuity: 1})
	assert.ErrorIs(t, err, risk.ErrInvalidMeasurement)
}

func TestAssessUsesCache(t *testing.T) {
	cache := newMemVerdictCache()
	svc, _ := newRecommendationFixture(t, cache, &memArtifactStore{})
	m := risk.Measurement{AxialLength: 27, Refraction: 7, VisualAcuity: 0.3}

	first, err := svc.Assess(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Zero(t, cache.hits)

	second, err := svc.Assess(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "hit must not re-store")
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Verdict, second.Verdict)
}

func TestSaveCreatesMappedReport(t *testing.T) {
	artifacts := &memArtifactStore{}
	svc, store := newRecommendationFixture(t, nil, artifacts)

	artifact, err := svc.Save(context.Background(), SaveRecommendationInput{
		PatientName: "Jane Doe",
		Measurement: risk.Measurement{AxialLength: 27, Refraction: 7, VisualAcuity: 0.3},
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane_Doe_myopia_recommendation.pdf", artifact.DownloadName)
	assert.Equal(t, string(risk.TierHigh), artifact.RiskSummary)
	assert.NotEqual(t, artifact.DownloadName, artifact.StoredName, "disk name must be server-generated")

	_, err = store.Resolve(storage.KindReport, artifact.StoredName)
	assert.NoError(t, err)
	require.Len(t, artifacts.rows, 1)
}

func TestSaveSanitizesDownloadName(t *testing.T) {
	svc, _ := newRecommendationFixture(t, nil, &memArtifactStore{})

	artifact, err := svc.Save(context.Background(), SaveRecommendationInput{
		PatientName: `../evil\name`,
		Measurement: risk.Measurement{AxialLength: 23, Refraction: 0, VisualAcuity: 1},
	})
	require.NoError(t, err)
	assert.NotContains(t, artifact.DownloadName, "/")
	assert.NotContains(t, artifact.DownloadName, `\`)
}

func TestSaveCleansArtifactOnMappingFailure(t *testing.T) {
	artifacts := &memArtifactStore{createErr: errors.New("db down")}
	svc, store := newRecommendationFixture(t, nil, artifacts)

	_, err := svc.Save(context.Background(), SaveRecommendationInput{
		PatientName: "Jane",
		Measurement: risk.Measurement{AxialLength: 23, Refraction: 0, VisualAcuity: 1},
	})
	require.Error(t, err)

	entries, readErr := os.ReadDir(store.Dir(storage.KindReport))
	require.NoError(t, readErr)
	assert.Empty(t, entries, "orphaned report must be removed when the mapping insert fails")
}

func TestOpenUnknownReport(t *testing.T) {
	svc, _ := newRecommendationFixture(t, nil, &memArtifactStore{})

	_, _, err := svc.Open("missing.pdf")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestOpenRoundTrip(t *testing.T) {
	svc, _ := newRecommendationFixture(t, nil, &memArtifactStore{})

	saved, err := svc.Save(context.Background(), SaveRecommendationInput{
		PatientName: "Eve",
		Measurement: risk.Measurement{AxialLength: 23, Refraction: 0, VisualAcuity: 1},
	})
	require.NoError(t, err)

	path, artifact, err := svc.Open(saved.StoredName)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, saved.DownloadName, artifact.DownloadName)
}
