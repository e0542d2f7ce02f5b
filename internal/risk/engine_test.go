package risk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessAllLowFactors(t *testing.T) {
	cases := []Measurement{
		{AxialLength: 23.0, Refraction: -1.5, VisualAcuity: 1.0},
		{AxialLength: 24.5, Refraction: 3.0, VisualAcuity: 0.8},
		{AxialLength: 22.1, Refraction: 0, VisualAcuity: 2.0},
	}
	for _, m := range cases {
		v, err := Assess(m)
		require.NoError(t, err)
		assert.Equal(t, TierLow, v.Summary)
		assert.Equal(t, CategoryLow, v.Parameters.AxialLength.Category)
		assert.Equal(t, CategoryLow, v.Parameters.Refraction.Category)
		assert.Equal(t, CategoryLow, v.Parameters.VisualAcuity.Category)
	}
}

func TestAssessAllHighFactors(t *testing.T) {
	cases := []Measurement{
		{AxialLength: 26.1, Refraction: -6.5, VisualAcuity: 0.49},
		{AxialLength: 29.0, Refraction: 10.0, VisualAcuity: 0.1},
	}
	for _, m := range cases {
		v, err := Assess(m)
		require.NoError(t, err)
		assert.Equal(t, TierHigh, v.Summary)
	}
}

func TestAxialLengthBoundary(t *testing.T) {
	v, err := Assess(Measurement{AxialLength: 24.5, Refraction: 0, VisualAcuity: 1.0})
	require.NoError(t, err)
	assert.Equal(t, CategoryLow, v.Parameters.AxialLength.Category, "24.5 exactly is Low, threshold is strict >")

	v, err = Assess(Measurement{AxialLength: 24.50001, Refraction: 0, VisualAcuity: 1.0})
	require.NoError(t, err)
	assert.Equal(t, CategoryModerate, v.Parameters.AxialLength.Category)
}

func TestRefractionSignIgnored(t *testing.T) {
	neg, err := Assess(Measurement{AxialLength: 23, Refraction: -7, VisualAcuity: 1.0})
	require.NoError(t, err)
	pos, err := Assess(Measurement{AxialLength: 23, Refraction: 7, VisualAcuity: 1.0})
	require.NoError(t, err)
	assert.Equal(t, CategoryHigh, neg.Parameters.Refraction.Category)
	assert.Equal(t, neg.Parameters.Refraction.Category, pos.Parameters.Refraction.Category)
}

func TestAssessIdempotent(t *testing.T) {
	m := Measurement{AxialLength: 27, Refraction: 7, VisualAcuity: 0.3}
	first, err := Assess(m)
	require.NoError(t, err)
	second, err := Assess(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, TierHigh, first.Summary)
}

func TestAssessAllModerateAveragesToModerate(t *testing.T) {
	v, err := Assess(Measurement{AxialLength: 25, Refraction: 4, VisualAcuity: 0.6})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Parameters.AxialLength.Score)
	assert.Equal(t, 2, v.Parameters.Refraction.Score)
	assert.Equal(t, 2, v.Parameters.VisualAcuity.Score)
	assert.Equal(t, TierModerate, v.Summary)
}

func TestAssessMixedTieAveragesToLow(t *testing.T) {
	// One High among two Lows: (3+1+1)/3 = 1.667 <= 1.7, so averaging
	// (not worst-of-three) keeps the overall tier Low.
	v, err := Assess(Measurement{AxialLength: 27, Refraction: 2, VisualAcuity: 0.9})
	require.NoError(t, err)
	assert.Equal(t, CategoryHigh, v.Parameters.AxialLength.Category)
	assert.Equal(t, CategoryLow, v.Parameters.Refraction.Category)
	assert.Equal(t, CategoryLow, v.Parameters.VisualAcuity.Category)
	assert.Equal(t, TierLow, v.Summary)
}

func TestAssessRejectsOutOfRangeInput(t *testing.T) {
	bad := []Measurement{
		{AxialLength: -24, Refraction: 0, VisualAcuity: 1.0},
		{AxialLength: 0, Refraction: 0, VisualAcuity: 1.0},
		{AxialLength: 55, Refraction: 0, VisualAcuity: 1.0},
		{AxialLength: 24, Refraction: 40, VisualAcuity: 1.0},
		{AxialLength: 24, Refraction: 0, VisualAcuity: 0},
		{AxialLength: 24, Refraction: 0, VisualAcuity: -0.5},
		{AxialLength: 24, Refraction: 0, VisualAcuity: 3.2},
	}
	for _, m := range bad {
		_, err := Assess(m)
		assert.ErrorIs(t, err, ErrInvalidMeasurement, "measurement %+v", m)
	}
}

func TestRecommendationsPerTier(t *testing.T) {
	high, err := Assess(Measurement{AxialLength: 27, Refraction: 8, VisualAcuity: 0.2})
	require.NoError(t, err)
	require.Len(t, high.Primary, 3)
	require.Len(t, high.Secondary, 3)
	assert.Equal(t, "Immediate Orthokeratology (Ortho-K) Lens Treatment", high.Primary[0])

	low, err := Assess(Measurement{AxialLength: 23, Refraction: -1, VisualAcuity: 1.0})
	require.NoError(t, err)
	require.Len(t, low.Primary, 3)
	assert.NotEqual(t, high.Primary, low.Primary)
}

func TestRecommendationListsAreCopies(t *testing.T) {
	m := Measurement{AxialLength: 27, Refraction: 8, VisualAcuity: 0.2}
	v, err := Assess(m)
	require.NoError(t, err)
	v.Primary[0] = "mutated"

	again, err := Assess(m)
	require.NoError(t, err)
	assert.Equal(t, "Immediate Orthokeratology (Ortho-K) Lens Treatment", again.Primary[0])
}

func TestRenderChartProducesPNG(t *testing.T) {
	v, err := Assess(Measurement{AxialLength: 25, Refraction: 4, VisualAcuity: 0.6})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderChart(v, &buf))
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, buf.Bytes()[:4])
}
