package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myopiadx/internal/risk"
)

func TestVerdictKeyDeterministic(t *testing.T) {
	m := risk.Measurement{AxialLength: 27, Refraction: -7, VisualAcuity: 0.3}
	assert.Equal(t, verdictKey(m), verdictKey(m))
	assert.Equal(t, "risk:verdict:27:-7:0.3", verdictKey(m))
}

func TestVerdictKeyDistinguishesNearbyValues(t *testing.T) {
	a := verdictKey(risk.Measurement{AxialLength: 24.5, Refraction: 1, VisualAcuity: 1})
	b := verdictKey(risk.Measurement{AxialLength: 24.50001, Refraction: 1, VisualAcuity: 1})
	assert.NotEqual(t, a, b)
}

func TestVerdictKeySignSensitive(t *testing.T) {
	// Keys mirror the raw input; refraction sign is preserved even
	// though scoring ignores it.
	a := verdictKey(risk.Measurement{AxialLength: 24, Refraction: -3.5, VisualAcuity: 1})
	b := verdictKey(risk.Measurement{AxialLength: 24, Refraction: 3.5, VisualAcuity: 1})
	assert.NotEqual(t, a, b)
}

func TestNewVerdictCacheDefaultsTTL(t *testing.T) {
	c := NewVerdictCache(nil, 0)
	assert.Equal(t, 10*time.Minute, c.ttl)

	c = NewVerdictCache(nil, time.Hour)
	assert.Equal(t, time.Hour, c.ttl)
}
