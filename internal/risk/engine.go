package risk

import (
	"errors"
	"math"
)

var ErrInvalidMeasurement = errors.New("invalid clinical measurement")

// Category is the per-factor risk classification.
type Category string

const (
	CategoryLow      Category = "Low"
	CategoryModerate Category = "Moderate"
	CategoryHigh     Category = "High"
)

// Tier is the aggregated verdict over all three factors.
type Tier string

const (
	TierLow      Tier = "Low Myopia Risk"
	TierModerate Tier = "Moderate Myopia Risk"
	TierHigh     Tier = "High Risk Myopia Progression"
)

// Measurement holds the three clinical inputs of a single assessment.
type Measurement struct {
	AxialLength  float64 `json:"axial_length"`
	Refraction   float64 `json:"refraction"`
	VisualAcuity float64 `json:"visual_acuity"`
}

// Factor is one classified measurement.
type Factor struct {
	Value    float64  `json:"value"`
	Category Category `json:"risk_category"`
	Score    int      `json:"score"`
}

// Parameters groups the three classified factors in the response shape
// the frontend consumes.
type Parameters struct {
	AxialLength  Factor `json:"axial_length"`
	Refraction   Factor `json:"refraction"`
	VisualAcuity Factor `json:"visual_acuity"`
}

// Verdict is the full assessment result. Fully determined by the input
// triple; the chart path is attached by the service layer, not here.
type Verdict struct {
	Summary    Tier       `json:"overall_risk_summary"`
	Parameters Parameters `json:"risk_parameters"`
	Primary    []string   `json:"primary_recommendations"`
	Secondary  []string   `json:"secondary_recommendations"`
}

// Physical sanity bounds. The classification thresholds sit well inside
// these; anything outside is instrument or transcription error.
const (
	minAxialLength  = 14.0
	maxAxialLength  = 40.0
	maxRefraction   = 30.0
	maxVisualAcuity = 2.0
)

// Assess classifies each measurement, averages the category scores and
// selects the recommendation tier. Same input always yields the same verdict.
func Assess(m Measurement) (Verdict, error) {
	if err := m.validate(); err != nil {
		return Verdict{}, err
	}

	axial := Factor{Value: m.AxialLength, Category: classifyAxialLength(m.AxialLength)}
	refraction := Factor{Value: m.Refraction, Category: classifyRefraction(m.Refraction)}
	acuity := Factor{Value: m.VisualAcuity, Category: classifyVisualAcuity(m.VisualAcuity)}

	axial.Score = axial.Category.score()
	refraction.Score = refraction.Category.score()
	acuity.Score = acuity.Category.score()

	avg := float64(axial.Score+refraction.Score+acuity.Score) / 3.0
	tier := tierForAverage(avg)

	return Verdict{
		Summary: tier,
		Parameters: Parameters{
			AxialLength:  axial,
			Refraction:   refraction,
			VisualAcuity: acuity,
		},
		Primary:   primaryRecommendations(tier),
		Secondary: secondaryRecommendations(tier),
	}, nil
}

func (m Measurement) validate() error {
	for _, v := range []float64{m.AxialLength, m.Refraction, m.VisualAcuity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidMeasurement
		}
	}
	if m.AxialLength <= minAxialLength || m.AxialLength >= maxAxialLength {
		return ErrInvalidMeasurement
	}
	if math.Abs(m.Refraction) > maxRefraction {
		return ErrInvalidMeasurement
	}
	if m.VisualAcuity <= 0 || m.VisualAcuity > maxVisualAcuity {
		return ErrInvalidMeasurement
	}
	return nil
}

func classifyAxialLength(mm float64) Category {
	switch {
	case mm > 26:
		return CategoryHigh
	case mm > 24.5:
		return CategoryModerate
	default:
		return CategoryLow
	}
}

// Refraction is judged on spherical-equivalent magnitude, so -7 D and
// +7 D classify the same.
func classifyRefraction(diopters float64) Category {
	abs := math.Abs(diopters)
	switch {
	case abs > 6:
		return CategoryHigh
	case abs > 3:
		return CategoryModerate
	default:
		return CategoryLow
	}
}

func classifyVisualAcuity(decimal float64) Category {
	switch {
	case decimal < 0.5:
		return CategoryHigh
	case decimal < 0.8:
		return CategoryModerate
	default:
		return CategoryLow
	}
}

func (c Category) score() int {
	switch c {
	case CategoryHigh:
		return 3
	case CategoryModerate:
		return 2
	default:
		return 1
	}
}

// The mean of the category scores drives the tier, not the worst factor.
// A single High among two Lows still averages out to Low.
func tierForAverage(avg float64) Tier {
	switch {
	case avg > 2.3:
		return TierHigh
	case avg > 1.7:
		return TierModerate
	default:
		return TierLow
	}
}
