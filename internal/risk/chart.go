package risk

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var categoryColor = map[Category]drawing.Color{
	CategoryLow:      drawing.ColorFromHex("2ecc71"),
	CategoryModerate: drawing.ColorFromHex("f1c40f"),
	CategoryHigh:     drawing.ColorFromHex("e74c3c"),
}

// RenderChart writes the verdict's risk bar chart as PNG: one bar per
// factor, height equal to the 1-3 score, colored by category.
func RenderChart(v Verdict, w io.Writer) error {
	bars := []chart.Value{
		barFor("Axial Length", v.Parameters.AxialLength),
		barFor("Refraction", v.Parameters.Refraction),
		barFor("Visual Acuity", v.Parameters.VisualAcuity),
	}

	graph := chart.BarChart{
		Title:    "Myopia Risk Factors",
		Width:    640,
		Height:   420,
		BarWidth: 110,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 3},
			Ticks: []chart.Tick{
				{Value: 0, Label: ""},
				{Value: 1, Label: "Low"},
				{Value: 2, Label: "Moderate"},
				{Value: 3, Label: "High"},
			},
		},
		Bars: bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render risk chart failed: %w", err)
	}
	return nil
}

func barFor(label string, f Factor) chart.Value {
	color := categoryColor[f.Category]
	return chart.Value{
		Label: label,
		Value: float64(f.Score),
		Style: chart.Style{
			FillColor:   color,
			StrokeColor: color,
		},
	}
}
