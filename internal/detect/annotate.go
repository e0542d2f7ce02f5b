package detect

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// AnnotatedImage is the source image with detection boxes burned in.
type AnnotatedImage = *image.RGBA

const (
	strokeWidth      = 3
	labelStripHeight = 16
)

var classColors = []color.RGBA{
	{R: 46, G: 204, B: 113, A: 255},
	{R: 231, G: 76, B: 60, A: 255},
	{R: 241, G: 196, B: 15, A: 255},
	{R: 52, G: 152, B: 219, A: 255},
}

// annotate copies the source image, strokes each detection box in its
// class color and draws a label strip with the class name and
// confidence above the box.
func annotate(src image.Image, detections []Detection) AnnotatedImage {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	for _, det := range detections {
		c := classColors[det.Index%len(classColors)]
		strokeRect(out, det.Box, c)
		labelStrip(out, det, c)
	}
	return out
}

func strokeRect(img *image.RGBA, b Box, c color.RGBA) {
	bounds := img.Bounds()
	for s := 0; s < strokeWidth; s++ {
		x0 := clamp(b.X0+s, bounds.Min.X, bounds.Max.X-1)
		y0 := clamp(b.Y0+s, bounds.Min.Y, bounds.Max.Y-1)
		x1 := clamp(b.X1-s, bounds.Min.X, bounds.Max.X-1)
		y1 := clamp(b.Y1-s, bounds.Min.Y, bounds.Max.Y-1)

		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y0, c)
			img.SetRGBA(x, y1, c)
		}
		for y := y0; y <= y1; y++ {
			img.SetRGBA(x0, y, c)
			img.SetRGBA(x1, y, c)
		}
	}
}

// labelStrip fills a class-colored band sized to the text above the
// box, inside it when the box touches the top edge.
func labelStrip(img *image.RGBA, det Detection, c color.RGBA) {
	bounds := img.Bounds()
	text := fmt.Sprintf("%s %.0f%%", det.Label, det.Score*100)
	textW := font.MeasureString(basicfont.Face7x13, text).Ceil() + 8

	y0 := det.Box.Y0 - labelStripHeight
	if y0 < bounds.Min.Y {
		y0 = det.Box.Y0
	}
	y1 := clamp(y0+labelStripHeight, bounds.Min.Y, bounds.Max.Y)
	x0 := clamp(det.Box.X0, bounds.Min.X, bounds.Max.X)
	x1 := clamp(det.Box.X0+textW, bounds.Min.X, bounds.Max.X)

	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x0+4, y0+12),
	}
	d.DrawString(text)
}
