package detect

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// letterbox describes how a source image maps into the square model
// input: uniform scale plus symmetric gray padding.
type letterbox struct {
	srcW, srcH int
	dstW, dstH int
	scale      float64
	padX, padY int
}

func newLetterbox(srcW, srcH, dstW, dstH int) letterbox {
	scale := float64(dstW) / float64(srcW)
	if s := float64(dstH) / float64(srcH); s < scale {
		scale = s
	}
	scaledW := int(float64(srcW) * scale)
	scaledH := int(float64(srcH) * scale)
	return letterbox{
		srcW:  srcW,
		srcH:  srcH,
		dstW:  dstW,
		dstH:  dstH,
		scale: scale,
		padX:  (dstW - scaledW) / 2,
		padY:  (dstH - scaledH) / 2,
	}
}

// toSource maps a coordinate in model-input space back onto the source
// image, clamped to its bounds.
func (lb letterbox) toSource(x, y float64) (int, int) {
	sx := (x - float64(lb.padX)) / lb.scale
	sy := (y - float64(lb.padY)) / lb.scale
	return clamp(int(sx), 0, lb.srcW-1), clamp(int(sy), 0, lb.srcH-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// preprocess letterboxes the image into the model input and emits RGB
// NCHW float32 scaled to [0, 1].
func preprocess(img image.Image, lb letterbox) []float32 {
	canvas := image.NewRGBA(image.Rect(0, 0, lb.dstW, lb.dstH))
	gray := color.RGBA{R: 114, G: 114, B: 114, A: 255}
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: gray}, image.Point{}, draw.Src)

	scaledW := int(float64(lb.srcW) * lb.scale)
	scaledH := int(float64(lb.srcH) * lb.scale)
	target := image.Rect(lb.padX, lb.padY, lb.padX+scaledW, lb.padY+scaledH)
	draw.BiLinear.Scale(canvas, target, img, img.Bounds(), draw.Over, nil)

	plane := lb.dstW * lb.dstH
	data := make([]float32, 3*plane)
	for y := 0; y < lb.dstH; y++ {
		for x := 0; x < lb.dstW; x++ {
			i := canvas.PixOffset(x, y)
			idx := y*lb.dstW + x
			data[idx] = float32(canvas.Pix[i]) / 255.0
			data[plane+idx] = float32(canvas.Pix[i+1]) / 255.0
			data[2*plane+idx] = float32(canvas.Pix[i+2]) / 255.0
		}
	}
	return data
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
