package detect

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLabels = []string{"fovea region", "pathological myopia lesion"}

// identity letterbox: 640x640 source into 640x640 input.
func identityLetterbox() letterbox {
	return newLetterbox(640, 640, 640, 640)
}

// row builds one raw output row [cx, cy, w, h, obj, cls0, cls1].
func row(cx, cy, w, h, obj, cls0, cls1 float32) []float32 {
	return []float32{cx, cy, w, h, obj, cls0, cls1}
}

func TestPostprocessThresholdsLowConfidence(t *testing.T) {
	out := append(
		row(100, 100, 40, 40, 0.9, 0.95, 0.01),
		row(300, 300, 40, 40, 0.1, 0.9, 0.01)...,
	)

	dets := postprocess(out, 7, testLabels, 0.35, 0.45, identityLetterbox())
	require.Len(t, dets, 1)
	assert.Equal(t, "fovea region", dets[0].Label)
	assert.InDelta(t, 0.9*0.95, float64(dets[0].Score), 1e-4)
}

func TestPostprocessObjectnessTimesClassScore(t *testing.T) {
	// High objectness but weak best class must still fall under the
	// threshold once multiplied.
	out := row(100, 100, 40, 40, 0.6, 0.4, 0.3)
	dets := postprocess(out, 7, testLabels, 0.35, 0.45, identityLetterbox())
	assert.Empty(t, dets)
}

func TestPostprocessPicksBestClass(t *testing.T) {
	out := row(200, 200, 60, 60, 0.9, 0.2, 0.85)
	dets := postprocess(out, 7, testLabels, 0.35, 0.45, identityLetterbox())
	require.Len(t, dets, 1)
	assert.Equal(t, 1, dets[0].Index)
	assert.Equal(t, "pathological myopia lesion", dets[0].Label)
}

func TestPostprocessBoxCorners(t *testing.T) {
	out := row(100, 120, 40, 60, 0.95, 0.9, 0.01)
	dets := postprocess(out, 7, testLabels, 0.35, 0.45, identityLetterbox())
	require.Len(t, dets, 1)
	assert.Equal(t, Box{X0: 80, Y0: 90, X1: 120, Y1: 150}, dets[0].Box)
}

func TestNonMaxSuppressKeepsBestOfCluster(t *testing.T) {
	overlapping := []Detection{
		{Index: 0, Score: 0.7, Box: Box{X0: 100, Y0: 100, X1: 200, Y1: 200}},
		{Index: 0, Score: 0.9, Box: Box{X0: 105, Y0: 105, X1: 205, Y1: 205}},
		{Index: 0, Score: 0.5, Box: Box{X0: 400, Y0: 400, X1: 450, Y1: 450}},
	}

	kept := nonMaxSuppress(overlapping, 0.45)
	require.Len(t, kept, 2)
	assert.InDelta(t, 0.9, float64(kept[0].Score), 1e-6)
	assert.InDelta(t, 0.5, float64(kept[1].Score), 1e-6)
}

func TestNonMaxSuppressKeepsDifferentClasses(t *testing.T) {
	sameSpot := []Detection{
		{Index: 0, Score: 0.9, Box: Box{X0: 100, Y0: 100, X1: 200, Y1: 200}},
		{Index: 1, Score: 0.8, Box: Box{X0: 100, Y0: 100, X1: 200, Y1: 200}},
	}
	kept := nonMaxSuppress(sameSpot, 0.45)
	assert.Len(t, kept, 2)
}

func TestIOU(t *testing.T) {
	a := Box{X0: 0, Y0: 0, X1: 100, Y1: 100}
	assert.InDelta(t, 1.0, float64(iou(a, a)), 1e-6)

	b := Box{X0: 200, Y0: 200, X1: 300, Y1: 300}
	assert.Zero(t, iou(a, b))

	c := Box{X0: 50, Y0: 0, X1: 150, Y1: 100}
	assert.InDelta(t, 5000.0/15000.0, float64(iou(a, c)), 1e-6)
}

func TestLetterboxMapsBackToSource(t *testing.T) {
	// 1280x960 source into 640x640: scale 0.5, vertical padding 80.
	lb := newLetterbox(1280, 960, 640, 640)
	assert.InDelta(t, 0.5, lb.scale, 1e-9)
	assert.Equal(t, 0, lb.padX)
	assert.Equal(t, 80, lb.padY)

	x, y := lb.toSource(320, 320)
	assert.Equal(t, 640, x)
	assert.Equal(t, 480, y)

	// Coordinates inside the padding clamp to the image edge.
	x, y = lb.toSource(10, 10)
	assert.Equal(t, 20, x)
	assert.Equal(t, 0, y)
}

func TestPreprocessShapeAndPadding(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	lb := newLetterbox(100, 50, 64, 64)

	data := preprocess(src, lb)
	require.Len(t, data, 3*64*64)

	// Top-left corner sits in the gray padding band: 114/255 per channel.
	assert.InDelta(t, 114.0/255.0, float64(data[0]), 1e-6)
}

func TestAnnotateStrokesBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	det := Detection{Index: 1, Score: 0.9, Box: Box{X0: 10, Y0: 30, X1: 90, Y1: 90}}

	out := annotate(src, []Detection{det})
	require.NotNil(t, out)

	edge := out.RGBAAt(50, 30)
	assert.NotEqual(t, color.RGBA{}, edge, "top edge pixel should be stroked")
	center := out.RGBAAt(50, 60)
	assert.Equal(t, color.RGBA{}, center, "interior should be untouched")
}

func TestAnnotateDrawsLabelStrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	det := Detection{Label: "fovea region", Index: 1, Score: 0.9, Box: Box{X0: 10, Y0: 30, X1: 90, Y1: 90}}

	out := annotate(src, []Detection{det})

	// Strip band sits directly above the box in the class color.
	strip := out.RGBAAt(12, 30-labelStripHeight/2)
	assert.Equal(t, classColors[1], strip, "strip background should use the class color")

	// A box flush with the top edge keeps the strip inside the image.
	topDet := Detection{Label: "fovea region", Index: 1, Score: 0.9, Box: Box{X0: 10, Y0: 0, X1: 90, Y1: 50}}
	out = annotate(src, []Detection{topDet})
	inside := out.RGBAAt(12, labelStripHeight/2)
	assert.Equal(t, classColors[1], inside, "strip should fall back inside the box")
}

func TestDecodeImageRegisteredFormats(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	img, err := decodeImage(pngBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, src, nil))
	img, err = decodeImage(jpegBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := decodeImage([]byte("not an image"))
	assert.Error(t, err)
}
