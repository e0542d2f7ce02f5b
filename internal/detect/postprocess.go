package detect

import "sort"

// Box is a pixel rectangle in source-image coordinates.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

func (b Box) area() float32 {
	w := b.X1 - b.X0
	h := b.Y1 - b.Y0
	if w <= 0 || h <= 0 {
		return 0
	}
	return float32(w) * float32(h)
}

// postprocess turns raw model output rows [cx, cy, w, h, obj, cls...]
// into thresholded, NMS-filtered detections in source coordinates. The
// exported model already applies sigmoid and grid decoding, so scores
// are probabilities and coordinates are input-space pixels.
func postprocess(out []float32, rowSize int, labels []string, confTh, iouTh float32, lb letterbox) []Detection {
	var detections []Detection
	for off := 0; off+rowSize <= len(out); off += rowSize {
		row := out[off : off+rowSize]
		obj := row[4]
		if obj < confTh {
			continue
		}

		bestIdx := 0
		bestCls := row[5]
		for i := 6; i < rowSize; i++ {
			if row[i] > bestCls {
				bestCls = row[i]
				bestIdx = i - 5
			}
		}

		score := obj * bestCls
		if score < confTh {
			continue
		}

		cx, cy := float64(row[0]), float64(row[1])
		w, h := float64(row[2]), float64(row[3])
		x0, y0 := lb.toSource(cx-w/2, cy-h/2)
		x1, y1 := lb.toSource(cx+w/2, cy+h/2)
		if x1 <= x0 || y1 <= y0 {
			continue
		}

		label := ""
		if bestIdx < len(labels) {
			label = labels[bestIdx]
		}
		detections = append(detections, Detection{
			Label: label,
			Index: bestIdx,
			Score: score,
			Box:   Box{X0: x0, Y0: y0, X1: x1, Y1: y1},
		})
	}

	return nonMaxSuppress(detections, iouTh)
}

// nonMaxSuppress keeps the highest-scoring box of each overlapping
// same-class cluster. Greedy over score order.
func nonMaxSuppress(detections []Detection, iouTh float32) []Detection {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Score > detections[j].Score
	})

	var kept []Detection
	for _, cand := range detections {
		suppressed := false
		for _, k := range kept {
			if k.Index == cand.Index && iou(k.Box, cand.Box) > iouTh {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, cand)
		}
	}
	return kept
}

func iou(a, b Box) float32 {
	ix0 := max(a.X0, b.X0)
	iy0 := max(a.Y0, b.Y0)
	ix1 := min(a.X1, b.X1)
	iy1 := min(a.Y1, b.Y1)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := float32(ix1-ix0) * float32(iy1-iy0)
	union := a.area() + b.area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
