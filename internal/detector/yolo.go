package detector

import "sort"

type yoloBox struct {
	cx, cy, w, h float64
	score        float64
	class        int
}

// decodeYOLO reads a [4+classes, anchors] row-major output and keeps, per
// anchor, the best class when it scores at least minScore.
func decodeYOLO(output []float32, classes, anchors int, minScore float64) []yoloBox {
	if len(output) < (4+classes)*anchors {
		return nil
	}

	var boxes []yoloBox
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			s := output[(4+c)*anchors+a]
			if best < 0 || s > bestScore {
				best, bestScore = c, s
			}
		}
		if float64(bestScore) < minScore {
			continue
		}
		boxes = append(boxes, yoloBox{
			cx:    float64(output[a]),
			cy:    float64(output[anchors+a]),
			w:     float64(output[2*anchors+a]),
			h:     float64(output[3*anchors+a]),
			score: float64(bestScore),
			class: best,
		})
	}
	return boxes
}

// nonMaxSuppression keeps the highest scoring box among same-class boxes
// overlapping by more than iouThreshold.
func nonMaxSuppression(boxes []yoloBox, iouThreshold float64) []yoloBox {
	sorted := append([]yoloBox(nil), boxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	kept := make([]yoloBox, 0, len(sorted))
	for _, b := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.class == b.class && iou(k, b) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}

func iou(a, b yoloBox) float64 {
	ax1, ay1, ax2, ay2 := a.cx-a.w/2, a.cy-a.h/2, a.cx+a.w/2, a.cy+a.h/2
	bx1, by1, bx2, by2 := b.cx-b.w/2, b.cy-b.h/2, b.cx+b.w/2, b.cy+b.h/2

	iw := min(ax2, bx2) - max(ax1, bx1)
	ih := min(ay2, by2) - max(ay1, by1)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := a.w*a.h + b.w*b.h - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
