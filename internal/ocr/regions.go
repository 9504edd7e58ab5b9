package ocr

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// LabelRegion is a strip of the plan that probably holds printed text.
type LabelRegion struct {
	Bounds     geometry.Bounds `json:"bounds"`
	Confidence float64         `json:"confidence"`
}

// window sizes scanned for text, as width x height in pixels
var labelWindows = []struct{ w, h int }{
	{100, 30},
	{150, 40},
	{200, 50},
	{80, 25},
}

// DetectLabelRegions finds areas likely to contain text. It looks for
// windows with medium edge density whose edges form more horizontal runs
// than vertical ones. Overlapping windows are merged and the result is
// sorted by confidence, highest first.
func DetectLabelRegions(g *image.Gray, minConfidence float64) []LabelRegion {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	edges := imaging.Canny(g, 50, 150)
	on := func(x, y int) bool { return edges.Pix[y*edges.Stride+x] != 0 }

	// summed-area table of edge pixels
	sat := make([]int, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			if on(x, y) {
				row++
			}
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}
	count := func(x, y, ww, hh int) int {
		return sat[(y+hh)*(w+1)+x+ww] - sat[y*(w+1)+x+ww] - sat[(y+hh)*(w+1)+x] + sat[y*(w+1)+x]
	}

	candidates := make([]textBox, 0)
	for _, ws := range labelWindows {
		stepX, stepY := ws.w/2, ws.h/2
		for y := 0; y <= h-ws.h; y += stepY {
			for x := 0; x <= w-ws.w; x += stepX {
				density := float64(count(x, y, ws.w, ws.h)) / float64(ws.w*ws.h)
				// text sits between empty paper and solid fill
				if density < 0.05 || density > 0.4 {
					continue
				}
				score := horizontalScore(on, x, y, ws.w, ws.h)
				confidence := score * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence >= minConfidence {
					candidates = append(candidates, textBox{
						rect:       image.Rect(x, y, x+ws.w, y+ws.h),
						confidence: math.Round(confidence*1000) / 1000,
					})
				}
			}
		}
	}

	merged := mergeOverlapping(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].confidence > merged[j].confidence
	})

	out := make([]LabelRegion, len(merged))
	for i, m := range merged {
		out[i] = LabelRegion{
			Bounds: geometry.Bounds{
				MinX: float64(m.rect.Min.X), MinY: float64(m.rect.Min.Y),
				MaxX: float64(m.rect.Max.X), MaxY: float64(m.rect.Max.Y),
			},
			Confidence: m.confidence,
		}
	}
	return out
}

type textBox struct {
	rect       image.Rectangle
	confidence float64
}

// horizontalScore is the share of horizontal edge runs among all runs in the window.
func horizontalScore(on func(x, y int) bool, x, y, w, h int) float64 {
	horizontal, vertical := 0, 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if on(col, row) {
				if !inRun {
					horizontal++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if on(col, row) {
				if !inRun {
					vertical++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontal+vertical == 0 {
		return 0
	}
	return float64(horizontal) / float64(horizontal+vertical)
}

// mergeOverlapping folds each box into the first kept box it overlaps.
func mergeOverlapping(boxes []textBox) []textBox {
	merged := make([]textBox, 0, len(boxes))
	for _, b := range boxes {
		found := false
		for i := range merged {
			if b.rect.Overlaps(merged[i].rect) {
				merged[i].rect = merged[i].rect.Union(b.rect)
				merged[i].confidence = math.Max(merged[i].confidence, b.confidence)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, b)
		}
	}
	return merged
}
