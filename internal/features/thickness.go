package features

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// EstimateThickness measures a wall stroke on the grayscale drawing.
//
// At ThicknessSamples evenly spaced points from A to B inclusive (the
// midpoint when there is only one sample) the intensity profile
// perpendicular to the wall is read out to ThicknessReach pixels on each
// side and binarised at ThicknessLevel. The distance between the
// outermost pair of transitions is the local thickness. Samples without a
// pair of transitions are dropped; with no usable sample the result is
// DefaultThickness. Measured values are never below 1.
func EstimateThickness(g *image.Gray, seg geometry.LineSegment, c Config) float64 {
	length := seg.Length()
	if length == 0 || c.ThicknessSamples < 1 {
		return c.DefaultThickness
	}
	dir := seg.B.Sub(seg.A).Scale(1 / length)
	normal := geometry.Pt(-dir.Y, dir.X)
	b := g.Bounds()

	samples := make([]float64, 0, c.ThicknessSamples)
	for i := 0; i < c.ThicknessSamples; i++ {
		t := 0.5
		if c.ThicknessSamples > 1 {
			t = float64(i) / float64(c.ThicknessSamples-1)
		}
		centre := seg.A.Add(seg.B.Sub(seg.A).Scale(t))

		first, last := math.NaN(), math.NaN()
		prevInk, havePrev := false, false
		for s := -c.ThicknessReach; s <= c.ThicknessReach; s++ {
			p := centre.Add(normal.Scale(float64(s)))
			x, y := int(math.Round(p.X)), int(math.Round(p.Y))
			if !(image.Point{X: x, Y: y}).In(b) {
				havePrev = false
				continue
			}
			ink := g.GrayAt(x, y).Y < c.ThicknessLevel
			if havePrev && ink != prevInk {
				if math.IsNaN(first) {
					first = float64(s)
				}
				last = float64(s)
			}
			prevInk, havePrev = ink, true
		}
		if !math.IsNaN(first) && last > first {
			samples = append(samples, last-first)
		}
	}

	if len(samples) == 0 {
		return c.DefaultThickness
	}
	return math.Max(1, stat.Mean(samples, nil))
}
