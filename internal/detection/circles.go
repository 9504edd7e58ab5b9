package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// DetectCircles implements Backend with a gradient Hough circle transform.
//
// # Algorithm
//
//  1. Edge Detection: Canny with (EdgeHigh/2, EdgeHigh) thresholds; votes
//     follow the same smoothed gradients Canny traced
//  2. Centre Voting: every edge pixel votes along its gradient direction,
//     both ways, at each distance in [MinRadius, MaxRadius]
//  3. Peak Detection: centres with at least Threshold votes that are not
//     beaten by any of their 8 neighbours
//  4. Refinement: each centre moves to the vote-weighted mean of its 5x5
//     neighbourhood
//  5. Duplicate Removal: strongest centres first, any centre closer than
//     MinDist to one already accepted is dropped
//  6. Radius Estimation: the mean edge distance around the most common one
//
// Voting along the gradient keeps straight strokes from piling up votes,
// which matters on plans where most ink is walls.
func (*NativeBackend) DetectCircles(img *image.Gray, p CircleParams) []CircleHit {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 || p.MaxRadius < p.MinRadius || p.MinRadius < 1 {
		return nil
	}

	edges, gx, gy := imaging.CannyGradients(img, p.EdgeHigh/2, p.EdgeHigh)

	edgePoints := make([]image.Point, 0)
	accumulator := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[y*edges.Stride+x] == 0 {
				continue
			}
			edgePoints = append(edgePoints, image.Point{X: x, Y: y})

			vx, vy := gx[y*width+x], gy[y*width+x]
			mag := math.Hypot(vx, vy)
			if mag == 0 {
				continue
			}
			ux, uy := vx/mag, vy/mag
			for _, sign := range [2]float64{1, -1} {
				lastX, lastY := -1, -1
				for r := p.MinRadius; r <= p.MaxRadius; r++ {
					cx := int(math.Round(float64(x) + sign*float64(r)*ux))
					cy := int(math.Round(float64(y) + sign*float64(r)*uy))
					if cx < 0 || cx >= width || cy < 0 || cy >= height {
						break
					}
					if cx == lastX && cy == lastY {
						continue
					}
					accumulator[cy*width+cx]++
					lastX, lastY = cx, cy
				}
			}
		}
	}

	type centre struct {
		x, y, votes int
	}
	centres := make([]centre, 0)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			v := accumulator[y*width+x]
			if v < p.Threshold || !isPeak(accumulator, width, x, y) {
				continue
			}
			centres = append(centres, centre{x: x, y: y, votes: v})
		}
	}
	sort.SliceStable(centres, func(i, j int) bool {
		return centres[i].votes > centres[j].votes
	})

	hits := make([]CircleHit, 0)
	for _, c := range centres {
		centroid := voteCentroid(accumulator, width, height, c.x, c.y, 2)
		if tooClose(hits, centroid, p.MinDist) {
			continue
		}
		radius, ok := estimateRadius(edgePoints, centroid, p.MinRadius, p.MaxRadius)
		if !ok {
			continue
		}
		hits = append(hits, CircleHit{Center: centroid, Radius: radius, Votes: c.votes})
	}
	return hits
}

// isPeak reports whether no 8-neighbour of (x, y) has more votes.
func isPeak(acc []int, width, x, y int) bool {
	v := acc[y*width+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if acc[(y+dy)*width+x+dx] > v {
				return false
			}
		}
	}
	return true
}

// voteCentroid returns the vote-weighted mean position of the window of the
// given half-size around (x, y).
func voteCentroid(acc []int, width, height, x, y, half int) geometry.Point2D {
	var sx, sy, total float64
	for j := y - half; j <= y+half; j++ {
		for i := x - half; i <= x+half; i++ {
			if i < 0 || j < 0 || i >= width || j >= height {
				continue
			}
			w := float64(acc[j*width+i])
			sx += w * float64(i)
			sy += w * float64(j)
			total += w
		}
	}
	if total == 0 {
		return geometry.Pt(float64(x), float64(y))
	}
	return geometry.Pt(sx/total, sy/total)
}

// estimateRadius finds the most common whole-pixel edge distance from c
// within [minR, maxR] and averages the distances within radiusBand of it.
// A stroke's inner and outer edges both fall in the band.
func estimateRadius(points []image.Point, c geometry.Point2D, minR, maxR int) (float64, bool) {
	const radiusBand = 3

	histogram := make([]int, maxR+1)
	for _, e := range points {
		d := int(math.Round(math.Hypot(float64(e.X)-c.X, float64(e.Y)-c.Y)))
		if d >= minR && d <= maxR {
			histogram[d]++
		}
	}
	best := -1
	for r := minR; r <= maxR; r++ {
		if histogram[r] > 0 && (best < 0 || histogram[r] > histogram[best]) {
			best = r
		}
	}
	if best < 0 {
		return 0, false
	}

	var sum float64
	n := 0
	for _, e := range points {
		d := math.Hypot(float64(e.X)-c.X, float64(e.Y)-c.Y)
		if math.Abs(d-float64(best)) <= radiusBand {
			sum += d
			n++
		}
	}
	return sum / float64(n), true
}

// tooClose reports whether p lies within minDist of an accepted centre.
func tooClose(accepted []CircleHit, p geometry.Point2D, minDist float64) bool {
	for _, f := range accepted {
		if p.Dist(f.Center) < minDist {
			return true
		}
	}
	return false
}
