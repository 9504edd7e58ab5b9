package detection

import (
	"image"
	"math"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// DetectLines implements Backend with a progressive probabilistic Hough
// transform.
//
// # Algorithm
//
//  1. Edge pixels are visited in raster order, so results are
//     deterministic.
//  2. Each visited pixel votes in a (rho, theta) accumulator with 1 px and
//     1° resolution.
//  3. When the pixel's best bin reaches Threshold, the line through it is
//     walked in both directions, bridging gaps up to MaxGap.
//  4. Pixels on the walked span are removed from further consideration; if
//     the span is at least MinLength long their votes are withdrawn and the
//     segment is emitted, left (then top) endpoint first.
func (*NativeBackend) DetectLines(edges *image.Gray, p LineParams) []geometry.LineSegment {
	width := edges.Bounds().Dx()
	height := edges.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil
	}

	const numAngles = 180
	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosT[theta] = math.Cos(angle)
		sinT[theta] = math.Sin(angle)
	}

	numRho := (width+height)*2 + 1
	offset := (numRho - 1) / 2
	accumulator := make([]int, numRho*numAngles)
	rhoIndex := func(x, y, theta int) int {
		return int(math.Round(float64(x)*cosT[theta]+float64(y)*sinT[theta])) + offset
	}

	mask := make([]bool, width*height)
	voted := make([]bool, width*height)
	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[edges.PixOffset(edges.Bounds().Min.X+x, edges.Bounds().Min.Y+y)] != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	gap := int(math.Round(p.MaxGap))
	lines := make([]geometry.LineSegment, 0)

	for _, pt := range points {
		if !mask[pt.Y*width+pt.X] {
			continue
		}

		voted[pt.Y*width+pt.X] = true
		bestVotes, bestTheta := 0, 0
		for theta := 0; theta < numAngles; theta++ {
			idx := rhoIndex(pt.X, pt.Y, theta)*numAngles + theta
			accumulator[idx]++
			if accumulator[idx] > bestVotes {
				bestVotes = accumulator[idx]
				bestTheta = theta
			}
		}
		if bestVotes < p.Threshold {
			continue
		}

		// direction along the line, perpendicular to the normal angle
		dx, dy := -sinT[bestTheta], cosT[bestTheta]
		var stepX, stepY float64
		if math.Abs(dx) > math.Abs(dy) {
			stepX, stepY = math.Copysign(1, dx), dy/math.Abs(dx)
		} else {
			stepX, stepY = dx/math.Abs(dy), math.Copysign(1, dy)
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			sx, sy := stepX, stepY
			if k == 1 {
				sx, sy = -sx, -sy
			}
			ends[k] = pt
			misses := 0
			for i := 1; ; i++ {
				x := int(math.Round(float64(pt.X) + float64(i)*sx))
				y := int(math.Round(float64(pt.Y) + float64(i)*sy))
				if x < 0 || x >= width || y < 0 || y >= height {
					break
				}
				if mask[y*width+x] {
					misses = 0
					ends[k] = image.Point{X: x, Y: y}
				} else {
					misses++
					if misses > gap {
						break
					}
				}
			}
		}

		length := math.Hypot(float64(ends[1].X-ends[0].X), float64(ends[1].Y-ends[0].Y))
		good := length >= p.MinLength

		// clear the walked span, withdrawing votes when the line is kept
		for k := 0; k < 2; k++ {
			sx, sy := stepX, stepY
			if k == 1 {
				sx, sy = -sx, -sy
			}
			for i := 0; ; i++ {
				x := int(math.Round(float64(pt.X) + float64(i)*sx))
				y := int(math.Round(float64(pt.Y) + float64(i)*sy))
				if x < 0 || x >= width || y < 0 || y >= height {
					break
				}
				if mask[y*width+x] {
					if good && voted[y*width+x] {
						for theta := 0; theta < numAngles; theta++ {
							accumulator[rhoIndex(x, y, theta)*numAngles+theta]--
						}
					}
					mask[y*width+x] = false
				}
				if x == ends[k].X && y == ends[k].Y {
					break
				}
			}
		}

		if good {
			a, b := ends[0], ends[1]
			if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
				a, b = b, a
			}
			lines = append(lines, geometry.Seg(float64(a.X), float64(a.Y), float64(b.X), float64(b.Y)))
		}
	}

	return lines
}
