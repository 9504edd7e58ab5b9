package detection

import (
	"image"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// Clockwise (in image space) neighbour offsets starting at west.
var mooreDirs = [8]image.Point{
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
}

// DetectContours implements Backend. Foreground pixels are grouped into
// 8-connected components and the outer boundary of each component is traced
// with Moore-neighbour tracing. Components nested inside another component's
// hole are reported too. Contours come back in raster order of their first
// pixel.
func (*NativeBackend) DetectContours(binary *image.Gray) [][]geometry.Point2D {
	width := binary.Bounds().Dx()
	height := binary.Bounds().Dy()
	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fg[y*width+x] = binary.Pix[binary.PixOffset(binary.Bounds().Min.X+x, binary.Bounds().Min.Y+y)] != 0
		}
	}

	labels, count := labelComponents(fg, width, height, true)
	seen := make([]bool, count+1)
	contours := make([][]geometry.Point2D, 0, count)
	for i, l := range labels {
		if l == 0 || seen[l] {
			continue
		}
		seen[l] = true
		start := image.Point{X: i % width, Y: i / width}
		contours = append(contours, traceBoundary(labels, width, height, l, start))
	}
	return contours
}

// labelComponents assigns 1-based labels to connected foreground pixels.
// Connectivity is 8 when eight is true, otherwise 4.
func labelComponents(fg []bool, width, height int, eight bool) ([]int32, int) {
	labels := make([]int32, width*height)
	var next int32
	for i, on := range fg {
		if !on || labels[i] != 0 {
			continue
		}
		next++
		floodFill(fg, labels, i%width, i/width, width, height, next, eight)
	}
	return labels, int(next)
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large regions.
func floodFill(fg []bool, labels []int32, startX, startY, width, height int, label int32, eight bool) {
	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if labels[i] != 0 || !fg[i] {
			continue
		}
		labels[i] = label

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if !eight && dx != 0 && dy != 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// traceBoundary walks the outer boundary of the component with the given
// label, starting from its first pixel in raster order. Tracing stops when
// the walk re-enters the start pixel in the same direction it first left.
func traceBoundary(labels []int32, width, height int, label int32, start image.Point) []geometry.Point2D {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && labels[p.Y*width+p.X] == label
	}

	contour := []geometry.Point2D{geometry.Pt(float64(start.X), float64(start.Y))}
	cur := start
	back := 0 // west of the first pixel is outside by construction
	firstDir := -1
	limit := 4*width*height + 8

	for step := 0; step < limit; step++ {
		dir := -1
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if inside(cur.Add(mooreDirs[d])) {
				dir = d
				break
			}
		}
		if dir < 0 {
			return contour // isolated pixel
		}
		if cur == start {
			if dir == firstDir {
				break
			}
			if firstDir < 0 {
				firstDir = dir
			}
		}

		cur = cur.Add(mooreDirs[dir])
		contour = append(contour, geometry.Pt(float64(cur.X), float64(cur.Y)))
		if dir%2 == 0 {
			back = (dir + 6) % 8
		} else {
			back = (dir + 5) % 8
		}
	}

	if n := len(contour); n > 1 && contour[n-1] == contour[0] {
		contour = contour[:n-1]
	}
	return contour
}
