package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// DefaultCylinderSides is the facet count used for swing-door cylinders.
const DefaultCylinderSides = 16

// miters sharper than this cosine between joint normal and segment normal
// would spike far past the wall end
const minMiterCos = 0.1

const epsilon = 1e-9

// Box returns the axis-aligned box spanning lo to hi.
func Box(lo, hi r3.Vec) (*Mesh, error) {
	if hi.X-lo.X <= 0 || hi.Y-lo.Y <= 0 || hi.Z-lo.Z <= 0 {
		return nil, fmt.Errorf("%w: box %v to %v", geometry.ErrDegenerateGeometry, lo, hi)
	}
	ring := []geometry.Point2D{
		geometry.Pt(lo.X, lo.Y), geometry.Pt(hi.X, lo.Y),
		geometry.Pt(hi.X, hi.Y), geometry.Pt(lo.X, hi.Y),
	}
	return prism(ring, fan(len(ring)), lo.Z, hi.Z), nil
}

// OrientedBox returns a box whose centre line runs from a to b, thickness
// wide, rising from base by height.
func OrientedBox(a, b geometry.Point2D, thickness, base, height float64) (*Mesh, error) {
	d := b.Sub(a)
	l := math.Hypot(d.X, d.Y)
	if l < epsilon || thickness <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: box from %v to %v", geometry.ErrDegenerateGeometry, a, b)
	}
	n := leftNormal(d).Scale(thickness / 2)
	ring := []geometry.Point2D{a.Sub(n), b.Sub(n), b.Add(n), a.Add(n)}
	return prism(ring, fan(len(ring)), base, base+height), nil
}

// Cylinder returns an upright prism with the given number of sides
// approximating a cylinder around center.
func Cylinder(center geometry.Point2D, radius, base, height float64, sides int) (*Mesh, error) {
	if radius <= 0 || height <= 0 || sides < 3 {
		return nil, fmt.Errorf("%w: cylinder r=%g h=%g sides=%d", geometry.ErrDegenerateGeometry, radius, height, sides)
	}
	ring := make([]geometry.Point2D, sides)
	for i := range ring {
		t := 2 * math.Pi * float64(i) / float64(sides)
		ring[i] = geometry.Pt(center.X+radius*math.Cos(t), center.Y+radius*math.Sin(t))
	}
	return prism(ring, fan(sides), base, base+height), nil
}

// ExtrudePolygon returns a slab over the simple polygon ring, from base up
// by height. A repeated closing point is ignored.
func ExtrudePolygon(ring []geometry.Point2D, base, height float64) (*Mesh, error) {
	if height <= 0 {
		return nil, fmt.Errorf("%w: slab height %g", geometry.ErrDegenerateGeometry, height)
	}
	pts := openRing(ring)
	if signedArea(pts) < 0 {
		pts = reversed(pts)
	}
	tris, err := Triangulate(pts)
	if err != nil {
		return nil, err
	}
	return prism(pts, tris, base, base+height), nil
}

// ExtrudePath sweeps a wall of the given thickness along path, from base up
// by height. Interior joints are mitred. A path whose last point repeats
// the first is treated as a closed loop with no end caps.
//
// Paths with zero-length segments, self-intersections or joints that fold
// back on themselves report ErrDegenerateGeometry.
func ExtrudePath(path []geometry.Point2D, thickness, base, height float64) (*Mesh, error) {
	if len(path) < 2 || thickness <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: path of %d points", geometry.ErrDegenerateGeometry, len(path))
	}
	pts := path
	closed := len(path) >= 4 && path[0].Dist(path[len(path)-1]) < epsilon
	if closed {
		pts = path[:len(path)-1]
	}
	n := len(pts)

	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		if pts[i].Dist(pts[(i+1)%n]) < epsilon {
			return nil, fmt.Errorf("%w: zero-length segment %d", geometry.ErrDegenerateGeometry, i)
		}
	}
	if selfIntersects(pts, closed) {
		return nil, fmt.Errorf("%w: self-intersecting path", geometry.ErrDegenerateGeometry)
	}

	half := thickness / 2
	top := base + height
	vertices := make([]r3.Vec, 0, 4*n)
	for i := 0; i < n; i++ {
		offset, err := joint(pts, i, closed, half)
		if err != nil {
			return nil, err
		}
		l, r := pts[i].Add(offset), pts[i].Sub(offset)
		vertices = append(vertices,
			r3.Vec{X: l.X, Y: l.Y, Z: base},
			r3.Vec{X: r.X, Y: r.Y, Z: base},
			r3.Vec{X: l.X, Y: l.Y, Z: top},
			r3.Vec{X: r.X, Y: r.Y, Z: top},
		)
	}

	faces := make([]Triangle, 0, 8*segs+4)
	for i := 0; i < segs; i++ {
		a, b := 4*i, 4*((i+1)%n)
		faces = append(faces,
			// left
			Triangle{a, a + 2, b + 2}, Triangle{a, b + 2, b},
			// right
			Triangle{a + 1, b + 1, b + 3}, Triangle{a + 1, b + 3, a + 3},
			// top
			Triangle{a + 2, a + 3, b + 3}, Triangle{a + 2, b + 3, b + 2},
			// bottom
			Triangle{a, b, b + 1}, Triangle{a, b + 1, a + 1},
		)
	}
	if !closed {
		e := 4 * (n - 1)
		faces = append(faces,
			Triangle{0, 1, 3}, Triangle{0, 3, 2},
			Triangle{e, e + 2, e + 3}, Triangle{e, e + 3, e + 1},
		)
	}
	return &Mesh{vertices: vertices, faces: faces}, nil
}

// joint returns the offset from path point i to the left face of the wall.
func joint(pts []geometry.Point2D, i int, closed bool, half float64) (geometry.Point2D, error) {
	n := len(pts)
	var in, out geometry.Point2D
	hasIn, hasOut := i > 0 || closed, i < n-1 || closed
	if hasIn {
		in = unit(pts[i].Sub(pts[(i-1+n)%n]))
	}
	if hasOut {
		out = unit(pts[(i+1)%n].Sub(pts[i]))
	}
	switch {
	case !hasIn:
		return leftNormal(out).Scale(half), nil
	case !hasOut:
		return leftNormal(in).Scale(half), nil
	}

	n1, n2 := leftNormal(in), leftNormal(out)
	sum := n1.Add(n2)
	l := math.Hypot(sum.X, sum.Y)
	if l < epsilon {
		return geometry.Point2D{}, fmt.Errorf("%w: path folds back at point %d", geometry.ErrDegenerateGeometry, i)
	}
	m := sum.Scale(1 / l)
	cos := m.X*n1.X + m.Y*n1.Y
	if cos < minMiterCos {
		return geometry.Point2D{}, fmt.Errorf("%w: joint %d too sharp to mitre", geometry.ErrDegenerateGeometry, i)
	}
	return m.Scale(half / cos), nil
}

func selfIntersects(pts []geometry.Point2D, closed bool) bool {
	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	seg := func(i int) geometry.LineSegment {
		return geometry.LineSegment{A: pts[i], B: pts[(i+1)%n]}
	}
	for i := 0; i < segs; i++ {
		for j := i + 2; j < segs; j++ {
			if closed && i == 0 && j == segs-1 {
				continue
			}
			if seg(i).Intersects(seg(j)) {
				return true
			}
		}
	}
	return false
}

// prism extrudes a counter-clockwise ring between z0 and z1, capping it
// with tris (indices into ring).
func prism(ring []geometry.Point2D, tris [][3]int, z0, z1 float64) *Mesh {
	n := len(ring)
	vertices := make([]r3.Vec, 0, 2*n)
	for _, p := range ring {
		vertices = append(vertices, r3.Vec{X: p.X, Y: p.Y, Z: z0})
	}
	for _, p := range ring {
		vertices = append(vertices, r3.Vec{X: p.X, Y: p.Y, Z: z1})
	}

	faces := make([]Triangle, 0, 2*len(tris)+2*n)
	for _, t := range tris {
		faces = append(faces,
			Triangle{t[0], t[2], t[1]},
			Triangle{n + t[0], n + t[1], n + t[2]},
		)
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, Triangle{i, j, n + j}, Triangle{i, n + j, n + i})
	}
	return &Mesh{vertices: vertices, faces: faces}
}

// fan triangulates a convex ring.
func fan(n int) [][3]int {
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris
}

func leftNormal(d geometry.Point2D) geometry.Point2D {
	u := unit(d)
	return geometry.Pt(-u.Y, u.X)
}

func unit(d geometry.Point2D) geometry.Point2D {
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return geometry.Point2D{}
	}
	return d.Scale(1 / l)
}
