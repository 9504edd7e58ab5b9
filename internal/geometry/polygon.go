package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the middle of the box.
func (b Bounds) Center() Point2D {
	return Point2D{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Corners returns the four corners counter-clockwise from (MinX, MinY).
func (b Bounds) Corners() []Point2D {
	return []Point2D{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
}

// Empty reports whether the box has no extent in either axis.
func (b Bounds) Empty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// BoundsOf returns the bounding box of the given points.
func BoundsOf(points []Point2D) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := orb.MultiPoint(toOrb(points)).Bound()
	return Bounds{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}
}

func toOrb(points []Point2D) []orb.Point {
	out := make([]orb.Point, len(points))
	for i, p := range points {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func fromOrb(points []orb.Point) []Point2D {
	out := make([]Point2D, len(points))
	for i, p := range points {
		out[i] = Point2D{X: p[0], Y: p[1]}
	}
	return out
}

// ring closes the polygon for orb, which expects first == last.
func ring(points []Point2D) orb.Ring {
	r := orb.Ring(toOrb(points))
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}

// PolygonArea returns the unsigned area enclosed by the polygon.
func PolygonArea(points []Point2D) float64 {
	if len(points) < 3 {
		return 0
	}
	return math.Abs(planar.Area(ring(points)))
}

// PolygonCentroid returns the area-weighted centroid of the polygon.
// Polygons with no area report ErrDegenerateGeometry.
func PolygonCentroid(points []Point2D) (Point2D, error) {
	if len(points) < 3 {
		return Point2D{}, ErrDegenerateGeometry
	}
	c, area := planar.CentroidArea(ring(points))
	if area == 0 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		return Point2D{}, ErrDegenerateGeometry
	}
	return Point2D{X: c[0], Y: c[1]}, nil
}

// Perimeter returns the closed-loop length of the polygon.
func Perimeter(points []Point2D) float64 {
	if len(points) < 2 {
		return 0
	}
	return PolylineLength(points) + points[len(points)-1].Dist(points[0])
}

// ConvexHull returns the convex hull of the points, counter-clockwise in a
// Y-up frame, starting from the lowest-X point. Collinear points are dropped.
// Fewer than three distinct hull vertices report ErrDegenerateGeometry.
func ConvexHull(points []Point2D) ([]Point2D, error) {
	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	uniq := pts[:0]
	for i, p := range pts {
		if i > 0 && p == uniq[len(uniq)-1] {
			continue
		}
		uniq = append(uniq, p)
	}
	if len(uniq) < 3 {
		return nil, ErrDegenerateGeometry
	}

	hull := make([]Point2D, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		return nil, ErrDegenerateGeometry
	}
	return hull, nil
}

// ApproxPolygon simplifies a closed contour with Douglas-Peucker at the given
// tolerance. The contour is split at the vertex farthest from its first point
// and each half is simplified on its own, so the result keeps both anchors.
func ApproxPolygon(contour []Point2D, epsilon float64) []Point2D {
	if len(contour) < 3 {
		out := make([]Point2D, len(contour))
		copy(out, contour)
		return out
	}

	far, best := 0, -1.0
	for i, p := range contour {
		if d := contour[0].Dist(p); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return []Point2D{contour[0]}
	}

	first := make(orb.LineString, 0, far+1)
	first = append(first, toOrb(contour[:far+1])...)
	second := make(orb.LineString, 0, len(contour)-far+1)
	second = append(second, toOrb(contour[far:])...)
	second = append(second, first[0])

	s := simplify.DouglasPeucker(epsilon)
	a := s.LineString(first)
	b := s.LineString(second)

	// drop the duplicated split vertex and the closing point
	out := fromOrb(a)
	if len(b) > 2 {
		out = append(out, fromOrb(b[1:len(b)-1])...)
	}
	return out
}
