package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry reports zero-length, zero-area or collinear input.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Point2D is a point in pixel or real-world units.
type Point2D struct {
	X float64
	Y float64
}

// Pt is shorthand for Point2D{X: x, Y: y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale multiplies both coordinates by f.
func (p Point2D) Scale(f float64) Point2D {
	return Point2D{X: p.X * f, Y: p.Y * f}
}

// Dist returns the Euclidean distance between p and q.
func (p Point2D) Dist(q Point2D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// MarshalJSON encodes the point as [x, y].
func (p Point2D) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON accepts either [x, y] or {"x": .., "y": ..}.
func (p *Point2D) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 2 {
			return fmt.Errorf("point must have 2 coordinates, got %d", len(arr))
		}
		p.X, p.Y = arr[0], arr[1]
		return nil
	}
	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid point %s: %w", string(data), err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// LineSegment is a straight segment between two points.
type LineSegment struct {
	A Point2D `json:"a"`
	B Point2D `json:"b"`
}

// Seg builds a segment from raw coordinates.
func Seg(x1, y1, x2, y2 float64) LineSegment {
	return LineSegment{A: Pt(x1, y1), B: Pt(x2, y2)}
}

// Length returns the Euclidean length of the segment.
func (s LineSegment) Length() float64 {
	return s.A.Dist(s.B)
}

// Angle returns the segment orientation in degrees within [0, 180).
// Reversing the endpoints does not change the result.
func (s LineSegment) Angle() float64 {
	a := math.Atan2(s.B.Y-s.A.Y, s.B.X-s.A.X) * 180 / math.Pi
	a = math.Mod(a, 180)
	if a < 0 {
		a += 180
	}
	if a >= 180 {
		a = 0
	}
	return a
}

// Heading returns the signed direction from A to B in degrees, in
// (-180, 180].
func (s LineSegment) Heading() float64 {
	return math.Atan2(s.B.Y-s.A.Y, s.B.X-s.A.X) * 180 / math.Pi
}

// Midpoint returns the point halfway along the segment.
func (s LineSegment) Midpoint() Point2D {
	return Point2D{X: (s.A.X + s.B.X) / 2, Y: (s.A.Y + s.B.Y) / 2}
}

// Points returns the endpoints as a two-element polyline.
func (s LineSegment) Points() []Point2D {
	return []Point2D{s.A, s.B}
}

// DistanceToPoint returns the shortest distance from p to the segment.
func (s LineSegment) DistanceToPoint(p Point2D) float64 {
	dx := s.B.X - s.A.X
	dy := s.B.Y - s.A.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return s.A.Dist(p)
	}
	t := ((p.X-s.A.X)*dx + (p.Y-s.A.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point2D{X: s.A.X + t*dx, Y: s.A.Y + t*dy})
}

// Intersects reports whether two segments share at least one point.
func (s LineSegment) Intersects(o LineSegment) bool {
	d1 := cross(o.A, o.B, s.A)
	d2 := cross(o.A, o.B, s.B)
	d3 := cross(s.A, s.B, o.A)
	d4 := cross(s.A, s.B, o.B)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(o.A, o.B, s.A):
		return true
	case d2 == 0 && onSegment(o.A, o.B, s.B):
		return true
	case d3 == 0 && onSegment(s.A, s.B, o.A):
		return true
	case d4 == 0 && onSegment(s.A, s.B, o.B):
		return true
	}
	return false
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point2D) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// PolylineLength sums the segment lengths of an open polyline.
func PolylineLength(points []Point2D) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].Dist(points[i])
	}
	return total
}
