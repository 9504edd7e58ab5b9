package geometry

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSegmentAngle(t *testing.T) {
	tests := []struct {
		name string
		seg  LineSegment
		want float64
	}{
		{"horizontal", Seg(0, 0, 10, 0), 0},
		{"horizontal reversed", Seg(10, 0, 0, 0), 0},
		{"vertical down", Seg(0, 0, 0, 10), 90},
		{"vertical up", Seg(0, 10, 0, 0), 90},
		{"diagonal", Seg(0, 0, 10, 10), 45},
		{"anti diagonal", Seg(0, 10, 10, 0), 135},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.seg.Angle()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
			if got < 0 || got >= 180 {
				t.Errorf("Angle() = %v outside [0,180)", got)
			}
		})
	}
}

func TestSegmentHeading(t *testing.T) {
	tests := []struct {
		seg  LineSegment
		want float64
	}{
		{Seg(0, 0, 10, 0), 0},
		{Seg(10, 0, 0, 0), 180},
		{Seg(0, 0, 0, 10), 90},
		{Seg(0, 10, 0, 0), -90},
		{Seg(0, 10, 10, 0), -45},
	}
	for _, tt := range tests {
		if got := tt.seg.Heading(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%v.Heading() = %v, want %v", tt.seg, got, tt.want)
		}
	}
}

func TestSegmentLengthAndMidpoint(t *testing.T) {
	s := Seg(0, 0, 3, 4)
	if s.Length() != 5 {
		t.Errorf("Length() = %v, want 5", s.Length())
	}
	if m := s.Midpoint(); m != Pt(1.5, 2) {
		t.Errorf("Midpoint() = %v", m)
	}
	if d := s.DistanceToPoint(Pt(0, 0)); d != 0 {
		t.Errorf("DistanceToPoint(endpoint) = %v", d)
	}
}

func TestSegmentIntersects(t *testing.T) {
	if !Seg(0, 0, 10, 10).Intersects(Seg(0, 10, 10, 0)) {
		t.Error("crossing diagonals should intersect")
	}
	if Seg(0, 0, 10, 0).Intersects(Seg(0, 5, 10, 5)) {
		t.Error("parallel segments should not intersect")
	}
	if !Seg(0, 0, 10, 0).Intersects(Seg(10, 0, 10, 10)) {
		t.Error("segments sharing an endpoint should intersect")
	}
}

func TestPointJSON(t *testing.T) {
	data, err := json.Marshal(Pt(1.5, -2))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.5,-2]" {
		t.Errorf("Marshal = %s", data)
	}

	var p Point2D
	if err := json.Unmarshal([]byte(`[3, 4]`), &p); err != nil {
		t.Fatal(err)
	}
	if p != Pt(3, 4) {
		t.Errorf("Unmarshal array = %v", p)
	}
	if err := json.Unmarshal([]byte(`{"x": 7, "y": 8}`), &p); err != nil {
		t.Fatal(err)
	}
	if p != Pt(7, 8) {
		t.Errorf("Unmarshal object = %v", p)
	}
	if err := json.Unmarshal([]byte(`[1]`), &p); err == nil {
		t.Error("expected error for single coordinate")
	}
}

func TestPolygonAreaAndCentroid(t *testing.T) {
	rect := []Point2D{Pt(0, 0), Pt(10, 0), Pt(10, 8), Pt(0, 8)}

	if a := PolygonArea(rect); math.Abs(a-80) > 1e-9 {
		t.Errorf("PolygonArea = %v, want 80", a)
	}

	// winding must not matter
	rev := []Point2D{Pt(0, 8), Pt(10, 8), Pt(10, 0), Pt(0, 0)}
	if a := PolygonArea(rev); math.Abs(a-80) > 1e-9 {
		t.Errorf("PolygonArea(reversed) = %v, want 80", a)
	}

	c, err := PolygonCentroid(rect)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.X-5) > 1e-9 || math.Abs(c.Y-4) > 1e-9 {
		t.Errorf("PolygonCentroid = %v, want (5,4)", c)
	}

	if _, err := PolygonCentroid([]Point2D{Pt(0, 0), Pt(1, 1), Pt(2, 2)}); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("collinear centroid err = %v", err)
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Point2D{Pt(3, 9), Pt(-1, 2), Pt(5, 4)})
	want := Bounds{MinX: -1, MinY: 2, MaxX: 5, MaxY: 9}
	if diff := cmp.Diff(want, b); diff != "" {
		t.Errorf("BoundsOf mismatch (-want +got):\n%s", diff)
	}
	if b.Width() != 6 || b.Height() != 7 {
		t.Errorf("Width/Height = %v/%v", b.Width(), b.Height())
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Point2D{
		Pt(0, 0), Pt(10, 0),
		Pt(10, 0), Pt(10, 8),
		Pt(10, 8), Pt(0, 8),
		Pt(0, 8), Pt(0, 0),
		Pt(5, 4), Pt(5, 0),
	}
	hull, err := ConvexHull(pts)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point2D{Pt(0, 0), Pt(10, 0), Pt(10, 8), Pt(0, 8)}
	if diff := cmp.Diff(want, hull); diff != "" {
		t.Errorf("ConvexHull mismatch (-want +got):\n%s", diff)
	}

	if _, err := ConvexHull([]Point2D{Pt(0, 0), Pt(1, 0), Pt(2, 0), Pt(3, 0)}); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("collinear hull err = %v", err)
	}
	if _, err := ConvexHull(nil); !errors.Is(err, ErrDegenerateGeometry) {
		t.Errorf("empty hull err = %v", err)
	}
}

func TestApproxPolygonRecoversRectangle(t *testing.T) {
	// dense boundary of a 40x20 rectangle, clockwise in image space
	var contour []Point2D
	for x := 0; x < 40; x++ {
		contour = append(contour, Pt(float64(x), 0))
	}
	for y := 0; y < 20; y++ {
		contour = append(contour, Pt(40, float64(y)))
	}
	for x := 40; x > 0; x-- {
		contour = append(contour, Pt(float64(x), 20))
	}
	for y := 20; y > 0; y-- {
		contour = append(contour, Pt(0, float64(y)))
	}

	eps := 0.02 * Perimeter(contour)
	got := ApproxPolygon(contour, eps)
	if len(got) != 4 {
		t.Fatalf("ApproxPolygon returned %d vertices, want 4: %v", len(got), got)
	}

	want := []Point2D{Pt(0, 0), Pt(40, 0), Pt(40, 20), Pt(0, 20)}
	sortPts := cmpopts.SortSlices(func(a, b Point2D) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	if diff := cmp.Diff(want, got, sortPts); diff != "" {
		t.Errorf("ApproxPolygon corners mismatch (-want +got):\n%s", diff)
	}
}

func TestPerimeter(t *testing.T) {
	rect := []Point2D{Pt(0, 0), Pt(10, 0), Pt(10, 8), Pt(0, 8)}
	if p := Perimeter(rect); p != 36 {
		t.Errorf("Perimeter = %v, want 36", p)
	}
}
