package mesh

import (
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// Triangulate ear-clips a simple counter-clockwise polygon and returns
// triangles as indices into ring. Collinear vertices are skipped without
// emitting a triangle.
func Triangulate(ring []geometry.Point2D) ([][3]int, error) {
	n := len(ring)
	if n < 3 || signedArea(ring) <= epsilon {
		return nil, fmt.Errorf("%w: polygon of %d points has no area", geometry.ErrDegenerateGeometry, n)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, n-2)

	for len(idx) > 3 {
		clipped := false
		for k := range idx {
			prev, cur, next := idx[(k-1+len(idx))%len(idx)], idx[k], idx[(k+1)%len(idx)]
			turn := cross(ring[prev], ring[cur], ring[next])
			if turn > -epsilon && turn < epsilon {
				idx = append(idx[:k], idx[k+1:]...)
				clipped = true
				break
			}
			if turn < 0 || !isEar(ring, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			idx = append(idx[:k], idx[k+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("%w: polygon is not simple", geometry.ErrDegenerateGeometry)
		}
	}
	if len(idx) == 3 && cross(ring[idx[0]], ring[idx[1]], ring[idx[2]]) > epsilon {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris, nil
}

// isEar reports whether no other remaining vertex lies inside prev-cur-next.
func isEar(ring []geometry.Point2D, idx []int, prev, cur, next int) bool {
	a, b, c := ring[prev], ring[cur], ring[next]
	for _, i := range idx {
		if i == prev || i == cur || i == next {
			continue
		}
		p := ring[i]
		if p == a || p == b || p == c {
			continue
		}
		if cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0 {
			return false
		}
	}
	return true
}

func cross(a, b, c geometry.Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// signedArea is positive for counter-clockwise rings in a Y-up frame.
func signedArea(ring []geometry.Point2D) float64 {
	s := 0.0
	for i := range ring {
		j := (i + 1) % len(ring)
		s += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return s / 2
}

func openRing(ring []geometry.Point2D) []geometry.Point2D {
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		return ring[:len(ring)-1]
	}
	return ring
}

func reversed(ring []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}
