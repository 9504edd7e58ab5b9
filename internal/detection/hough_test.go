package detection

import (
	"image"
	"testing"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

func edgeImage(w, h int, pts ...image.Point) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for _, p := range pts {
		g.SetGray(p.X, p.Y, whitePx)
	}
	return g
}

func TestDetectLines(t *testing.T) {
	var horizontal, vertical, short []image.Point
	for x := 20; x <= 180; x++ {
		horizontal = append(horizontal, image.Point{X: x, Y: 50})
	}
	for y := 10; y <= 150; y++ {
		vertical = append(vertical, image.Point{X: 30, Y: y})
	}
	for x := 60; x <= 100; x++ {
		short = append(short, image.Point{X: x, Y: 120})
	}

	tests := []struct {
		name   string
		points []image.Point
		want   []geometry.LineSegment
	}{
		{"horizontal", horizontal, []geometry.LineSegment{geometry.Seg(20, 50, 180, 50)}},
		{"vertical", vertical, []geometry.LineSegment{geometry.Seg(30, 10, 30, 150)}},
		{"shorter than min length", short, nil},
	}

	b := NewNativeBackend()
	params := LineParams{Threshold: 50, MinLength: 100, MaxGap: 10}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.DetectLines(edgeImage(200, 200, tt.points...), params)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d lines, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDetectLines_BridgesGaps(t *testing.T) {
	var pts []image.Point
	for x := 10; x <= 190; x++ {
		if x >= 100 && x < 106 { // 6 px hole
			continue
		}
		pts = append(pts, image.Point{X: x, Y: 80})
	}
	got := NewNativeBackend().DetectLines(edgeImage(200, 200, pts...), LineParams{Threshold: 50, MinLength: 100, MaxGap: 10})
	if len(got) != 1 {
		t.Fatalf("expected the gap to be bridged into one line, got %d", len(got))
	}
	if got[0].Length() != 180 {
		t.Errorf("length = %v, want 180", got[0].Length())
	}
}

func TestDetectLines_Empty(t *testing.T) {
	got := NewNativeBackend().DetectLines(image.NewGray(image.Rect(0, 0, 50, 50)), LineParams{Threshold: 10, MinLength: 10, MaxGap: 2})
	if len(got) != 0 {
		t.Errorf("expected no lines, got %d", len(got))
	}
}
