package features

import (
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// ClassifyOrientation buckets a wall angle in [0, 180).
//
// [0,45) and [135,180) are horizontal and [45,135) is vertical, so every
// angle in range lands in one of the two. Diagonal is only returned for
// values outside the domain, such as NaN.
func ClassifyOrientation(angle float64) Orientation {
	switch {
	case angle >= 0 && angle < 45, angle >= 135 && angle < 180:
		return Horizontal
	case angle >= 45 && angle < 135:
		return Vertical
	default:
		return Diagonal
	}
}

// ClassifyWindow derives the window subtype from its size alone.
// Comparisons are strict, so a 2:1 window is standard.
func ClassifyWindow(width, height float64, c Config) WindowKind {
	aspect := width / height
	switch {
	case aspect > c.HorizontalWindowAspect:
		return WindowHorizontal
	case aspect < c.VerticalWindowAspect:
		return WindowVertical
	case width*height > c.PictureWindowArea:
		return WindowPicture
	default:
		return WindowStandard
	}
}

// NewWindow measures and classifies a window rectangle.
func NewWindow(points []geometry.Point2D, width, height float64, c Config) (Window, error) {
	if width <= 0 || height <= 0 {
		return Window{}, fmt.Errorf("%w: window %gx%g", geometry.ErrDegenerateGeometry, width, height)
	}
	return Window{
		Points:      append([]geometry.Point2D(nil), points...),
		Width:       width,
		Height:      height,
		Area:        width * height,
		AspectRatio: width / height,
		Kind:        ClassifyWindow(width, height, c),
	}, nil
}

// ClassifyLineDoor returns double for leaves longer than the configured length.
func ClassifyLineDoor(length float64, c Config) LineDoorKind {
	if length > c.DoubleDoorLength {
		return DoorDouble
	}
	return DoorStandard
}
