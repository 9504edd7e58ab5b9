package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// DrawLine rasterizes the segment a-b with a square brush of the given
// thickness (Bresenham). Pixels outside dst are clipped.
func DrawLine(dst draw.Image, a, b image.Point, thickness int, c color.Color) {
	if thickness < 1 {
		thickness = 1
	}
	lo := -(thickness - 1) / 2
	hi := thickness / 2

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	bounds := dst.Bounds()
	for {
		for oy := lo; oy <= hi; oy++ {
			for ox := lo; ox <= hi; ox++ {
				p := image.Point{X: x + ox, Y: y + oy}
				if p.In(bounds) {
					dst.Set(p.X, p.Y, c)
				}
			}
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// DrawPolygon outlines a closed polygon.
func DrawPolygon(dst draw.Image, pts []image.Point, thickness int, c color.Color) {
	for i := range pts {
		DrawLine(dst, pts[i], pts[(i+1)%len(pts)], thickness, c)
	}
}

// DrawCircle outlines a circle by joining 64 chords.
func DrawCircle(dst draw.Image, center image.Point, radius, thickness int, c color.Color) {
	const steps = 64
	prev := image.Point{X: center.X + radius, Y: center.Y}
	for i := 1; i <= steps; i++ {
		t := 2 * math.Pi * float64(i) / steps
		next := image.Point{
			X: center.X + int(math.Round(float64(radius)*math.Cos(t))),
			Y: center.Y + int(math.Round(float64(radius)*math.Sin(t))),
		}
		DrawLine(dst, prev, next, thickness, c)
		prev = next
	}
}

// RoundPoint converts float coordinates to the nearest pixel.
func RoundPoint(x, y float64) image.Point {
	return image.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
