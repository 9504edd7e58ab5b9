package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/lucasb-eyer/go-colorful"
)

// Circle is a circle primitive for overlays.
type Circle struct {
	Center geometry.Point2D
	Radius float64
}

// Label is a short text drawn at a point. Only digits, '#', ',' and '.' render.
type Label struct {
	At   geometry.Point2D
	Text string
}

// Layer groups primitives that share a color.
type Layer struct {
	Name     string
	Color    string // optional "#rrggbb"; empty picks from the palette
	Segments []geometry.LineSegment
	Polygons [][]geometry.Point2D
	Circles  []Circle
	Labels   []Label
}

// OverlayOptions controls RenderOverlay.
type OverlayOptions struct {
	// Thickness of drawn strokes in pixels.
	Thickness int

	// GridSpacing draws a light coordinate grid when > 0.
	GridSpacing int
}

// OverlayResult contains the rendered overlay and the color picked per layer.
type OverlayResult struct {
	RasterResult
	Legend map[string]string `json:"legend"`
}

// Palette returns n evenly spaced, saturated colors.
func Palette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hsv(float64(i)*360/float64(max(n, 1)), 0.85, 0.9)
	}
	return out
}

// RenderOverlay draws the layers over a washed-out grayscale copy of img.
func RenderOverlay(img image.Image, layers []Layer, opts OverlayOptions) (*OverlayResult, error) {
	if err := Validate(img); err != nil {
		return nil, err
	}
	if opts.Thickness < 1 {
		opts.Thickness = 2
	}

	base := imaging.AdjustBrightness(imaging.Grayscale(img), 35)
	canvas := image.NewRGBA(image.Rect(0, 0, base.Bounds().Dx(), base.Bounds().Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, base.Bounds().Min, draw.Src)

	if opts.GridSpacing > 0 {
		drawGrid(canvas, opts.GridSpacing)
	}

	palette := Palette(len(layers))
	legend := make(map[string]string, len(layers))
	for i, layer := range layers {
		c := palette[i]
		if layer.Color != "" {
			parsed, err := colorful.Hex(layer.Color)
			if err != nil {
				return nil, fmt.Errorf("layer %q: invalid color %q: %w", layer.Name, layer.Color, err)
			}
			c = parsed
		}
		legend[layer.Name] = c.Hex()
		r, g, b := c.RGB255()
		stroke := color.RGBA{R: r, G: g, B: b, A: 255}

		for _, s := range layer.Segments {
			DrawLine(canvas, RoundPoint(s.A.X, s.A.Y), RoundPoint(s.B.X, s.B.Y), opts.Thickness, stroke)
		}
		for _, poly := range layer.Polygons {
			pts := make([]image.Point, len(poly))
			for j, p := range poly {
				pts[j] = RoundPoint(p.X, p.Y)
			}
			if len(pts) > 1 {
				DrawPolygon(canvas, pts, opts.Thickness, stroke)
			}
		}
		for _, circ := range layer.Circles {
			DrawCircle(canvas, RoundPoint(circ.Center.X, circ.Center.Y), int(circ.Radius+0.5), opts.Thickness, stroke)
		}
		for _, l := range layer.Labels {
			p := RoundPoint(l.At.X, l.At.Y)
			drawLabel(canvas, p.X, p.Y, l.Text, color.RGBA{255, 255, 255, 255}, stroke)
		}
	}

	raster, err := Encode(canvas)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{RasterResult: *raster, Legend: legend}, nil
}

func drawGrid(img *image.RGBA, spacing int) {
	gridColor := color.RGBA{200, 200, 255, 255}
	b := img.Bounds()
	for x := spacing; x < b.Dx(); x += spacing {
		for y := 0; y < b.Dy(); y++ {
			img.Set(x, y, gridColor)
		}
	}
	for y := spacing; y < b.Dy(); y += spacing {
		for x := 0; x < b.Dx(); x++ {
			img.Set(x, y, gridColor)
		}
	}
}

// drawLabel draws a simple text label at the given position using a 3x5 pixel font.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'.': {"000", "000", "000", "000", "010"},
		'#': {"101", "111", "101", "111", "101"},
	}

	text = strings.TrimSpace(text)
	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			p := image.Point{X: x + dx, Y: y + dy}
			if p.In(bounds) {
				img.Set(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				p := image.Point{X: cx + col, Y: y + row}
				if p.In(bounds) {
					img.Set(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
