package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// createPlanImage draws a black rectangle outline of the given stroke on white.
func createPlanImage(width, height, x0, y0, x1, y1, stroke int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			inner := x >= x0+stroke && x < x1-stroke && y >= y0+stroke && y < y1-stroke
			if !inner {
				img.SetGray(x, y, color.Gray{0})
			}
		}
	}
	return img
}

func TestToGray(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(5, 5, 15, 25))
	for y := 5; y < 25; y++ {
		for x := 5; x < 15; x++ {
			rgba.Set(x, y, color.White)
		}
	}
	g, err := ToGray(rgba)
	if err != nil {
		t.Fatalf("ToGray failed: %v", err)
	}
	if g.Bounds() != image.Rect(0, 0, 10, 20) {
		t.Errorf("bounds: got %v, want rebased 10x20", g.Bounds())
	}
	if v := g.GrayAt(3, 3).Y; v != 255 {
		t.Errorf("white pixel: got %d", v)
	}

	// colour input goes through the weighted grayscale, offset origin included
	rgba.Set(6, 7, color.RGBA{R: 255, A: 255})
	g, err = ToGray(rgba)
	if err != nil {
		t.Fatalf("ToGray failed: %v", err)
	}
	if v := g.GrayAt(1, 2).Y; v < 76 || v > 77 {
		t.Errorf("red pixel: got %d, want about 0.3*255", v)
	}

	if _, err := ToGray(nil); err == nil {
		t.Error("ToGray(nil) should fail")
	}
}

func TestPreprocess(t *testing.T) {
	img := createPlanImage(120, 120, 20, 20, 100, 100, 6)

	out1, err := Preprocess(img, DefaultPreprocessOptions())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	out2, err := Preprocess(img, DefaultPreprocessOptions())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !bytes.Equal(out1.Pix, out2.Pix) {
		t.Error("Preprocess is not deterministic")
	}

	if v := out1.GrayAt(23, 60).Y; v != 255 {
		t.Errorf("stroke pixel: got %d, want 255", v)
	}
	if v := out1.GrayAt(5, 5).Y; v != 0 {
		t.Errorf("background pixel: got %d, want 0", v)
	}
	if v := out1.GrayAt(60, 60).Y; v != 0 {
		t.Errorf("interior pixel: got %d, want 0", v)
	}
	t.Logf("foreground pixels: %d", CountNonZero(out1))
}

func TestPreprocess_Empty(t *testing.T) {
	if _, err := Preprocess(image.NewGray(image.Rect(0, 0, 0, 0)), DefaultPreprocessOptions()); err == nil {
		t.Error("Preprocess should fail on an empty raster")
	}
}

func TestMorphology(t *testing.T) {
	img := NewMask(21, 21)
	img.SetGray(10, 10, color.Gray{255})

	dilated := Dilate(img, 1)
	if dilated.GrayAt(11, 10).Y != 255 || dilated.GrayAt(10, 9).Y != 255 {
		t.Error("Dilate did not grow the single pixel")
	}
	if dilated.GrayAt(15, 15).Y != 0 {
		t.Error("Dilate grew too far")
	}

	opened := Open(img, 1)
	if CountNonZero(opened) != 0 {
		t.Errorf("Open should remove an isolated speck, %d pixels remain", CountNonZero(opened))
	}
}

func TestCanny(t *testing.T) {
	img := createPlanImage(100, 100, 30, 30, 70, 70, 40)

	edges := Canny(img, 50, 150)
	if edges.Bounds().Dx() != 100 || edges.Bounds().Dy() != 100 {
		t.Fatalf("dimensions: got %v", edges.Bounds())
	}

	near := 0
	for y := 35; y < 65; y++ {
		for x := 26; x <= 33; x++ {
			if edges.GrayAt(x, y).Y == 255 {
				near++
			}
		}
	}
	if near == 0 {
		t.Error("expected edge pixels along the left side of the square")
	}
	for y := 0; y < 15; y++ {
		for x := 0; x < 100; x++ {
			if edges.GrayAt(x, y).Y != 0 {
				t.Fatalf("unexpected edge at (%d,%d) in flat background", x, y)
			}
		}
	}
}

func TestCanny_UniformImage(t *testing.T) {
	img := NewMask(40, 40)
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	if n := CountNonZero(Canny(img, 50, 150)); n != 0 {
		t.Errorf("uniform image produced %d edge pixels", n)
	}
}

func TestSobel(t *testing.T) {
	uniform := NewMask(30, 30)
	if n := CountNonZero(Sobel(uniform, 50)); n != 0 {
		t.Errorf("uniform image produced %d edge pixels", n)
	}

	img := createPlanImage(60, 60, 20, 20, 40, 40, 20)
	edges := Sobel(img, 50)
	if edges.GrayAt(20, 30).Y != 255 && edges.GrayAt(19, 30).Y != 255 {
		t.Error("expected an edge at the square boundary")
	}
	if edges.GrayAt(5, 5).Y != 0 {
		t.Error("unexpected edge in background")
	}
}

func TestDrawLine(t *testing.T) {
	mask := NewMask(20, 20)
	DrawLine(mask, image.Pt(2, 5), image.Pt(17, 5), 2, color.Gray{255})

	for x := 2; x <= 17; x++ {
		if mask.GrayAt(x, 5).Y != 255 || mask.GrayAt(x, 6).Y != 255 {
			t.Fatalf("stroke missing at x=%d", x)
		}
	}
	if mask.GrayAt(10, 4).Y != 0 || mask.GrayAt(10, 7).Y != 0 {
		t.Error("stroke wider than 2px")
	}

	// clipping must not panic
	DrawLine(mask, image.Pt(-10, -10), image.Pt(30, 30), 3, color.Gray{255})
}

func TestRenderOverlay(t *testing.T) {
	img := createPlanImage(80, 60, 10, 10, 70, 50, 3)
	layers := []Layer{
		{Name: "walls", Segments: []geometry.LineSegment{geometry.Seg(10, 10, 70, 10)}},
		{Name: "windows", Polygons: [][]geometry.Point2D{{geometry.Pt(20, 20), geometry.Pt(30, 20), geometry.Pt(30, 30), geometry.Pt(20, 30)}}},
		{Name: "doors", Color: "#00ff00", Circles: []Circle{{Center: geometry.Pt(40, 40), Radius: 8}}},
		{Name: "rooms", Labels: []Label{{At: geometry.Pt(50, 25), Text: "1"}}},
	}

	res, err := RenderOverlay(img, layers, OverlayOptions{GridSpacing: 20})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if res.Width != 80 || res.Height != 60 || res.MimeType != "image/png" {
		t.Errorf("unexpected result header: %+v", res.RasterResult)
	}
	if res.Legend["doors"] != "#00ff00" {
		t.Errorf("doors legend: got %s", res.Legend["doors"])
	}
	if len(res.Legend) != 4 {
		t.Errorf("legend size: got %d", len(res.Legend))
	}

	decoded, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(decoded)); err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}

	if _, err := RenderOverlay(img, []Layer{{Name: "bad", Color: "#zz"}}, OverlayOptions{}); err == nil {
		t.Error("invalid layer color should fail")
	}
}

func TestPalette(t *testing.T) {
	p := Palette(4)
	seen := map[string]bool{}
	for _, c := range p {
		seen[c.Hex()] = true
	}
	if len(seen) != 4 {
		t.Errorf("palette colors not distinct: %v", seen)
	}
}
