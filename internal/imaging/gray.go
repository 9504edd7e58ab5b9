package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// RasterResult is a raster encoded as base64 PNG for transport.
type RasterResult struct {
	// Width of the output image in pixels.
	Width int `json:"width"`

	// Height of the output image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the raster encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// Encode wraps img as a base64 PNG RasterResult.
func Encode(img image.Image) (*RasterResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &RasterResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// ToGray converts any raster to an 8-bit grayscale image rebased at (0,0).
func ToGray(img image.Image) (*image.Gray, error) {
	if err := Validate(img); err != nil {
		return nil, err
	}
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		out := image.NewGray(g.Bounds())
		copy(out.Pix, g.Pix)
		return out, nil
	}
	return toGrayFromRGBA(effect.Grayscale(img)), nil
}

// FitWithin down-scales img so that neither side exceeds maxDim, keeping the
// aspect ratio. It returns the (possibly unchanged) raster and the factor
// applied to coordinates. maxDim <= 0 disables the limit.
func FitWithin(img image.Image, maxDim int) (image.Image, float64) {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img, 1
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	return fitted, float64(fitted.Bounds().Dx()) / float64(b.Dx())
}

// Invert flips every pixel of a grayscale raster.
func Invert(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// NewMask returns a black raster of the given size.
func NewMask(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// CountNonZero returns how many pixels are set.
func CountNonZero(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// toGrayFromRGBA keeps the red channel of a bild output that started life as
// a single-channel raster.
func toGrayFromRGBA(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.Gray{Y: img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)]})
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
