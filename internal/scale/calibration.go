// Package scale converts pixel measurements to real-world units.
//
// A Calibration is an immutable meters-per-pixel factor for one image.
// Calibrations live in a Context, an explicit lock-protected registry
// keyed by image id that callers pass to whatever needs conversion.
package scale

import (
	"errors"
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// ErrNoScaleSet is returned when a conversion needs a calibration that does not exist.
var ErrNoScaleSet = errors.New("no scale set")

// Calibration maps pixels of one image to real-world lengths.
type Calibration struct {
	ImageID        string     `json:"image_id"`
	MetersPerPixel float64    `json:"scale_factor"`
	OriginalUnit   units.Unit `json:"original_unit"`
	PixelLength    float64    `json:"pixel_length"`
	RealLength     float64    `json:"real_length"`
}

// NewCalibration builds a calibration from a reference of known length:
// pixelLength pixels on the image measure realLength in unit.
func NewCalibration(imageID string, pixelLength, realLength float64, unit units.Unit) (*Calibration, error) {
	if pixelLength <= 0 {
		return nil, fmt.Errorf("pixel length must be positive, got %g", pixelLength)
	}
	if realLength <= 0 {
		return nil, fmt.Errorf("real length must be positive, got %g", realLength)
	}
	meters, err := units.ToMeters(realLength, unit)
	if err != nil {
		return nil, err
	}
	return &Calibration{
		ImageID:        imageID,
		MetersPerPixel: meters / pixelLength,
		OriginalUnit:   unit,
		PixelLength:    pixelLength,
		RealLength:     realLength,
	}, nil
}

// NewCalibrationFromPoints uses the distance between two image points as the reference.
func NewCalibrationFromPoints(imageID string, p1, p2 geometry.Point2D, realLength float64, unit units.Unit) (*Calibration, error) {
	return NewCalibration(imageID, p1.Dist(p2), realLength, unit)
}

// PixelsToReal converts a pixel length to out.
func (c *Calibration) PixelsToReal(px float64, out units.Unit) (float64, error) {
	if c == nil {
		return 0, ErrNoScaleSet
	}
	return units.FromMeters(px*c.MetersPerPixel, out)
}

// RealToPixels converts a length in in to pixels.
func (c *Calibration) RealToPixels(v float64, in units.Unit) (float64, error) {
	if c == nil {
		return 0, ErrNoScaleSet
	}
	m, err := units.ToMeters(v, in)
	if err != nil {
		return 0, err
	}
	return m / c.MetersPerPixel, nil
}

// PointToReal converts both coordinates of p.
func (c *Calibration) PointToReal(p geometry.Point2D, out units.Unit) (geometry.Point2D, error) {
	x, err := c.PixelsToReal(p.X, out)
	if err != nil {
		return geometry.Point2D{}, err
	}
	y, err := c.PixelsToReal(p.Y, out)
	if err != nil {
		return geometry.Point2D{}, err
	}
	return geometry.Pt(x, y), nil
}

// AreaToReal converts a pixel area. The linear factor is squared into
// square meters and then multiplied by the printed square-unit factor.
func (c *Calibration) AreaToReal(pxArea float64, out units.Unit) (float64, error) {
	if c == nil {
		return 0, ErrNoScaleSet
	}
	f, err := units.SquareMetersTo(out)
	if err != nil {
		return 0, err
	}
	return pxArea * c.MetersPerPixel * c.MetersPerPixel * f, nil
}

func (c *Calibration) points(pts []geometry.Point2D, out units.Unit) ([]geometry.Point2D, error) {
	if pts == nil {
		return nil, nil
	}
	res := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		q, err := c.PointToReal(p, out)
		if err != nil {
			return nil, err
		}
		res[i] = q
	}
	return res, nil
}
