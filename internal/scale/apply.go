package scale

import (
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// converter keeps the first conversion error so the Apply functions read
// as straight assignments.
type converter struct {
	c   *Calibration
	out units.Unit
	err error
}

func (v *converter) length(x float64) float64 {
	if v.err != nil {
		return 0
	}
	r, err := v.c.PixelsToReal(x, v.out)
	v.err = err
	return r
}

func (v *converter) point(p geometry.Point2D) geometry.Point2D {
	if v.err != nil {
		return geometry.Point2D{}
	}
	r, err := v.c.PointToReal(p, v.out)
	v.err = err
	return r
}

func (v *converter) points(pts []geometry.Point2D) []geometry.Point2D {
	if v.err != nil {
		return nil
	}
	r, err := v.c.points(pts, v.out)
	v.err = err
	return r
}

func (v *converter) area(a float64) float64 {
	if v.err != nil {
		return 0
	}
	r, err := v.c.AreaToReal(a, v.out)
	v.err = err
	return r
}

func (c *Calibration) converter(out units.Unit) (*converter, error) {
	if c == nil {
		return nil, ErrNoScaleSet
	}
	if !units.IsValid(out) {
		return nil, fmt.Errorf("%w: %q", units.ErrUnsupportedUnit, out)
	}
	return &converter{c: c, out: out}, nil
}

// ApplyToFeatures returns a copy of fs in out. Coordinates, lengths,
// widths, heights, thicknesses and radii are scaled linearly and areas
// quadratically; angles and aspect ratios are unchanged. fs is not modified.
func (c *Calibration) ApplyToFeatures(fs *features.FeatureSet, out units.Unit) (*features.FeatureSet, error) {
	v, err := c.converter(out)
	if err != nil {
		return nil, err
	}
	if fs == nil {
		return nil, fmt.Errorf("nil feature set")
	}

	res := &features.FeatureSet{
		Walls:   make([]features.Wall, len(fs.Walls)),
		Windows: make([]features.Window, len(fs.Windows)),
		Doors:   make(features.Doors, len(fs.Doors)),
		Rooms:   make([]features.Room, len(fs.Rooms)),
		Unit:    out,
	}

	for i, w := range fs.Walls {
		res.Walls[i] = features.Wall{
			Points:      v.points(w.Points),
			Length:      v.length(w.Length),
			Thickness:   v.length(w.Thickness),
			Angle:       w.Angle,
			Orientation: w.Orientation,
		}
	}
	for i, w := range fs.Windows {
		res.Windows[i] = features.Window{
			Points:      v.points(w.Points),
			Width:       v.length(w.Width),
			Height:      v.length(w.Height),
			Area:        v.area(w.Area),
			AspectRatio: w.AspectRatio,
			Kind:        w.Kind,
		}
	}
	for i, d := range fs.Doors {
		switch door := d.(type) {
		case *features.SwingDoor:
			res.Doors[i] = &features.SwingDoor{
				Center:     v.point(door.Center),
				Radius:     v.length(door.Radius),
				SwingAngle: door.SwingAngle,
			}
		case *features.LineDoor:
			res.Doors[i] = &features.LineDoor{
				Points: v.points(door.Points),
				Length: v.length(door.Length),
				Angle:  door.Angle,
				Kind:   door.Kind,
			}
		default:
			return nil, fmt.Errorf("unknown door %T", d)
		}
	}
	for i, r := range fs.Rooms {
		res.Rooms[i] = features.Room{
			Points:   v.points(r.Points),
			Area:     v.area(r.Area),
			Centroid: v.point(r.Centroid),
			Label:    r.Label,
		}
	}

	if v.err != nil {
		return nil, v.err
	}
	return res, nil
}

// ApplyToFloorLevels returns scaled copies of elevation floor levels.
func (c *Calibration) ApplyToFloorLevels(levels []features.FloorLevel, out units.Unit) ([]features.FloorLevel, error) {
	v, err := c.converter(out)
	if err != nil {
		return nil, err
	}
	res := make([]features.FloorLevel, len(levels))
	for i, l := range levels {
		res[i] = features.FloorLevel{
			YPosition: v.length(l.YPosition),
			Points:    v.points(l.Points),
			Length:    v.length(l.Length),
		}
	}
	if v.err != nil {
		return nil, v.err
	}
	return res, nil
}

// ApplyToConnections returns scaled copies of room connections.
func (c *Calibration) ApplyToConnections(conns []features.RoomConnection, out units.Unit) ([]features.RoomConnection, error) {
	v, err := c.converter(out)
	if err != nil {
		return nil, err
	}
	res := make([]features.RoomConnection, len(conns))
	for i, rc := range conns {
		res[i] = rc
		res[i].Distance = v.length(rc.Distance)
		res[i].Midpoint = v.point(rc.Midpoint)
		res[i].Unit = out
	}
	if v.err != nil {
		return nil, v.err
	}
	return res, nil
}
