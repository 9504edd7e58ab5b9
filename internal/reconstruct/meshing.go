package reconstruct

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/mesh"
)

// BuildMesh turns a model into one concatenated mesh. Walls are swept
// along their path; a wall whose path cannot be swept becomes one box per
// segment. Windows are boxes, swing doors cylinders and line doors thin
// boxes. The roof is the outline extruded by its height, or the outline's
// bounding box when the outline cannot be triangulated.
func BuildMesh(model *BuildingModel, cfg Config) (*mesh.Mesh, []Warning) {
	var parts []*mesh.Mesh
	var warnings []Warning

	fallbacks, skipped := 0, 0
	for _, w := range model.Walls {
		m, err := mesh.ExtrudePath(w.Points, w.Thickness, w.BaseHeight, w.Height)
		if err == nil {
			parts = append(parts, m)
			continue
		}
		fallbacks++
		for i := 0; i+1 < len(w.Points); i++ {
			box, err := mesh.OrientedBox(w.Points[i], w.Points[i+1], w.Thickness, w.BaseHeight, w.Height)
			if err != nil {
				skipped++
				continue
			}
			parts = append(parts, box)
		}
	}
	if fallbacks > 0 {
		warnings = append(warnings, Warning{Stage: "mesh", Message: fmt.Sprintf("%d walls built from per-segment boxes", fallbacks)})
	}

	for _, op := range model.Openings {
		m, err := openingMesh(op, cfg)
		if err != nil {
			skipped++
			continue
		}
		parts = append(parts, m)
	}
	if skipped > 0 {
		warnings = append(warnings, Warning{Stage: "mesh", Message: fmt.Sprintf("skipped %d degenerate solids", skipped)})
	}

	roof, err := roofMesh(model.Roof)
	if err != nil {
		warnings = append(warnings, Warning{Stage: "mesh", Message: fmt.Sprintf("no roof mesh: %v", err)})
	} else {
		parts = append(parts, roof)
	}

	return mesh.Concat(parts...), warnings
}

func openingMesh(op Opening, cfg Config) (*mesh.Mesh, error) {
	switch o := op.(type) {
	case *WindowOpening:
		return mesh.Box(
			r3.Vec{X: o.Position.X, Y: o.Position.Y, Z: o.SillHeight},
			r3.Vec{X: o.Position.X + o.Width, Y: o.Position.Y + o.Height, Z: o.SillHeight + cfg.WindowHeight},
		)
	case *DoorOpening:
		return mesh.OrientedBox(o.Position, o.end(), cfg.DoorThickness, o.BaseHeight, o.Height)
	case *SwingDoorOpening:
		return mesh.Cylinder(o.Center, o.Radius, o.BaseHeight, o.Height, cfg.CylinderSides)
	default:
		return nil, fmt.Errorf("unknown opening %T", op)
	}
}

func roofMesh(roof Roof) (*mesh.Mesh, error) {
	if len(roof.Outline) == 0 || len(roof.Outline[0].Points) < 3 {
		return nil, fmt.Errorf("%w: roof has no outline", geometry.ErrDegenerateGeometry)
	}
	ring := roof.Outline[0].Points
	if m, err := mesh.ExtrudePolygon(ring, roof.BaseHeight, roof.Height); err == nil {
		return m, nil
	}
	b := geometry.BoundsOf(ring)
	return mesh.Box(
		r3.Vec{X: b.MinX, Y: b.MinY, Z: roof.BaseHeight},
		r3.Vec{X: b.MaxX, Y: b.MaxY, Z: roof.BaseHeight + roof.Height},
	)
}
