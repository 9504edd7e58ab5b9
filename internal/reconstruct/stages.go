package reconstruct

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// ErrOutlineUnavailable is returned when neither the perimeter walls nor the
// rooms of a plan yield a footprint.
var ErrOutlineUnavailable = errors.New("outline unavailable")

const exteriorWallType = "exterior_wall"

// ExtractOutline derives the building footprint from one plan. The longest
// maxWalls walls are taken as perimeter candidates and the convex hull of
// their endpoints becomes the outline, so concave buildings come out
// convex. With fewer than three candidates, or no hull, the boundary of the
// largest room is used instead.
func ExtractOutline(plan FloorPlan, maxWalls int) (Outline, error) {
	if ring, err := perimeterHull(plan.Features.Walls, maxWalls); err == nil {
		return closedOutline(ring), nil
	}

	var largest *features.Room
	for i := range plan.Features.Rooms {
		r := &plan.Features.Rooms[i]
		if len(r.Points) < 3 {
			continue
		}
		if largest == nil || r.Area > largest.Area {
			largest = r
		}
	}
	if largest != nil {
		ring := append([]geometry.Point2D(nil), largest.Points...)
		return closedOutline(ring), nil
	}
	return Outline{ExteriorWalls: []ExteriorWall{}}, ErrOutlineUnavailable
}

func closedOutline(ring []geometry.Point2D) Outline {
	return Outline{
		ExteriorWalls: []ExteriorWall{{Type: exteriorWallType, Points: ring, Closed: true}},
	}
}

func perimeterHull(walls []features.Wall, maxWalls int) ([]geometry.Point2D, error) {
	sorted := make([]features.Wall, 0, len(walls))
	for _, w := range walls {
		if len(w.Points) >= 2 {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Length > sorted[j].Length
	})
	if len(sorted) > maxWalls {
		sorted = sorted[:maxWalls]
	}
	if len(sorted) < 3 {
		return nil, fmt.Errorf("%w: %d perimeter candidates", ErrOutlineUnavailable, len(sorted))
	}

	endpoints := make([]geometry.Point2D, 0, 2*len(sorted))
	for _, w := range sorted {
		endpoints = append(endpoints, w.Points[0], w.Points[len(w.Points)-1])
	}
	return geometry.ConvexHull(endpoints)
}

// InferFloorHeights pools the floor-level y positions of every elevation
// and converts them to heights above ground, ascending, with the ground
// floor at exactly 0. Levels closer than tolerance to the previous kept one
// are merged and non-finite positions are ignored. Without any levels, one
// floor per elevation (at least one) is spaced storyHeight apart.
func InferFloorHeights(elevations []Elevation, tolerance, storyHeight float64) []float64 {
	var ys []float64
	for _, e := range elevations {
		for _, l := range e.Data.FloorLevels {
			if math.IsNaN(l.YPosition) || math.IsInf(l.YPosition, 0) {
				continue
			}
			ys = append(ys, l.YPosition)
		}
	}

	if len(ys) == 0 {
		n := len(elevations)
		if n < 1 {
			n = 1
		}
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = float64(i) * storyHeight
		}
		return heights
	}

	// image y grows downward, so the largest y is the ground line
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))
	kept := []float64{ys[0]}
	for _, y := range ys[1:] {
		if math.Abs(y-kept[len(kept)-1]) > tolerance {
			kept = append(kept, y)
		}
	}

	heights := make([]float64, len(kept))
	for i, y := range kept {
		heights[i] = kept[0] - y
	}
	heights[0] = 0
	return heights
}

// floorBase is the height of floor i. Floors past the inferred list are
// stacked storyHeight apart above the last known one.
func floorBase(heights []float64, i int, storyHeight float64) float64 {
	if i < len(heights) {
		return heights[i]
	}
	last := len(heights) - 1
	return heights[last] + float64(i-last)*storyHeight
}

// floorSpan is the wall height of floor i: the gap to the next floor, or
// storyHeight for the top one.
func floorSpan(heights []float64, i int, storyHeight float64) float64 {
	if i+1 < len(heights) {
		return heights[i+1] - heights[i]
	}
	return storyHeight
}

// LiftWalls places every plan wall of floor i on floor i. It returns the
// lifted walls and the number of degenerate walls skipped.
func LiftWalls(plans []FloorPlan, heights []float64, cfg Config) ([]Wall3D, int) {
	walls := make([]Wall3D, 0)
	skipped := 0
	for i, plan := range plans {
		base := floorBase(heights, i, cfg.StoryHeight)
		span := floorSpan(heights, i, cfg.StoryHeight)
		for _, w := range plan.Features.Walls {
			if len(w.Points) < 2 || geometry.PolylineLength(w.Points) == 0 {
				skipped++
				continue
			}
			thickness := w.Thickness
			if thickness <= 0 {
				thickness = cfg.DefaultWallThickness
			}
			walls = append(walls, Wall3D{
				Points:     append([]geometry.Point2D(nil), w.Points...),
				Height:     span,
				BaseHeight: base,
				Thickness:  thickness,
				Floor:      i,
			})
		}
	}
	return walls, skipped
}

// LiftOpenings places windows and doors on their floor. Sill and door
// heights use the fixed story height rather than the inferred floors.
func LiftOpenings(plans []FloorPlan, cfg Config) (Openings, int) {
	openings := make(Openings, 0)
	skipped := 0
	for i, plan := range plans {
		floorZ := float64(i) * cfg.StoryHeight

		for _, w := range plan.Features.Windows {
			if len(w.Points) < 4 {
				skipped++
				continue
			}
			b := geometry.BoundsOf(w.Points)
			if b.Width() <= 0 || b.Height() <= 0 {
				skipped++
				continue
			}
			openings = append(openings, &WindowOpening{
				Position:   geometry.Pt(b.MinX, b.MinY),
				Width:      b.Width(),
				Height:     b.Height(),
				SillHeight: floorZ + cfg.SillHeight,
				Floor:      i,
			})
		}

		for _, d := range plan.Features.Doors {
			switch door := d.(type) {
			case *features.SwingDoor:
				if door.Radius <= 0 {
					skipped++
					continue
				}
				openings = append(openings, &SwingDoorOpening{
					Center:     door.Center,
					Radius:     door.Radius,
					Height:     cfg.DoorHeight,
					BaseHeight: floorZ,
					Floor:      i,
				})
			case *features.LineDoor:
				if len(door.Points) < 2 {
					skipped++
					continue
				}
				p1, p2 := door.Points[0], door.Points[1]
				width := p1.Dist(p2)
				if width == 0 {
					skipped++
					continue
				}
				openings = append(openings, &DoorOpening{
					DoorType:   door.DoorType(),
					Position:   p1,
					Width:      width,
					Height:     cfg.DoorHeight,
					Angle:      math.Atan2(p2.Y-p1.Y, p2.X-p1.X) * 180 / math.Pi,
					BaseHeight: floorZ,
					Floor:      i,
				})
			default:
				skipped++
			}
		}
	}
	return openings, skipped
}

// end returns the far end of the door leaf.
func (d *DoorOpening) end() geometry.Point2D {
	a := d.Angle * math.Pi / 180
	return d.Position.Add(geometry.Pt(math.Cos(a), math.Sin(a)).Scale(d.Width))
}
