package reconstruct

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/ironsheep/building-recon-mcp/internal/mesh"
)

// ErrInsufficientInput is returned when a reconstruction has no floor plans
// or no elevations.
var ErrInsufficientInput = errors.New("insufficient input")

// Config holds the reconstruction constants.
type Config struct {
	// MaxPerimeterWalls caps the walls considered for the outline.
	MaxPerimeterWalls int `json:"max_perimeter_walls"`

	// LevelTolerance merges elevation floor levels this close together.
	LevelTolerance float64 `json:"level_tolerance"`

	StoryHeight          float64 `json:"story_height"`
	DefaultWallThickness float64 `json:"default_wall_thickness"`

	// Openings
	SillHeight    float64 `json:"sill_height"`
	WindowHeight  float64 `json:"window_height"`
	DoorHeight    float64 `json:"door_height"`
	DoorThickness float64 `json:"door_thickness"`
	CylinderSides int     `json:"cylinder_sides"`

	RoofType   RoofType `json:"roof_type"`
	RoofHeight float64  `json:"roof_height"`
}

// DefaultConfig returns the standard reconstruction constants.
func DefaultConfig() Config {
	return Config{
		MaxPerimeterWalls:    20,
		LevelTolerance:       0.5,
		StoryHeight:          3.0,
		DefaultWallThickness: 0.2,
		SillHeight:           1.0,
		WindowHeight:         1.2,
		DoorHeight:           2.0,
		DoorThickness:        0.05,
		CylinderSides:        mesh.DefaultCylinderSides,
		RoofType:             RoofFlat,
		RoofHeight:           0.5,
	}
}

// Result is a reconstructed model with its mesh.
type Result struct {
	Model *BuildingModel
	Mesh  *mesh.Mesh
}

// Reconstructor builds building models. It holds no state between calls.
type Reconstructor struct {
	cfg Config
}

// NewReconstructor creates a reconstructor with the given constants.
func NewReconstructor(cfg Config) *Reconstructor {
	return &Reconstructor{cfg: cfg}
}

// Config returns the constants in use.
func (r *Reconstructor) Config() Config {
	return r.cfg
}

// Reconstruct runs every stage over the plans and elevations. Plans are
// ordered by level before floors are assigned; the inputs are not modified.
func (r *Reconstructor) Reconstruct(plans []FloorPlan, elevations []Elevation) (*Result, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: at least one floor plan is required", ErrInsufficientInput)
	}
	if len(elevations) == 0 {
		return nil, fmt.Errorf("%w: at least one elevation is required", ErrInsufficientInput)
	}

	ordered := append([]FloorPlan(nil), plans...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Data.Level < ordered[j].Data.Level
	})

	model := &BuildingModel{
		ID:   uuid.NewString(),
		Unit: ordered[0].Features.Unit,
	}
	warn := func(stage, format string, args ...any) {
		w := Warning{Stage: stage, Message: fmt.Sprintf(format, args...)}
		log.Printf("reconstruct %s: %s", w.Stage, w.Message)
		model.Warnings = append(model.Warnings, w)
	}

	for _, p := range ordered[1:] {
		if p.Features.Unit != model.Unit {
			warn("input", "plan %q is in %q, first plan in %q", p.ImageID, p.Features.Unit, model.Unit)
			break
		}
	}

	outline, err := ExtractOutline(ordered[0], r.cfg.MaxPerimeterWalls)
	if err != nil {
		warn("outline", "%v", err)
	}
	model.Outline = outline

	model.Floors = InferFloorHeights(elevations, r.cfg.LevelTolerance, r.cfg.StoryHeight)
	if len(ordered) > len(model.Floors) {
		warn("floors", "%d plans but %d inferred floors; upper floors are %g apart", len(ordered), len(model.Floors), r.cfg.StoryHeight)
	}

	walls, skipped := LiftWalls(ordered, model.Floors, r.cfg)
	if skipped > 0 {
		warn("walls", "skipped %d degenerate walls", skipped)
	}
	model.Walls = walls

	openings, skipped := LiftOpenings(ordered, r.cfg)
	if skipped > 0 {
		warn("openings", "skipped %d degenerate openings", skipped)
	}
	model.Openings = openings

	model.Roof = r.roof(ordered, model.Floors, warn)

	m, meshWarnings := BuildMesh(model, r.cfg)
	for _, w := range meshWarnings {
		warn(w.Stage, "%s", w.Message)
	}

	return &Result{Model: model, Mesh: m}, nil
}

// roof synthesises a flat roof over the top plan's outline.
func (r *Reconstructor) roof(ordered []FloorPlan, floors []float64, warn func(stage, format string, args ...any)) Roof {
	top := len(ordered) - 1
	roof := Roof{
		Type:       RoofFlat,
		Outline:    []ExteriorWall{},
		Height:     r.cfg.RoofHeight,
		BaseHeight: floorBase(floors, top, r.cfg.StoryHeight) + floorSpan(floors, top, r.cfg.StoryHeight),
	}

	switch r.cfg.RoofType {
	case RoofFlat, "":
	case RoofGabled:
		warn("roof", "gabled roofs are built as flat")
	default:
		warn("roof", "unknown roof type %q, using flat", r.cfg.RoofType)
	}

	outline, err := ExtractOutline(ordered[top], r.cfg.MaxPerimeterWalls)
	if err != nil {
		warn("roof", "no footprint for top floor: %v", err)
		return roof
	}
	roof.Outline = outline.ExteriorWalls
	return roof
}
