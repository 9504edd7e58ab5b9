package reconstruct

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func wall(x1, y1, x2, y2 float64) features.Wall {
	s := geometry.Seg(x1, y1, x2, y2)
	return features.Wall{Points: s.Points(), Length: s.Length(), Angle: s.Angle()}
}

// rectanglePlan is a 10x8 box of four walls.
func rectanglePlan(level int) FloorPlan {
	return FloorPlan{
		ImageID: "plan",
		Features: features.FeatureSet{
			Walls: []features.Wall{
				wall(0, 0, 10, 0),
				wall(10, 0, 10, 8),
				wall(10, 8, 0, 8),
				wall(0, 8, 0, 0),
			},
		},
		Data: PlanData{Level: level},
	}
}

func elevation(ys ...float64) Elevation {
	levels := make([]features.FloorLevel, len(ys))
	for i, y := range ys {
		levels[i] = features.FloorLevel{YPosition: y, Points: []geometry.Point2D{geometry.Pt(0, y), geometry.Pt(20, y)}, Length: 20}
	}
	return Elevation{Data: ElevationData{FloorLevels: levels}}
}

func TestExtractOutline(t *testing.T) {
	t.Run("closed rectangle", func(t *testing.T) {
		got, err := ExtractOutline(rectanglePlan(0), 20)
		if err != nil {
			t.Fatalf("ExtractOutline failed: %v", err)
		}
		want := Outline{ExteriorWalls: []ExteriorWall{{
			Type:   "exterior_wall",
			Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 8), geometry.Pt(0, 8)},
			Closed: true,
		}}}
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("outline mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("falls back to largest room", func(t *testing.T) {
		plan := FloorPlan{Features: features.FeatureSet{
			Walls: []features.Wall{wall(0, 0, 10, 0), wall(10, 0, 10, 8)},
			Rooms: []features.Room{
				{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(2, 0), geometry.Pt(2, 2)}, Area: 2},
				{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(5, 0), geometry.Pt(5, 5), geometry.Pt(0, 5)}, Area: 25},
			},
		}}
		got, err := ExtractOutline(plan, 20)
		if err != nil {
			t.Fatalf("ExtractOutline failed: %v", err)
		}
		if len(got.ExteriorWalls) != 1 || !got.ExteriorWalls[0].Closed {
			t.Fatalf("want one closed loop, got %+v", got)
		}
		if diff := cmp.Diff(plan.Features.Rooms[1].Points, got.Ring()); diff != "" {
			t.Errorf("outline is not the largest room (-want +got):\n%s", diff)
		}
	})

	t.Run("collinear walls fall back", func(t *testing.T) {
		plan := FloorPlan{Features: features.FeatureSet{
			Walls: []features.Wall{wall(0, 0, 10, 0), wall(10, 0, 20, 0), wall(20, 0, 30, 0)},
		}}
		if _, err := ExtractOutline(plan, 20); !errors.Is(err, ErrOutlineUnavailable) {
			t.Errorf("got %v, want ErrOutlineUnavailable", err)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		got, err := ExtractOutline(FloorPlan{}, 20)
		if !errors.Is(err, ErrOutlineUnavailable) {
			t.Fatalf("got %v, want ErrOutlineUnavailable", err)
		}
		if got.ExteriorWalls == nil || len(got.ExteriorWalls) != 0 {
			t.Errorf("want empty exterior walls, got %#v", got.ExteriorWalls)
		}
	})

	t.Run("only the longest walls count", func(t *testing.T) {
		plan := rectanglePlan(0)
		// a short stub far outside the box is not among the four longest walls
		plan.Features.Walls = append(plan.Features.Walls, wall(50, 50, 51, 50))
		got, err := ExtractOutline(plan, 4)
		if err != nil {
			t.Fatalf("ExtractOutline failed: %v", err)
		}
		b := geometry.BoundsOf(got.Ring())
		if b.MaxX != 10 || b.MaxY != 8 {
			t.Errorf("outline reaches %v, stub wall was used", b)
		}
	})
}

func TestInferFloorHeights(t *testing.T) {
	tests := []struct {
		name       string
		elevations []Elevation
		want       []float64
	}{
		{"three levels", []Elevation{elevation(100, 300, 200)}, []float64{0, 100, 200}},
		{
			"near duplicates across elevations",
			[]Elevation{elevation(300, 200, 100.2), elevation(300.3, 100)},
			[]float64{0, 100.3, 200.1},
		},
		{"single level", []Elevation{elevation(42)}, []float64{0}},
		{"no levels", []Elevation{{}, {}}, []float64{0, 3}},
		{"no elevations", nil, []float64{0}},
		{"non-finite levels ignored", []Elevation{elevation(math.NaN(), 300, math.Inf(1), 100)}, []float64{0, 200}},
		{"only non-finite levels", []Elevation{elevation(math.NaN())}, []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferFloorHeights(tt.elevations, 0.5, 3.0)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("heights mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInferFloorHeightsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		var elevs []Elevation
		for e := 0; e < 1+rng.Intn(3); e++ {
			ys := make([]float64, rng.Intn(6))
			for i := range ys {
				ys[i] = rng.Float64() * 1000
			}
			elevs = append(elevs, elevation(ys...))
		}

		got := InferFloorHeights(elevs, 0.5, 3.0)
		if len(got) == 0 || got[0] != 0 {
			t.Fatalf("trial %d: heights %v do not start at 0", trial, got)
		}
		if !sort.Float64sAreSorted(got) {
			t.Fatalf("trial %d: heights %v not ascending", trial, got)
		}
		for _, h := range got {
			if h < 0 {
				t.Fatalf("trial %d: negative height in %v", trial, got)
			}
		}
	}
}

func TestLiftWalls(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("single wall on ground floor", func(t *testing.T) {
		plans := []FloorPlan{{Features: features.FeatureSet{Walls: []features.Wall{wall(0, 0, 10, 0)}}}}
		got, skipped := LiftWalls(plans, []float64{0, 3}, cfg)
		want := []Wall3D{{
			Points:     []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 0)},
			Height:     3,
			BaseHeight: 0,
			Thickness:  0.2,
			Floor:      0,
		}}
		if diff := cmp.Diff(want, got, approx); diff != "" {
			t.Errorf("walls mismatch (-want +got):\n%s", diff)
		}
		if skipped != 0 {
			t.Errorf("skipped = %d, want 0", skipped)
		}
	})

	t.Run("stacked floors", func(t *testing.T) {
		thick := wall(0, 0, 0, 10)
		thick.Thickness = 0.3
		plans := []FloorPlan{
			{Features: features.FeatureSet{Walls: []features.Wall{wall(0, 0, 10, 0)}}},
			{Features: features.FeatureSet{Walls: []features.Wall{thick}}},
			{Features: features.FeatureSet{Walls: []features.Wall{wall(0, 0, 5, 0)}}},
		}
		got, _ := LiftWalls(plans, []float64{0, 2.5}, cfg)
		if len(got) != 3 {
			t.Fatalf("got %d walls, want 3", len(got))
		}
		type lifted struct{ Base, Height, Thickness float64 }
		var gotL []lifted
		for _, w := range got {
			gotL = append(gotL, lifted{w.BaseHeight, w.Height, w.Thickness})
		}
		// the third floor is past the inferred heights
		want := []lifted{{0, 2.5, 0.2}, {2.5, 3, 0.3}, {5.5, 3, 0.2}}
		if diff := cmp.Diff(want, gotL, approx); diff != "" {
			t.Errorf("lifted walls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("degenerate walls skipped", func(t *testing.T) {
		plans := []FloorPlan{{Features: features.FeatureSet{Walls: []features.Wall{
			{Points: []geometry.Point2D{geometry.Pt(1, 1)}},
			wall(3, 3, 3, 3),
			wall(0, 0, 1, 0),
		}}}}
		got, skipped := LiftWalls(plans, []float64{0}, cfg)
		if len(got) != 1 || skipped != 2 {
			t.Errorf("got %d walls, %d skipped; want 1, 2", len(got), skipped)
		}
	})
}

func TestLiftOpenings(t *testing.T) {
	cfg := DefaultConfig()
	window := features.Window{
		Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.Pt(100, 50), geometry.Pt(0, 50)},
	}
	plans := []FloorPlan{
		{Features: features.FeatureSet{Doors: features.Doors{
			&features.SwingDoor{Center: geometry.Pt(5, 5), Radius: 20, SwingAngle: 90},
			&features.LineDoor{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(0, 30)}, Length: 30},
			&features.SwingDoor{Center: geometry.Pt(5, 5)},
		}}},
		{Features: features.FeatureSet{Windows: []features.Window{window}}},
	}

	got, skipped := LiftOpenings(plans, cfg)
	want := Openings{
		&SwingDoorOpening{Center: geometry.Pt(5, 5), Radius: 20, Height: 2, BaseHeight: 0, Floor: 0},
		&DoorOpening{DoorType: "standard", Position: geometry.Pt(0, 0), Width: 30, Height: 2, Angle: 90, BaseHeight: 0, Floor: 0},
		&WindowOpening{Position: geometry.Pt(0, 0), Width: 100, Height: 50, SillHeight: 4, Floor: 1},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("openings mismatch (-want +got):\n%s", diff)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestReconstructInsufficientInput(t *testing.T) {
	r := NewReconstructor(DefaultConfig())
	if _, err := r.Reconstruct(nil, []Elevation{elevation(10)}); !errors.Is(err, ErrInsufficientInput) {
		t.Errorf("no plans: got %v, want ErrInsufficientInput", err)
	}
	if _, err := r.Reconstruct([]FloorPlan{rectanglePlan(0)}, nil); !errors.Is(err, ErrInsufficientInput) {
		t.Errorf("no elevations: got %v, want ErrInsufficientInput", err)
	}
}

func TestReconstruct(t *testing.T) {
	r := NewReconstructor(DefaultConfig())
	res, err := r.Reconstruct([]FloorPlan{rectanglePlan(0)}, []Elevation{elevation(9, 6)})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	m := res.Model

	if _, err := uuid.Parse(m.ID); err != nil {
		t.Errorf("model id %q is not a uuid: %v", m.ID, err)
	}
	if diff := cmp.Diff([]float64{0, 3}, m.Floors, approx); diff != "" {
		t.Errorf("floors mismatch (-want +got):\n%s", diff)
	}
	if len(m.Walls) != 4 {
		t.Fatalf("got %d walls, want 4", len(m.Walls))
	}
	for _, w := range m.Walls {
		if w.BaseHeight != 0 || w.Height != 3 || w.Thickness != 0.2 {
			t.Errorf("wall %+v not lifted to 0..3 at 0.2", w)
		}
	}
	if len(m.Outline.ExteriorWalls) != 1 || !m.Outline.ExteriorWalls[0].Closed {
		t.Errorf("outline = %+v", m.Outline)
	}

	wantRoof := Roof{Type: RoofFlat, Outline: m.Outline.ExteriorWalls, Height: 0.5, BaseHeight: 3}
	if diff := cmp.Diff(wantRoof, m.Roof, approx); diff != "" {
		t.Errorf("roof mismatch (-want +got):\n%s", diff)
	}
	if len(m.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", m.Warnings)
	}

	// four straight walls of 12 triangles plus a rectangular roof slab
	if res.Mesh.TriangleCount() != 4*12+12 {
		t.Errorf("mesh has %d triangles, want %d", res.Mesh.TriangleCount(), 4*12+12)
	}
	_, hi := res.Mesh.Bounds()
	if hi.Z != 3.5 {
		t.Errorf("mesh top at %g, want 3.5", hi.Z)
	}
}

func TestReconstructOrdersPlansByLevel(t *testing.T) {
	upper := FloorPlan{ImageID: "upper", Data: PlanData{Level: 1}, Features: features.FeatureSet{
		Walls: []features.Wall{wall(0, 0, 4, 0)},
	}}
	plans := []FloorPlan{upper, rectanglePlan(0)}

	res, err := NewReconstructor(DefaultConfig()).Reconstruct(plans, []Elevation{elevation(9, 6)})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	m := res.Model
	if len(m.Walls) != 5 {
		t.Fatalf("got %d walls, want 5", len(m.Walls))
	}
	last := m.Walls[4]
	if last.Floor != 1 || last.BaseHeight != 3 {
		t.Errorf("upper plan wall on floor %d at %g, want floor 1 at 3", last.Floor, last.BaseHeight)
	}
	// outline comes from the level 0 plan
	if b := geometry.BoundsOf(m.Outline.Ring()); b.MaxX != 10 {
		t.Errorf("outline bounds %v", b)
	}
	// the top plan has one wall and no rooms, so the roof has no footprint
	if len(m.Roof.Outline) != 0 || m.Roof.BaseHeight != 6 {
		t.Errorf("roof = %+v", m.Roof)
	}
	if len(m.Warnings) == 0 {
		t.Error("expected a roof warning")
	}
	if plans[0].ImageID != "upper" {
		t.Error("input plans were reordered")
	}
}

func TestReconstructGabledFallsBackToFlat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoofType = RoofGabled
	res, err := NewReconstructor(cfg).Reconstruct([]FloorPlan{rectanglePlan(0)}, []Elevation{elevation(9, 6)})
	if err != nil {
		t.Fatalf("Reconstruct failed: %v", err)
	}
	if res.Model.Roof.Type != RoofFlat {
		t.Errorf("roof type = %q, want flat", res.Model.Roof.Type)
	}
	found := false
	for _, w := range res.Model.Warnings {
		if w.Stage == "roof" {
			found = true
		}
	}
	if !found {
		t.Errorf("no roof warning in %+v", res.Model.Warnings)
	}
}

func TestBuildMeshFallsBackToSegmentBoxes(t *testing.T) {
	model := &BuildingModel{
		Walls: []Wall3D{{
			// crosses itself
			Points:    []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(10, 10), geometry.Pt(10, 0), geometry.Pt(0, 10)},
			Height:    3,
			Thickness: 0.2,
		}},
	}
	m, warnings := BuildMesh(model, DefaultConfig())
	if m.TriangleCount() != 3*12 {
		t.Errorf("got %d triangles, want %d", m.TriangleCount(), 3*12)
	}
	var msgs []string
	for _, w := range warnings {
		msgs = append(msgs, w.Message)
	}
	joined := strings.Join(msgs, "; ")
	if !strings.Contains(joined, "per-segment boxes") || !strings.Contains(joined, "no roof mesh") {
		t.Errorf("warnings = %q", joined)
	}
}

func TestBuildMeshOpenings(t *testing.T) {
	cfg := DefaultConfig()
	model := &BuildingModel{
		Openings: Openings{
			&WindowOpening{Position: geometry.Pt(0, 0), Width: 1, Height: 0.2, SillHeight: 1},
			&DoorOpening{DoorType: "standard", Position: geometry.Pt(0, 0), Width: 1, Height: 2, Angle: 90},
			&SwingDoorOpening{Center: geometry.Pt(3, 3), Radius: 0.9, Height: 2},
		},
		Roof: Roof{Outline: []ExteriorWall{{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(4, 0), geometry.Pt(4, 4)}}}, BaseHeight: 3, Height: 0.5},
	}
	m, warnings := BuildMesh(model, cfg)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", warnings)
	}
	// window box, door box, 16-sided cylinder, triangular roof slab
	want := 12 + 12 + 60 + (2 + 6)
	if m.TriangleCount() != want {
		t.Errorf("got %d triangles, want %d", m.TriangleCount(), want)
	}
}

func TestOpeningsJSON(t *testing.T) {
	in := Openings{
		&WindowOpening{Position: geometry.Pt(1, 2), Width: 3, Height: 4, SillHeight: 1, Floor: 0},
		&DoorOpening{DoorType: "double", Position: geometry.Pt(0, 0), Width: 90, Height: 2, Floor: 1},
		&SwingDoorOpening{Center: geometry.Pt(5, 5), Radius: 20, Height: 2, Floor: 2},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, frag := range []string{`"type":"window"`, `"door_type":"double"`, `"door_type":"swing"`, `"center":[5,5]`} {
		if !strings.Contains(string(data), frag) {
			t.Errorf("JSON %s missing %s", data, frag)
		}
	}

	var out Openings
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`[{"type":"skylight"}]`), &out); err == nil {
		t.Error("unknown opening type should fail")
	}
}

func TestFloorPlanJSONShape(t *testing.T) {
	input := `{
		"features": {
			"walls": [{"points": [[0,0],[10,0]], "length": 10}],
			"windows": [{"points": [[0,0],[1,0],[1,1],[0,1]], "width": 1, "height": 1}],
			"doors": [{"door_type": "swing", "center": [2,2], "radius": 0.9}],
			"rooms": [{"points": [[0,0],[10,0],[10,8]], "area": 40, "centroid": [6,2]}]
		},
		"floor_plan_data": {"level": 2}
	}`
	var plan FloorPlan
	if err := json.Unmarshal([]byte(input), &plan); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if plan.Data.Level != 2 || len(plan.Features.Walls) != 1 || len(plan.Features.Doors) != 1 || len(plan.Features.Rooms) != 1 {
		t.Errorf("decoded plan = %+v", plan)
	}
	if _, ok := plan.Features.Doors[0].(*features.SwingDoor); !ok {
		t.Errorf("door decoded as %T", plan.Features.Doors[0])
	}

	var elev Elevation
	if err := json.Unmarshal([]byte(`{"elevation_data": {"floor_levels": [{"y_position": 12.5, "points": [[0,12],[9,13]], "length": 9}]}}`), &elev); err != nil {
		t.Fatalf("Unmarshal elevation failed: %v", err)
	}
	if len(elev.Data.FloorLevels) != 1 || elev.Data.FloorLevels[0].YPosition != 12.5 {
		t.Errorf("decoded elevation = %+v", elev)
	}
}
