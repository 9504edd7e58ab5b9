package reconstruct

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// PlanData is the per-plan metadata that travels with its features.
type PlanData struct {
	Level           int                       `json:"level"`
	RoomConnections []features.RoomConnection `json:"room_connections,omitempty"`
}

// FloorPlan is one processed floor plan.
type FloorPlan struct {
	ImageID  string              `json:"image_id,omitempty"`
	Features features.FeatureSet `json:"features"`
	Data     PlanData            `json:"floor_plan_data"`
}

// ElevationData is what reconstruction reads from an elevation drawing.
type ElevationData struct {
	FloorLevels []features.FloorLevel `json:"floor_levels"`
	Orientation string                `json:"orientation,omitempty"`
}

// Elevation is one processed elevation drawing.
type Elevation struct {
	ImageID string        `json:"image_id,omitempty"`
	Data    ElevationData `json:"elevation_data"`
}

// ExteriorWall is a closed perimeter loop.
type ExteriorWall struct {
	Type   string             `json:"type"`
	Points []geometry.Point2D `json:"points"`
	Closed bool               `json:"closed"`
}

// Outline is the building footprint. An unavailable outline has no
// exterior walls.
type Outline struct {
	ExteriorWalls []ExteriorWall `json:"exterior_walls"`
	Level         int            `json:"level"`
}

// Ring returns the first exterior loop, or nil.
func (o Outline) Ring() []geometry.Point2D {
	if len(o.ExteriorWalls) == 0 {
		return nil
	}
	return o.ExteriorWalls[0].Points
}

// Wall3D is a plan wall lifted to its floor.
type Wall3D struct {
	Points     []geometry.Point2D `json:"points"`
	Height     float64            `json:"height"`
	BaseHeight float64            `json:"base_height"`
	Thickness  float64            `json:"thickness"`
	Floor      int                `json:"floor"`
}

// Opening is one of *WindowOpening, *DoorOpening or *SwingDoorOpening.
type Opening interface {
	// OpeningType is the JSON "type": window or door.
	OpeningType() string
	// FloorIndex is the floor the opening sits on.
	FloorIndex() int
	isOpening()
}

// WindowOpening is a window box. Position is the minimum corner of the
// plan rectangle; Width and Height are its plan extents.
type WindowOpening struct {
	Position   geometry.Point2D `json:"position"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	SillHeight float64          `json:"sill_height"`
	Floor      int              `json:"floor"`
}

// DoorOpening is a door drawn as a leaf line from Position at Angle degrees.
type DoorOpening struct {
	DoorType   string           `json:"door_type"`
	Position   geometry.Point2D `json:"position"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Angle      float64          `json:"angle"`
	BaseHeight float64          `json:"base_height"`
	Floor      int              `json:"floor"`
}

// SwingDoorOpening is a door drawn as a swing arc.
type SwingDoorOpening struct {
	Center     geometry.Point2D `json:"center"`
	Radius     float64          `json:"radius"`
	Height     float64          `json:"height"`
	BaseHeight float64          `json:"base_height"`
	Floor      int              `json:"floor"`
}

func (*WindowOpening) OpeningType() string    { return "window" }
func (*DoorOpening) OpeningType() string      { return "door" }
func (*SwingDoorOpening) OpeningType() string { return "door" }

func (o *WindowOpening) FloorIndex() int    { return o.Floor }
func (o *DoorOpening) FloorIndex() int      { return o.Floor }
func (o *SwingDoorOpening) FloorIndex() int { return o.Floor }

func (*WindowOpening) isOpening()    {}
func (*DoorOpening) isOpening()      {}
func (*SwingDoorOpening) isOpening() {}

// Openings carries the JSON form of the opening variants. Each entry gets a
// "type" and doors also a "door_type".
type Openings []Opening

// MarshalJSON implements json.Marshaler.
func (o Openings) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(o))
	for _, op := range o {
		switch v := op.(type) {
		case *WindowOpening:
			out = append(out, struct {
				Type string `json:"type"`
				*WindowOpening
			}{v.OpeningType(), v})
		case *DoorOpening:
			out = append(out, struct {
				Type string `json:"type"`
				*DoorOpening
			}{v.OpeningType(), v})
		case *SwingDoorOpening:
			out = append(out, struct {
				Type     string `json:"type"`
				DoorType string `json:"door_type"`
				*SwingDoorOpening
			}{v.OpeningType(), "swing", v})
		default:
			return nil, fmt.Errorf("unknown opening %T", op)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Openings) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Openings, 0, len(raw))
	for _, r := range raw {
		var tag struct {
			Type     string `json:"type"`
			DoorType string `json:"door_type"`
		}
		if err := json.Unmarshal(r, &tag); err != nil {
			return err
		}
		var op Opening
		switch {
		case tag.Type == "window":
			op = &WindowOpening{}
		case tag.Type == "door" && tag.DoorType == "swing":
			op = &SwingDoorOpening{}
		case tag.Type == "door":
			op = &DoorOpening{}
		default:
			return fmt.Errorf("unknown opening type %q", tag.Type)
		}
		if err := json.Unmarshal(r, op); err != nil {
			return err
		}
		out = append(out, op)
	}
	*o = out
	return nil
}

// RoofType names a roof shape.
type RoofType string

// Roof types.
const (
	RoofFlat   RoofType = "flat"
	RoofGabled RoofType = "gabled"
)

// Roof is a slab over the outline. BaseHeight is the top of the highest
// floor's walls and Height the slab thickness above it.
type Roof struct {
	Type       RoofType       `json:"type"`
	Outline    []ExteriorWall `json:"outline"`
	Height     float64        `json:"height"`
	BaseHeight float64        `json:"base_height"`
}

// Warning records a recoverable degradation during reconstruction.
type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// BuildingModel is the reconstructed building.
type BuildingModel struct {
	ID       string     `json:"id"`
	Unit     units.Unit `json:"unit,omitempty"`
	Outline  Outline    `json:"outline"`
	Floors   []float64  `json:"floors"`
	Walls    []Wall3D   `json:"walls"`
	Openings Openings   `json:"openings"`
	Roof     Roof       `json:"roof"`
	Warnings []Warning  `json:"warnings,omitempty"`
}
