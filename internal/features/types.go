package features

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// Orientation tags a wall by its angle.
type Orientation string

// Orientations.
const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
	Diagonal   Orientation = "diagonal"
)

// Wall is a straight or polyline wall. Thickness 0 means unspecified.
type Wall struct {
	Points      []geometry.Point2D `json:"points"`
	Length      float64            `json:"length"`
	Thickness   float64            `json:"thickness,omitempty"`
	Angle       float64            `json:"angle"`
	Orientation Orientation        `json:"orientation,omitempty"`
}

// WindowKind is the window subtype.
type WindowKind string

// Window kinds.
const (
	WindowStandard   WindowKind = "standard"
	WindowHorizontal WindowKind = "horizontal"
	WindowVertical   WindowKind = "vertical"
	WindowPicture    WindowKind = "picture"
)

// Window is an axis-aligned rectangle.
type Window struct {
	Points      []geometry.Point2D `json:"points"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	Area        float64            `json:"area"`
	AspectRatio float64            `json:"aspect_ratio"`
	Kind        WindowKind         `json:"window_type"`
}

// Door is either a *SwingDoor or a *LineDoor.
type Door interface {
	// DoorType is the JSON discriminator: swing, standard or double.
	DoorType() string
	isDoor()
}

// SwingDoor is a door drawn as a swing arc.
type SwingDoor struct {
	Center     geometry.Point2D `json:"center"`
	Radius     float64          `json:"radius"`
	SwingAngle float64          `json:"swing_angle"`
}

// LineDoorKind is the subtype of a door drawn as a leaf line.
type LineDoorKind string

// Line door kinds.
const (
	DoorStandard LineDoorKind = "standard"
	DoorDouble   LineDoorKind = "double"
)

// LineDoor is a door drawn as a straight leaf.
type LineDoor struct {
	Points []geometry.Point2D `json:"points"`
	Length float64            `json:"length"`
	Angle  float64            `json:"angle"`
	Kind   LineDoorKind       `json:"-"`
}

// DoorType implements Door.
func (*SwingDoor) DoorType() string { return "swing" }

// DoorType implements Door. An unset kind reads as standard.
func (d *LineDoor) DoorType() string {
	if d.Kind == "" {
		return string(DoorStandard)
	}
	return string(d.Kind)
}

func (*SwingDoor) isDoor() {}
func (*LineDoor) isDoor()  {}

// Doors carries the JSON form of the door variants, discriminated by "door_type".
type Doors []Door

// MarshalJSON implements json.Marshaler.
func (d Doors) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(d))
	for _, door := range d {
		switch v := door.(type) {
		case *SwingDoor:
			out = append(out, struct {
				DoorType string `json:"door_type"`
				*SwingDoor
			}{v.DoorType(), v})
		case *LineDoor:
			out = append(out, struct {
				DoorType string `json:"door_type"`
				*LineDoor
			}{v.DoorType(), v})
		default:
			return nil, fmt.Errorf("unknown door %T", door)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown door types are an error.
func (d *Doors) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Doors, 0, len(raw))
	for _, r := range raw {
		var tag struct {
			DoorType string `json:"door_type"`
		}
		if err := json.Unmarshal(r, &tag); err != nil {
			return err
		}
		switch tag.DoorType {
		case "swing":
			var s SwingDoor
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			out = append(out, &s)
		case string(DoorStandard), string(DoorDouble):
			var l LineDoor
			if err := json.Unmarshal(r, &l); err != nil {
				return err
			}
			l.Kind = LineDoorKind(tag.DoorType)
			out = append(out, &l)
		default:
			return fmt.Errorf("unknown door_type %q", tag.DoorType)
		}
	}
	*d = out
	return nil
}

// Room is an enclosed region of the plan.
type Room struct {
	Points   []geometry.Point2D `json:"points"`
	Area     float64            `json:"area"`
	Centroid geometry.Point2D   `json:"centroid"`
	Label    int                `json:"label"`
}

// FloorLevel is a horizontal line on an elevation drawing.
type FloorLevel struct {
	YPosition float64            `json:"y_position"`
	Points    []geometry.Point2D `json:"points"`
	Length    float64            `json:"length"`
}

// FeatureSet is everything extracted from one plan image.
type FeatureSet struct {
	Walls   []Wall     `json:"walls"`
	Windows []Window   `json:"windows"`
	Doors   Doors      `json:"doors"`
	Rooms   []Room     `json:"rooms"`
	Unit    units.Unit `json:"unit,omitempty"`
}

// RoomConnection links two rooms whose centroids are close.
type RoomConnection struct {
	Room1     int              `json:"room1_id"`
	Room2     int              `json:"room2_id"`
	Connected bool             `json:"connected"`
	Distance  float64          `json:"distance"`
	Midpoint  geometry.Point2D `json:"midpoint"`
	Unit      units.Unit       `json:"unit,omitempty"`
}
