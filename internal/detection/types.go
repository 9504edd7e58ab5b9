package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

var (
	// ErrUnsupportedMethod is returned for unknown edge detection methods.
	ErrUnsupportedMethod = errors.New("unsupported edge detection method")

	// ErrUnsupportedElement is returned for unknown architectural element kinds.
	ErrUnsupportedElement = errors.New("unsupported element type")
)

// Method selects an edge detection algorithm.
type Method string

// Supported edge detection methods.
const (
	MethodCanny Method = "canny"
	MethodSobel Method = "sobel"
	MethodHough Method = "hough"
)

// ParseMethod maps a method name to a Method. Empty means canny.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MethodCanny, nil
	case MethodCanny, MethodSobel, MethodHough:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// ElementKind selects which architectural elements to detect.
type ElementKind string

// Element kinds.
const (
	ElementAll     ElementKind = "all"
	ElementWalls   ElementKind = "walls"
	ElementWindows ElementKind = "windows"
	ElementDoors   ElementKind = "doors"
)

// ParseElementKind maps a name to an ElementKind. Empty means all.
func ParseElementKind(s string) (ElementKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ElementAll, nil
	}
	switch k := ElementKind(s); k {
	case ElementAll, ElementWalls, ElementWindows, ElementDoors:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedElement, s)
}

func (k ElementKind) includes(other ElementKind) bool {
	return k == ElementAll || k == other
}

// WallCandidate is a straight stroke long enough to be a wall.
type WallCandidate struct {
	Points []geometry.Point2D `json:"points"`
	Length float64            `json:"length"`
}

// Segment returns the candidate as a LineSegment.
func (w WallCandidate) Segment() geometry.LineSegment {
	return geometry.LineSegment{A: w.Points[0], B: w.Points[len(w.Points)-1]}
}

// WindowCandidate is an axis-aligned rectangle found from a 4-vertex contour.
type WindowCandidate struct {
	Points []geometry.Point2D `json:"points"`
	Width  float64            `json:"width"`
	Height float64            `json:"height"`
}

// DoorCandidate is either a DoorArc or a DoorLine.
type DoorCandidate interface {
	isDoorCandidate()
}

// DoorArc is a circle-Hough hit: a likely door swing.
type DoorArc struct {
	Center geometry.Point2D `json:"center"`
	Radius float64          `json:"radius"`
}

// DoorLine is a short straight stroke: a likely door leaf.
type DoorLine struct {
	Points []geometry.Point2D `json:"points"`
	Length float64            `json:"length"`
	Angle  float64            `json:"angle"`
}

func (*DoorArc) isDoorCandidate()  {}
func (*DoorLine) isDoorCandidate() {}

// DoorCandidates carries the JSON form of the door variants, discriminated by "type".
type DoorCandidates []DoorCandidate

// MarshalJSON tags each candidate with "door_arc" or "door_line".
func (d DoorCandidates) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(d))
	for _, c := range d {
		switch v := c.(type) {
		case *DoorArc:
			out = append(out, struct {
				Type string `json:"type"`
				*DoorArc
			}{"door_arc", v})
		case *DoorLine:
			out = append(out, struct {
				Type string `json:"type"`
				*DoorLine
			}{"door_line", v})
		default:
			return nil, fmt.Errorf("unknown door candidate %T", c)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads candidates written by MarshalJSON.
func (d *DoorCandidates) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(DoorCandidates, 0, len(raw))
	for _, r := range raw {
		var tag struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(r, &tag); err != nil {
			return err
		}
		switch tag.Type {
		case "door_arc":
			var a DoorArc
			if err := json.Unmarshal(r, &a); err != nil {
				return err
			}
			out = append(out, &a)
		case "door_line":
			var l DoorLine
			if err := json.Unmarshal(r, &l); err != nil {
				return err
			}
			out = append(out, &l)
		default:
			return fmt.Errorf("unknown door candidate type %q", tag.Type)
		}
	}
	*d = out
	return nil
}

// Elements is the result of DetectArchitecturalElements. Only the requested
// kinds are populated; each requested kind is a non-nil, possibly empty slice.
type Elements struct {
	Kind    ElementKind
	Walls   []WallCandidate
	Windows []WindowCandidate
	Doors   DoorCandidates
}

// MarshalJSON emits one key per requested kind.
func (e Elements) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	kind := e.Kind
	if kind == "" {
		kind = ElementAll
	}
	if kind.includes(ElementWalls) {
		m["walls"] = nonNil(e.Walls)
	}
	if kind.includes(ElementWindows) {
		m["windows"] = nonNil(e.Windows)
	}
	if kind.includes(ElementDoors) {
		if e.Doors == nil {
			m["doors"] = DoorCandidates{}
		} else {
			m["doors"] = e.Doors
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads whichever kinds are present.
func (e *Elements) UnmarshalJSON(data []byte) error {
	var raw struct {
		Walls   *[]WallCandidate   `json:"walls"`
		Windows *[]WindowCandidate `json:"windows"`
		Doors   *DoorCandidates    `json:"doors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	present := 0
	*e = Elements{}
	if raw.Walls != nil {
		e.Walls = *raw.Walls
		e.Kind = ElementWalls
		present++
	}
	if raw.Windows != nil {
		e.Windows = *raw.Windows
		e.Kind = ElementWindows
		present++
	}
	if raw.Doors != nil {
		e.Doors = *raw.Doors
		e.Kind = ElementDoors
		present++
	}
	if present != 1 {
		e.Kind = ElementAll
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
