package features

import (
	"errors"
	"image"
	"log"

	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// Config holds the feature extraction thresholds. All lengths are pixels.
type Config struct {
	ThicknessSamples int
	ThicknessReach   int
	ThicknessLevel   uint8
	DefaultThickness float64

	HorizontalWindowAspect float64
	VerticalWindowAspect   float64
	PictureWindowArea      float64

	SwingAngle       float64
	DoubleDoorLength float64

	WallStroke        int
	Segment           detection.SegmentParams
	MinRoomArea       float64
	DropBorderRegions bool
	RoomSimplify      float64 // Douglas-Peucker tolerance for room outlines

	RoomConnectionDistance float64

	FloorLevelCannyLow  float64
	FloorLevelCannyHigh float64
	FloorLevelLines     detection.LineParams
	FloorLevelMaxTilt   float64 // degrees from horizontal
}

// DefaultConfig returns the thresholds used for scanned plans.
func DefaultConfig() Config {
	return Config{
		ThicknessSamples: 5,
		ThicknessReach:   20,
		ThicknessLevel:   128,
		DefaultThickness: 1.0,

		HorizontalWindowAspect: 2,
		VerticalWindowAspect:   0.5,
		PictureWindowArea:      10000,

		SwingAngle:       90,
		DoubleDoorLength: 80,

		WallStroke:        2,
		Segment:           detection.SegmentParams{CloseRadius: 2, PeakFraction: 0.5, LabelUnseeded: true},
		MinRoomArea:       1000,
		DropBorderRegions: true,
		RoomSimplify:      1,

		RoomConnectionDistance: 200,

		FloorLevelCannyLow:  50,
		FloorLevelCannyHigh: 150,
		FloorLevelLines:     detection.LineParams{Threshold: 50, MinLength: 100, MaxGap: 10},
		FloorLevelMaxTilt:   10,
	}
}

// FeatureExtractor enriches detection candidates. It is safe for concurrent use.
type FeatureExtractor struct {
	cfg     Config
	backend detection.Backend
}

// NewFeatureExtractor returns an extractor; a nil backend selects the native one.
func NewFeatureExtractor(cfg Config, backend detection.Backend) *FeatureExtractor {
	if backend == nil {
		backend = detection.NewNativeBackend()
	}
	return &FeatureExtractor{cfg: cfg, backend: backend}
}

// Config returns the thresholds in use.
func (e *FeatureExtractor) Config() Config {
	return e.cfg
}

// ExtractFeatures classifies the candidates found on img. Candidates with
// zero extent are skipped. Rooms are segmented from the wall layout, so a
// plan without walls has no rooms. The result is in pixels.
func (e *FeatureExtractor) ExtractFeatures(img image.Image, els *detection.Elements) (*FeatureSet, error) {
	g, err := imaging.ToGray(img)
	if err != nil {
		return nil, err
	}
	if els == nil {
		els = &detection.Elements{}
	}

	fs := &FeatureSet{
		Walls:   make([]Wall, 0, len(els.Walls)),
		Windows: make([]Window, 0, len(els.Windows)),
		Doors:   make(Doors, 0, len(els.Doors)),
		Rooms:   []Room{},
		Unit:    units.Pixels,
	}
	skipped := 0

	for _, c := range els.Walls {
		w, err := e.Wall(g, c.Segment())
		if err != nil {
			skipped++
			continue
		}
		fs.Walls = append(fs.Walls, w)
	}

	for _, c := range els.Windows {
		w, err := NewWindow(c.Points, c.Width, c.Height, e.cfg)
		if err != nil {
			skipped++
			continue
		}
		fs.Windows = append(fs.Windows, w)
	}

	for _, c := range els.Doors {
		d, err := e.Door(c)
		if err != nil {
			skipped++
			continue
		}
		fs.Doors = append(fs.Doors, d)
	}

	if len(fs.Walls) > 0 {
		rooms, err := e.ExtractRooms(g.Bounds().Dx(), g.Bounds().Dy(), fs.Walls)
		if err != nil {
			return nil, err
		}
		fs.Rooms = rooms
	}

	if skipped > 0 {
		log.Printf("features: skipped %d degenerate candidates", skipped)
	}
	return fs, nil
}

// Wall measures a wall segment on the drawing.
func (e *FeatureExtractor) Wall(g *image.Gray, seg geometry.LineSegment) (Wall, error) {
	length := seg.Length()
	if length == 0 {
		return Wall{}, geometry.ErrDegenerateGeometry
	}
	angle := seg.Angle()
	return Wall{
		Points:      seg.Points(),
		Length:      length,
		Thickness:   EstimateThickness(g, seg, e.cfg),
		Angle:       angle,
		Orientation: ClassifyOrientation(angle),
	}, nil
}

// Door converts a door candidate. Arcs become swing doors with the
// configured swing angle; the angle is not measured.
func (e *FeatureExtractor) Door(c detection.DoorCandidate) (Door, error) {
	switch v := c.(type) {
	case *detection.DoorArc:
		if v.Radius <= 0 {
			return nil, geometry.ErrDegenerateGeometry
		}
		return &SwingDoor{Center: v.Center, Radius: v.Radius, SwingAngle: e.cfg.SwingAngle}, nil
	case *detection.DoorLine:
		if v.Length <= 0 || len(v.Points) < 2 {
			return nil, geometry.ErrDegenerateGeometry
		}
		return &LineDoor{
			Points: append([]geometry.Point2D(nil), v.Points...),
			Length: v.Length,
			Angle:  v.Angle,
			Kind:   ClassifyLineDoor(v.Length, e.cfg),
		}, nil
	}
	return nil, errors.New("unknown door candidate")
}
