package detection

import (
	"image"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// Config holds every threshold the EdgeDetector uses.
type Config struct {
	Preprocess imaging.PreprocessOptions

	CannyLow       float64
	CannyHigh      float64
	SobelThreshold uint8
	HoughEdge      LineParams

	WallDilateRadius float64
	Wall             LineParams
	WallMinLength    float64 // kept when strictly longer

	WindowErodeRadius float64
	WindowEpsilon     float64 // fraction of the contour perimeter
	WindowMinAspect   float64
	WindowMaxAspect   float64
	WindowMinSide     float64
	WindowMaxSide     float64

	DoorCircle        CircleParams
	DoorLine          LineParams
	DoorMinLineLength float64
	DoorMaxLineLength float64

	// MaxDimension caps the longest raster side before detection; results
	// are mapped back to the input's pixel frame. 0 disables.
	MaxDimension int
}

// DefaultConfig returns the thresholds tuned for scanned plan drawings.
func DefaultConfig() Config {
	return Config{
		Preprocess: imaging.DefaultPreprocessOptions(),

		CannyLow:       50,
		CannyHigh:      150,
		SobelThreshold: 50,
		HoughEdge:      LineParams{Threshold: 100, MinLength: 100, MaxGap: 10},

		WallDilateRadius: 2,
		Wall:             LineParams{Threshold: 50, MinLength: 50, MaxGap: 10},
		WallMinLength:    50,

		WindowErodeRadius: 1,
		WindowEpsilon:     0.02,
		WindowMinAspect:   0.5,
		WindowMaxAspect:   4,
		WindowMinSide:     20,
		WindowMaxSide:     200,

		DoorCircle:        CircleParams{MinRadius: 10, MaxRadius: 30, MinDist: 20, EdgeHigh: 50, Threshold: 30},
		DoorLine:          LineParams{Threshold: 30, MinLength: 30, MaxGap: 5},
		DoorMinLineLength: 30,
		DoorMaxLineLength: 100,

		MaxDimension: 4000,
	}
}

// EdgeDetector turns a drawing into primitive hypotheses. It holds no
// mutable state and is safe for concurrent use.
type EdgeDetector struct {
	cfg     Config
	backend Backend
}

// NewEdgeDetector creates a detector. A nil backend selects the native one.
func NewEdgeDetector(cfg Config, backend Backend) *EdgeDetector {
	if backend == nil {
		backend = NewNativeBackend()
	}
	return &EdgeDetector{cfg: cfg, backend: backend}
}

// Backend returns the primitive-detection engine in use.
func (d *EdgeDetector) Backend() Backend {
	return d.backend
}

// Config returns the detector's thresholds.
func (d *EdgeDetector) Config() Config {
	return d.cfg
}

// prepare converts to grayscale and applies the size cap. The returned
// factor maps working coordinates back to input coordinates by division.
func (d *EdgeDetector) prepare(img image.Image) (*image.Gray, float64, error) {
	if err := imaging.Validate(img); err != nil {
		return nil, 0, err
	}
	fitted, factor := imaging.FitWithin(img, d.cfg.MaxDimension)
	g, err := imaging.ToGray(fitted)
	if err != nil {
		return nil, 0, err
	}
	return g, factor, nil
}

// Preprocess returns the binarized drawing (strokes = 255).
func (d *EdgeDetector) Preprocess(img image.Image) (*image.Gray, error) {
	g, _, err := d.prepare(img)
	if err != nil {
		return nil, err
	}
	return imaging.Preprocess(g, d.cfg.Preprocess)
}

// EdgeResult is the output of DetectEdges. Lines is only set for MethodHough.
type EdgeResult struct {
	Method Method
	Edges  *image.Gray
	Lines  []geometry.LineSegment
}

// DetectEdges preprocesses the drawing and runs the selected edge method.
func (d *EdgeDetector) DetectEdges(img image.Image, method Method) (*EdgeResult, error) {
	method, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	g, factor, err := d.prepare(img)
	if err != nil {
		return nil, err
	}
	binary, err := imaging.Preprocess(g, d.cfg.Preprocess)
	if err != nil {
		return nil, err
	}

	res := &EdgeResult{Method: method}
	switch method {
	case MethodCanny:
		res.Edges = imaging.Canny(binary, d.cfg.CannyLow, d.cfg.CannyHigh)
	case MethodSobel:
		res.Edges = imaging.Sobel(binary, d.cfg.SobelThreshold)
	case MethodHough:
		res.Edges = imaging.Canny(binary, d.cfg.CannyLow, d.cfg.CannyHigh)
		res.Lines = scaleSegments(d.backend.DetectLines(res.Edges, d.cfg.HoughEdge), factor)
	}
	return res, nil
}

// DetectArchitecturalElements preprocesses once and runs the requested
// element detectors. A kind with no hits is an empty slice, never an error.
func (d *EdgeDetector) DetectArchitecturalElements(img image.Image, kind ElementKind) (*Elements, error) {
	kind, err := ParseElementKind(string(kind))
	if err != nil {
		return nil, err
	}
	g, factor, err := d.prepare(img)
	if err != nil {
		return nil, err
	}
	binary, err := imaging.Preprocess(g, d.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	edges := imaging.Canny(binary, d.cfg.CannyLow, d.cfg.CannyHigh)

	out := &Elements{Kind: kind}
	var bridged *image.Gray
	if kind.includes(ElementWalls) || kind.includes(ElementWindows) {
		bridged = imaging.Dilate(edges, d.cfg.WallDilateRadius)
	}
	if kind.includes(ElementWalls) {
		out.Walls = d.detectWalls(bridged, factor)
	}
	if kind.includes(ElementWindows) {
		out.Windows = d.detectWindows(bridged, factor)
	}
	if kind.includes(ElementDoors) {
		out.Doors = d.detectDoors(edges, binary, factor)
	}
	return out, nil
}

// houghLines runs the line detector on the Canny edges of src.
func (d *EdgeDetector) houghLines(src *image.Gray, p LineParams) []geometry.LineSegment {
	return d.backend.DetectLines(imaging.Canny(src, d.cfg.CannyLow, d.cfg.CannyHigh), p)
}

func (d *EdgeDetector) detectWalls(bridged *image.Gray, factor float64) []WallCandidate {
	walls := make([]WallCandidate, 0)
	for _, s := range d.houghLines(bridged, d.cfg.Wall) {
		if s.Length() > d.cfg.WallMinLength {
			s = scaleSegment(s, factor)
			walls = append(walls, WallCandidate{Points: s.Points(), Length: s.Length()})
		}
	}
	return walls
}

// detectWindows looks for closed 4-vertex outlines. Thin Canny edges do not
// survive erosion on their own, so the erosion runs on the bridged edge map.
func (d *EdgeDetector) detectWindows(bridged *image.Gray, factor float64) []WindowCandidate {
	eroded := imaging.Erode(bridged, d.cfg.WindowErodeRadius)
	windows := make([]WindowCandidate, 0)
	for _, contour := range d.backend.DetectContours(eroded) {
		approx := geometry.ApproxPolygon(contour, d.cfg.WindowEpsilon*geometry.Perimeter(contour))
		if len(approx) != 4 {
			continue
		}
		b := geometry.BoundsOf(approx)
		// pixel-inclusive extent
		w := b.Width() + 1
		h := b.Height() + 1
		aspect := w / h
		if aspect <= d.cfg.WindowMinAspect || aspect >= d.cfg.WindowMaxAspect {
			continue
		}
		if w <= d.cfg.WindowMinSide || w >= d.cfg.WindowMaxSide || h <= d.cfg.WindowMinSide || h >= d.cfg.WindowMaxSide {
			continue
		}
		x, y := b.MinX/factor, b.MinY/factor
		w, h = w/factor, h/factor
		windows = append(windows, WindowCandidate{
			Points: []geometry.Point2D{
				geometry.Pt(x, y), geometry.Pt(x+w, y), geometry.Pt(x+w, y+h), geometry.Pt(x, y+h),
			},
			Width:  w,
			Height: h,
		})
	}
	return windows
}

// detectDoors merges arc and short-line hypotheses without correlating them.
func (d *EdgeDetector) detectDoors(edges, binary *image.Gray, factor float64) DoorCandidates {
	doors := make(DoorCandidates, 0)
	for _, c := range d.backend.DetectCircles(binary, d.cfg.DoorCircle) {
		doors = append(doors, &DoorArc{
			Center: c.Center.Scale(1 / factor),
			Radius: c.Radius / factor,
		})
	}
	for _, s := range d.houghLines(edges, d.cfg.DoorLine) {
		length := s.Length()
		if length > d.cfg.DoorMinLineLength && length < d.cfg.DoorMaxLineLength {
			s = scaleSegment(s, factor)
			doors = append(doors, &DoorLine{Points: s.Points(), Length: s.Length(), Angle: s.Heading()})
		}
	}
	return doors
}

func scaleSegment(s geometry.LineSegment, factor float64) geometry.LineSegment {
	if factor == 1 {
		return s
	}
	return geometry.LineSegment{A: s.A.Scale(1 / factor), B: s.B.Scale(1 / factor)}
}

func scaleSegments(segs []geometry.LineSegment, factor float64) []geometry.LineSegment {
	out := make([]geometry.LineSegment, len(segs))
	for i, s := range segs {
		out[i] = scaleSegment(s, factor)
	}
	return out
}
