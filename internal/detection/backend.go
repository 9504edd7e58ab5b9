package detection

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// LineParams configures probabilistic Hough line detection.
type LineParams struct {
	Threshold int     // minimum accumulator votes
	MinLength float64 // shortest segment kept
	MaxGap    float64 // largest gap bridged along a segment
}

// CircleParams configures circle Hough detection.
type CircleParams struct {
	MinRadius int
	MaxRadius int
	MinDist   float64 // minimum distance between accepted centres
	EdgeHigh  float64 // upper Canny threshold used on the input; lower is half
	Threshold int     // minimum accumulator votes for a centre
}

// CircleHit is one detected circle.
type CircleHit struct {
	Center geometry.Point2D
	Radius float64
	Votes  int
}

// SegmentParams configures region segmentation.
type SegmentParams struct {
	// CloseRadius bridges small gaps in the barrier mask before flooding.
	CloseRadius float64

	// PeakFraction of the maximum distance above which pixels seed regions.
	PeakFraction float64

	// LabelUnseeded gives free-space pockets that received no seed a label
	// of their own instead of leaving them unlabelled.
	LabelUnseeded bool
}

// Backend is the primitive-detection engine behind the EdgeDetector and the
// room segmentation. Implementations must be safe for concurrent use and
// must not modify their inputs.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// DetectLines finds straight segments in a binary edge map.
	DetectLines(edges *image.Gray, p LineParams) []geometry.LineSegment

	// DetectCircles finds circles in a grayscale or binary raster.
	DetectCircles(img *image.Gray, p CircleParams) []CircleHit

	// DetectContours returns the outer boundary of every foreground blob,
	// as ordered pixel coordinates.
	DetectContours(binary *image.Gray) [][]geometry.Point2D

	// SegmentRegions floods the free space of a barrier mask (255 = barrier)
	// and returns one label per enclosed region.
	SegmentRegions(barriers *image.Gray, p SegmentParams) (*Regions, error)
}

// Regions is a label map produced by SegmentRegions. Label 0 marks barriers
// and unlabelled pixels; regions are numbered from 1.
type Regions struct {
	Width  int
	Height int
	Labels []int32
	Count  int
}

// At returns the label of pixel (x, y).
func (r *Regions) At(x, y int) int32 {
	return r.Labels[y*r.Width+x]
}

// Mask returns a binary raster of one region.
func (r *Regions) Mask(label int32) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for i, l := range r.Labels {
		if l == label {
			m.Pix[i] = 255
		}
	}
	return m
}

// Area returns the pixel count of one region.
func (r *Regions) Area(label int32) int {
	n := 0
	for _, l := range r.Labels {
		if l == label {
			n++
		}
	}
	return n
}

// TouchesBorder reports whether the region reaches the image edge, which
// marks it as open exterior space rather than an enclosed room.
func (r *Regions) TouchesBorder(label int32) bool {
	for x := 0; x < r.Width; x++ {
		if r.Labels[x] == label || r.Labels[(r.Height-1)*r.Width+x] == label {
			return true
		}
	}
	for y := 0; y < r.Height; y++ {
		if r.Labels[y*r.Width] == label || r.Labels[y*r.Width+r.Width-1] == label {
			return true
		}
	}
	return false
}

// NativeBackend is the pure-Go Backend.
type NativeBackend struct{}

// NewNativeBackend returns the pure-Go Backend.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{}
}

// Name implements Backend.
func (*NativeBackend) Name() string { return "native" }

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Backend{
		"native": func() Backend { return NewNativeBackend() },
	}
)

// registerBackend makes an optional backend selectable by name.
func registerBackend(name string, factory func() Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewBackend returns the backend registered under name. An empty name
// selects the native backend.
func NewBackend(name string) (Backend, error) {
	if name == "" {
		name = "native"
	}
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown detection backend %q (available: %v)", name, BackendNames())
	}
	return factory(), nil
}

// BackendNames lists the registered backends in sorted order.
func BackendNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
