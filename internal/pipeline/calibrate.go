package pipeline

import (
	"fmt"
	"math"

	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/ocr"
	"github.com/ironsheep/building-recon-mcp/internal/scale"
)

// Reference is a dimension label paired with the wall it measures.
type Reference struct {
	Label    ocr.DimensionLabel   `json:"label"`
	Wall     geometry.LineSegment `json:"-"`
	Distance float64              `json:"distance"`
}

// maxLabelDistance is how far, in label heights, a wall may be from the
// label that measures it.
const maxLabelDistance = 4.0

// PairLabel walks labels in order and returns the first one with a wall
// within reach of its centre, together with the nearest such wall.
func PairLabel(labels []ocr.DimensionLabel, walls []geometry.LineSegment) (Reference, error) {
	for _, l := range labels {
		c := l.Bounds.Center()
		reach := maxLabelDistance * math.Max(l.Bounds.Height(), 1)
		best, bestDist := -1, math.Inf(1)
		for i, w := range walls {
			if w.Length() == 0 {
				continue
			}
			if d := w.DistanceToPoint(c); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 && bestDist <= reach {
			return Reference{Label: l, Wall: walls[best], Distance: bestDist}, nil
		}
	}
	return Reference{}, ErrNoReference
}

// AutoCalibrate reads the dimension labels of a plan, pairs the most
// confident label that sits next to a wall with that wall, and stores the
// resulting calibration under the image id.
func (p *Pipeline) AutoCalibrate(src Source) (*scale.Calibration, *Reference, error) {
	img, id, err := p.resolve(src)
	if err != nil {
		return nil, nil, err
	}

	labels, err := p.reader.ReadDimensionLabels(img)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read labels: %w", err)
	}
	els, err := p.detector.DetectArchitecturalElements(img, detection.ElementWalls)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to detect walls: %w", err)
	}
	walls := make([]geometry.LineSegment, len(els.Walls))
	for i, w := range els.Walls {
		walls[i] = w.Segment()
	}

	ref, err := PairLabel(labels, walls)
	if err != nil {
		return nil, nil, fmt.Errorf("%w (%d labels, %d walls)", err, len(labels), len(walls))
	}
	c, err := scale.NewCalibration(id, ref.Wall.Length(), ref.Label.Value, ref.Label.Unit)
	if err != nil {
		return nil, nil, err
	}
	if err := p.scales.Set(c); err != nil {
		return nil, nil, err
	}
	return c, &ref, nil
}
