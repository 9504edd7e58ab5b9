package features

import (
	"image"
	"sort"

	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// DetectFloorLevels finds the near-horizontal lines of an elevation
// drawing. Lines are detected on the Canny edges of the raw grayscale image
// and kept when within FloorLevelMaxTilt degrees of horizontal. YPosition
// is the mean endpoint y. Levels are sorted top to bottom.
func (e *FeatureExtractor) DetectFloorLevels(img image.Image) ([]FloorLevel, error) {
	g, err := imaging.ToGray(img)
	if err != nil {
		return nil, err
	}
	edges := imaging.Canny(g, e.cfg.FloorLevelCannyLow, e.cfg.FloorLevelCannyHigh)

	levels := make([]FloorLevel, 0)
	for _, s := range e.backend.DetectLines(edges, e.cfg.FloorLevelLines) {
		a := s.Angle()
		if a >= e.cfg.FloorLevelMaxTilt && a <= 180-e.cfg.FloorLevelMaxTilt {
			continue
		}
		levels = append(levels, FloorLevel{
			YPosition: (s.A.Y + s.B.Y) / 2,
			Points:    s.Points(),
			Length:    s.Length(),
		})
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].YPosition < levels[j].YPosition
	})
	return levels, nil
}
