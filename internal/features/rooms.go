package features

import (
	"errors"
	"image"
	"image/color"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// ExtractRooms segments the free space between walls into rooms.
//
// Walls are rasterised as WallStroke-wide strokes on a width x height mask
// and handed to the backend's SegmentRegions. Regions touching the image
// border are open exterior when DropBorderRegions is set. Each remaining
// region's outline is its largest contour; regions whose outline encloses
// no more than MinRoomArea are noise. Rooms keep the segmentation label
// and come back in label order.
func (e *FeatureExtractor) ExtractRooms(width, height int, walls []Wall) ([]Room, error) {
	mask := RasterizeWalls(width, height, walls, e.cfg.WallStroke)
	regions, err := e.backend.SegmentRegions(mask, e.cfg.Segment)
	if err != nil {
		return nil, err
	}

	rooms := make([]Room, 0)
	for l := int32(1); l <= int32(regions.Count); l++ {
		if float64(regions.Area(l)) <= e.cfg.MinRoomArea {
			continue
		}
		if e.cfg.DropBorderRegions && regions.TouchesBorder(l) {
			continue
		}

		var outline []geometry.Point2D
		best := 0.0
		for _, c := range e.backend.DetectContours(regions.Mask(l)) {
			if a := geometry.PolygonArea(c); a > best {
				best, outline = a, c
			}
		}
		if best <= e.cfg.MinRoomArea {
			continue
		}
		centroid, err := geometry.PolygonCentroid(outline)
		if errors.Is(err, geometry.ErrDegenerateGeometry) {
			continue
		}

		if e.cfg.RoomSimplify > 0 {
			outline = geometry.ApproxPolygon(outline, e.cfg.RoomSimplify)
		}
		rooms = append(rooms, Room{
			Points:   outline,
			Area:     best,
			Centroid: centroid,
			Label:    int(l),
		})
	}
	return rooms, nil
}

// RasterizeWalls draws every wall polyline onto a black mask in white.
func RasterizeWalls(width, height int, walls []Wall, stroke int) *image.Gray {
	mask := imaging.NewMask(width, height)
	white := color.Gray{Y: 255}
	for _, w := range walls {
		for i := 1; i < len(w.Points); i++ {
			a, b := w.Points[i-1], w.Points[i]
			imaging.DrawLine(mask, imaging.RoundPoint(a.X, a.Y), imaging.RoundPoint(b.X, b.Y), stroke, white)
		}
	}
	return mask
}
