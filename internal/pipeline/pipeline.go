// Package pipeline runs plans and elevations through detection, feature
// extraction and scaling, and hands the results to reconstruction.
//
// A Pipeline is safe for concurrent use. Its only shared state is the image
// cache and the calibration context, both of which lock internally.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/building-recon-mcp/internal/config"
	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
	"github.com/ironsheep/building-recon-mcp/internal/ocr"
	"github.com/ironsheep/building-recon-mcp/internal/reconstruct"
	"github.com/ironsheep/building-recon-mcp/internal/scale"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// Pipeline wires the processing stages together.
type Pipeline struct {
	cfg           *config.Config
	cache         *imaging.ImageCache
	scales        *scale.Context
	detector      *detection.EdgeDetector
	extractor     *features.FeatureExtractor
	reconstructor *reconstruct.Reconstructor
	reader        *ocr.Reader
}

// New builds a pipeline from a validated config. A nil cache or scale
// context gets a fresh one.
func New(cfg *config.Config, cache *imaging.ImageCache, scales *scale.Context) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	backend, err := detection.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = imaging.NewImageCache(cfg.CacheSize)
	}
	if scales == nil {
		scales = scale.NewContext()
	}
	return &Pipeline{
		cfg:           cfg,
		cache:         cache,
		scales:        scales,
		detector:      detection.NewEdgeDetector(cfg.Detection, backend),
		extractor:     features.NewFeatureExtractor(cfg.Features, backend),
		reconstructor: reconstruct.NewReconstructor(cfg.Reconstruct),
		reader:        ocr.NewReader(cfg.OCRLanguage),
	}, nil
}

// Detector returns the edge detector.
func (p *Pipeline) Detector() *detection.EdgeDetector { return p.detector }

// Extractor returns the feature extractor.
func (p *Pipeline) Extractor() *features.FeatureExtractor { return p.extractor }

// Scales returns the calibration context.
func (p *Pipeline) Scales() *scale.Context { return p.scales }

// Cache returns the image cache.
func (p *Pipeline) Cache() *imaging.ImageCache { return p.cache }

// Source names an image either by path, loaded through the cache, or
// directly. ImageID keys the calibration; it defaults to Path, or a fresh
// id for in-memory images.
type Source struct {
	Path    string
	Image   image.Image
	ImageID string
}

func (p *Pipeline) resolve(src Source) (image.Image, string, error) {
	id := src.ImageID
	if id == "" {
		id = src.Path
	}
	if id == "" {
		id = uuid.NewString()
	}
	if src.Image != nil {
		return src.Image, id, imaging.Validate(src.Image)
	}
	if src.Path == "" {
		return nil, id, fmt.Errorf("%w: no image or path given", imaging.ErrInvalidImage)
	}
	img, err := p.cache.Load(src.Path)
	return img, id, err
}

// PlanRequest describes one floor plan to process.
type PlanRequest struct {
	Source
	Level int

	// OutputUnit for calibrated plans; empty uses the configured unit.
	OutputUnit units.Unit
}

// ElevationRequest describes one elevation to process.
type ElevationRequest struct {
	Source
	Orientation string
	OutputUnit  units.Unit
}

func (p *Pipeline) outputUnit(u units.Unit) units.Unit {
	if u == "" {
		return p.cfg.OutputUnit
	}
	return u
}

// calibration returns the image's calibration, or nil when it has none.
func (p *Pipeline) calibration(imageID string) *scale.Calibration {
	c, err := p.scales.Get(imageID)
	if err != nil {
		return nil
	}
	return c
}

// ProcessFloorPlan detects and classifies the elements of one plan and
// links its rooms. The result is in real units when the image is
// calibrated and in pixels otherwise.
func (p *Pipeline) ProcessFloorPlan(req PlanRequest) (*reconstruct.FloorPlan, error) {
	img, id, err := p.resolve(req.Source)
	if err != nil {
		return nil, err
	}

	els, err := p.detector.DetectArchitecturalElements(img, detection.ElementAll)
	if err != nil {
		return nil, fmt.Errorf("failed to detect elements: %w", err)
	}
	fs, err := p.extractor.ExtractFeatures(img, els)
	if err != nil {
		return nil, fmt.Errorf("failed to extract features: %w", err)
	}
	conns := features.ConnectRooms(fs.Rooms, p.cfg.Features.RoomConnectionDistance)

	if c := p.calibration(id); c != nil {
		out := p.outputUnit(req.OutputUnit)
		if fs, err = c.ApplyToFeatures(fs, out); err != nil {
			return nil, err
		}
		if conns, err = c.ApplyToConnections(conns, out); err != nil {
			return nil, err
		}
	}

	if p.cfg.Debug {
		log.Printf("plan %s: %d walls, %d windows, %d doors, %d rooms", id, len(fs.Walls), len(fs.Windows), len(fs.Doors), len(fs.Rooms))
	}
	return &reconstruct.FloorPlan{
		ImageID:  id,
		Features: *fs,
		Data:     reconstruct.PlanData{Level: req.Level, RoomConnections: conns},
	}, nil
}

// ProcessElevation finds the floor levels of one elevation.
func (p *Pipeline) ProcessElevation(req ElevationRequest) (*reconstruct.Elevation, error) {
	img, id, err := p.resolve(req.Source)
	if err != nil {
		return nil, err
	}

	levels, err := p.extractor.DetectFloorLevels(img)
	if err != nil {
		return nil, fmt.Errorf("failed to detect floor levels: %w", err)
	}
	if c := p.calibration(id); c != nil {
		if levels, err = c.ApplyToFloorLevels(levels, p.outputUnit(req.OutputUnit)); err != nil {
			return nil, err
		}
	}

	if p.cfg.Debug {
		log.Printf("elevation %s: %d floor levels", id, len(levels))
	}
	return &reconstruct.Elevation{
		ImageID: id,
		Data:    reconstruct.ElevationData{FloorLevels: levels, Orientation: req.Orientation},
	}, nil
}

// ProcessBuilding processes every image, at most cfg.Workers at a time, and
// reconstructs the building. The first failing image cancels the rest.
func (p *Pipeline) ProcessBuilding(ctx context.Context, plans []PlanRequest, elevations []ElevationRequest) (*reconstruct.Result, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: at least one floor plan is required", reconstruct.ErrInsufficientInput)
	}
	if len(elevations) == 0 {
		return nil, fmt.Errorf("%w: at least one elevation is required", reconstruct.ErrInsufficientInput)
	}

	planResults := make([]reconstruct.FloorPlan, len(plans))
	elevResults := make([]reconstruct.Elevation, len(elevations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, req := range plans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := p.ProcessFloorPlan(req)
			if err != nil {
				return fmt.Errorf("floor plan %d: %w", i, err)
			}
			planResults[i] = *fp
			return nil
		})
	}
	for i, req := range elevations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			el, err := p.ProcessElevation(req)
			if err != nil {
				return fmt.Errorf("elevation %d: %w", i, err)
			}
			elevResults[i] = *el
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.Reconstruct(planResults, elevResults)
}

// Reconstruct builds the model from already processed inputs.
func (p *Pipeline) Reconstruct(plans []reconstruct.FloorPlan, elevations []reconstruct.Elevation) (*reconstruct.Result, error) {
	return p.reconstructor.Reconstruct(plans, elevations)
}

// ErrNoReference is returned when no dimension label can be paired with a wall.
var ErrNoReference = errors.New("no dimension label next to a wall")
