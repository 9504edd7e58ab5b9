package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sort"
	"strings"

	dimg "github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// Word is one recognised word with its box in the caller's pixel frame.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     geometry.Bounds `json:"bounds"`
}

// DimensionLabel is a dimension found on the plan together with where it was printed.
type DimensionLabel struct {
	Dimension
	Bounds     geometry.Bounds `json:"bounds"`
	Confidence float64         `json:"confidence"`
}

// Reader runs Tesseract over plan rasters.
type Reader struct {
	// Language is the Tesseract language code.
	Language string

	// MinRegionConfidence is passed to DetectLabelRegions.
	MinRegionConfidence float64

	// MinTextHeight is the region height below which crops are upscaled
	// before recognition.
	MinTextHeight int
}

// NewReader returns a Reader with the default thresholds.
func NewReader(language string) *Reader {
	if language == "" {
		language = DefaultLanguage
	}
	return &Reader{
		Language:            language,
		MinRegionConfidence: 0.3,
		MinTextHeight:       40,
	}
}

// ReadDimensionLabels finds text strips on the plan, recognises each one and
// returns every parsable dimension, most confident first. A plan without
// labels yields an empty slice.
func (r *Reader) ReadDimensionLabels(img image.Image) ([]DimensionLabel, error) {
	g, err := imaging.ToGray(img)
	if err != nil {
		return nil, err
	}

	regions := DetectLabelRegions(g, r.MinRegionConfidence)
	rects := make([]image.Rectangle, 0, len(regions))
	for _, reg := range regions {
		rect := image.Rect(int(reg.Bounds.MinX), int(reg.Bounds.MinY), int(reg.Bounds.MaxX), int(reg.Bounds.MaxY))
		rects = append(rects, rect.Inset(-4).Intersect(g.Bounds()))
	}
	if len(rects) == 0 {
		rects = append(rects, g.Bounds())
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(r.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	labels := make([]DimensionLabel, 0)
	for _, rect := range rects {
		words, err := r.recognise(client, g, rect)
		if err != nil {
			return nil, err
		}
		for _, line := range groupLines(words) {
			for _, d := range FindDimensions(line.Text) {
				labels = appendUnique(labels, DimensionLabel{
					Dimension:  d,
					Bounds:     line.Bounds,
					Confidence: line.Confidence,
				})
			}
		}
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
	return labels, nil
}

// ReadDimensionLabels is a convenience wrapper around NewReader(language).
func ReadDimensionLabels(img image.Image, language string) ([]DimensionLabel, error) {
	return NewReader(language).ReadDimensionLabels(img)
}

// ReadWords recognises the whole raster at word level.
func (r *Reader) ReadWords(img image.Image) ([]Word, error) {
	g, err := imaging.ToGray(img)
	if err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(r.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return r.recognise(client, g, g.Bounds())
}

// recognise runs word-level OCR on one crop and maps the boxes back.
func (r *Reader) recognise(client *gosseract.Client, g *image.Gray, rect image.Rectangle) ([]Word, error) {
	if rect.Empty() {
		return nil, nil
	}
	var crop image.Image = g.SubImage(rect)
	factor := 1.0
	if rect.Dy() < r.MinTextHeight {
		factor = math.Ceil(float64(r.MinTextHeight) / float64(rect.Dy()))
		crop = dimg.Resize(crop, int(float64(rect.Dx())*factor), 0, dimg.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{
			Text:       text,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: geometry.Bounds{
				MinX: float64(rect.Min.X) + float64(box.Box.Min.X)/factor,
				MinY: float64(rect.Min.Y) + float64(box.Box.Min.Y)/factor,
				MaxX: float64(rect.Min.X) + float64(box.Box.Max.X)/factor,
				MaxY: float64(rect.Min.Y) + float64(box.Box.Max.Y)/factor,
			},
		})
	}
	return words, nil
}

// groupLines joins words that sit on the same baseline and are close
// horizontally, so "12.5" and "m" parse as one label.
func groupLines(words []Word) []Word {
	if len(words) == 0 {
		return nil
	}
	sorted := append([]Word(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Bounds.Center(), sorted[j].Bounds.Center()
		if math.Abs(ci.Y-cj.Y) > math.Min(sorted[i].Bounds.Height(), sorted[j].Bounds.Height())/2 {
			return ci.Y < cj.Y
		}
		return sorted[i].Bounds.MinX < sorted[j].Bounds.MinX
	})

	lines := []Word{sorted[0]}
	for _, w := range sorted[1:] {
		last := &lines[len(lines)-1]
		h := math.Max(last.Bounds.Height(), w.Bounds.Height())
		sameRow := math.Abs(last.Bounds.Center().Y-w.Bounds.Center().Y) <= h/2
		gap := w.Bounds.MinX - last.Bounds.MaxX
		if sameRow && gap >= -h && gap <= 1.5*h {
			last.Text += " " + w.Text
			last.Confidence = math.Min(last.Confidence, w.Confidence)
			last.Bounds = geometry.Bounds{
				MinX: math.Min(last.Bounds.MinX, w.Bounds.MinX),
				MinY: math.Min(last.Bounds.MinY, w.Bounds.MinY),
				MaxX: math.Max(last.Bounds.MaxX, w.Bounds.MaxX),
				MaxY: math.Max(last.Bounds.MaxY, w.Bounds.MaxY),
			}
			continue
		}
		lines = append(lines, w)
	}
	return lines
}

// appendUnique skips a label already read from an overlapping region.
func appendUnique(labels []DimensionLabel, l DimensionLabel) []DimensionLabel {
	for _, existing := range labels {
		if existing.Text == l.Text && existing.Bounds.Center().Dist(l.Bounds.Center()) < l.Bounds.Height() {
			return labels
		}
	}
	return append(labels, l)
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
