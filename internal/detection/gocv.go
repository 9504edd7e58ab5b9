//go:build gocv

package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
	"gocv.io/x/gocv"
)

// OpenCVBackend implements Backend with OpenCV through gocv. Build with
// -tags gocv and an OpenCV 4 installation.
type OpenCVBackend struct{}

// NewOpenCVBackend returns the OpenCV Backend.
func NewOpenCVBackend() *OpenCVBackend {
	return &OpenCVBackend{}
}

func init() {
	registerBackend("opencv", func() Backend { return NewOpenCVBackend() })
}

// Name implements Backend.
func (*OpenCVBackend) Name() string { return "opencv" }

func grayToMat(g *image.Gray) (gocv.Mat, error) {
	b := g.Bounds()
	pix := g.Pix
	if g.Stride != b.Dx() {
		pix = make([]byte, b.Dx()*b.Dy())
		for y := 0; y < b.Dy(); y++ {
			copy(pix[y*b.Dx():(y+1)*b.Dx()], g.Pix[y*g.Stride:])
		}
	}
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
}

// DetectLines implements Backend with cv::HoughLinesP.
func (*OpenCVBackend) DetectLines(edges *image.Gray, p LineParams) []geometry.LineSegment {
	src, err := grayToMat(edges)
	if err != nil {
		return nil
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(src, &lines, 1, float32(math.Pi/180), p.Threshold, float32(p.MinLength), float32(p.MaxGap))

	out := make([]geometry.LineSegment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		out = append(out, geometry.Seg(float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])))
	}
	return out
}

// DetectCircles implements Backend with cv::HoughCircles (HOUGH_GRADIENT).
func (*OpenCVBackend) DetectCircles(img *image.Gray, p CircleParams) []CircleHit {
	src, err := grayToMat(img)
	if err != nil {
		return nil
	}
	defer src.Close()

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(src, &circles, gocv.HoughGradient,
		1, p.MinDist, p.EdgeHigh, float64(p.Threshold), p.MinRadius, p.MaxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return nil
	}
	out := make([]CircleHit, 0, circles.Cols())
	for i := 0; i < circles.Cols(); i++ {
		out = append(out, CircleHit{
			Center: geometry.Pt(
				math.Round(float64(circles.GetFloatAt(0, i*3))),
				math.Round(float64(circles.GetFloatAt(0, i*3+1))),
			),
			Radius: math.Round(float64(circles.GetFloatAt(0, i*3+2))),
		})
	}
	return out
}

// DetectContours implements Backend with cv::findContours.
func (*OpenCVBackend) DetectContours(binary *image.Gray) [][]geometry.Point2D {
	src, err := grayToMat(binary)
	if err != nil {
		return nil
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	out := make([][]geometry.Point2D, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i).ToPoints()
		c := make([]geometry.Point2D, len(pts))
		for j, p := range pts {
			c[j] = geometry.Pt(float64(p.X), float64(p.Y))
		}
		out = append(out, c)
	}
	return out
}

// SegmentRegions implements Backend: OpenCV distance transform and
// connected components for the seeds, then the shared marker flood so that
// barrier pixels stay unlabelled exactly as in the native backend.
func (*OpenCVBackend) SegmentRegions(barriers *image.Gray, p SegmentParams) (*Regions, error) {
	if err := imaging.Validate(barriers); err != nil {
		return nil, err
	}
	closed := imaging.Close(barriers, p.CloseRadius)
	free := imaging.Invert(closed)
	width, height := free.Bounds().Dx(), free.Bounds().Dy()

	src, err := grayToMat(free)
	if err != nil {
		return nil, fmt.Errorf("segment regions: %w", err)
	}
	defer src.Close()

	dist := gocv.NewMat()
	defer dist.Close()
	labelsMat := gocv.NewMat()
	defer labelsMat.Close()
	gocv.DistanceTransform(src, &dist, &labelsMat, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	_, maxVal, _, _ := gocv.MinMaxLoc(dist)
	distances := make([]float64, width*height)
	freeMask := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			distances[y*width+x] = float64(dist.GetFloatAt(y, x))
			freeMask[y*width+x] = free.Pix[y*free.Stride+x] != 0
		}
	}
	if maxVal <= 0 {
		return &Regions{Width: width, Height: height, Labels: make([]int32, width*height)}, nil
	}

	peaks := gocv.NewMat()
	defer peaks.Close()
	gocv.Threshold(dist, &peaks, float32(p.PeakFraction)*maxVal, 255, gocv.ThresholdBinary)
	peaks8 := gocv.NewMat()
	defer peaks8.Close()
	peaks.ConvertTo(&peaks8, gocv.MatTypeCV8U)

	markers := gocv.NewMat()
	defer markers.Close()
	n := gocv.ConnectedComponents(peaks8, &markers)

	labels := make([]int32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			labels[y*width+x] = markers.GetIntAt(y, x)
		}
	}
	count := n - 1 // background component
	floodFromSeeds(labels, freeMask, distances, width, height)

	if p.LabelUnseeded {
		orphans := make([]bool, width*height)
		for i := range freeMask {
			orphans[i] = freeMask[i] && labels[i] == 0
		}
		extra, m := labelComponents(orphans, width, height, false)
		for i, l := range extra {
			if l != 0 {
				labels[i] = l + int32(count)
			}
		}
		count += m
	}
	return &Regions{Width: width, Height: height, Labels: labels, Count: count}, nil
}
