package detection

import (
	"container/heap"
	"image"
	"math"

	"github.com/ironsheep/building-recon-mcp/internal/imaging"
)

// SegmentRegions implements Backend.
//
// # Algorithm
//
//  1. Close the barrier mask to bridge small gaps between strokes
//  2. Euclidean distance transform of the free space (distance to the
//     nearest barrier pixel)
//  3. Seeds: 8-connected components of pixels whose distance exceeds
//     PeakFraction of the maximum distance
//  4. Marker flooding in order of decreasing distance (watershed on the
//     negated distance field); barrier pixels are never flooded
//  5. Optionally, free-space pockets no seed could reach become regions of
//     their own
func (*NativeBackend) SegmentRegions(barriers *image.Gray, p SegmentParams) (*Regions, error) {
	if err := imaging.Validate(barriers); err != nil {
		return nil, err
	}
	closed := imaging.Close(barriers, p.CloseRadius)
	width, height := closed.Bounds().Dx(), closed.Bounds().Dy()

	free := make([]bool, width*height)
	for i, v := range closed.Pix {
		free[i] = v == 0
	}
	dist := DistanceTransform(free, width, height)

	maxDist := 0.0
	for _, d := range dist {
		maxDist = math.Max(maxDist, d)
	}
	if maxDist == 0 {
		return &Regions{Width: width, Height: height, Labels: make([]int32, width*height)}, nil
	}

	peaks := make([]bool, width*height)
	for i, d := range dist {
		peaks[i] = d > p.PeakFraction*maxDist
	}
	labels, count := labelComponents(peaks, width, height, true)

	floodFromSeeds(labels, free, dist, width, height)

	if p.LabelUnseeded {
		orphans := make([]bool, width*height)
		found := false
		for i := range free {
			if free[i] && labels[i] == 0 {
				orphans[i] = true
				found = true
			}
		}
		if found {
			extra, n := labelComponents(orphans, width, height, false)
			for i, l := range extra {
				if l != 0 {
					labels[i] = l + int32(count)
				}
			}
			count += n
		}
	}

	return &Regions{Width: width, Height: height, Labels: labels, Count: count}, nil
}

type floodItem struct {
	index int
	label int32
	dist  float64
	order int
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }
func (q floodQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist > q[j].dist
	}
	return q[i].order < q[j].order
}
func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *floodQueue) Push(x any)   { *q = append(*q, x.(floodItem)) }
func (q *floodQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// floodFromSeeds grows labelled seeds through free pixels, highest distance
// first, with 4-connectivity. Ties keep insertion order so results are
// deterministic.
func floodFromSeeds(labels []int32, free []bool, dist []float64, width, height int) {
	q := &floodQueue{}
	order := 0
	push := func(i int, l int32) {
		heap.Push(q, floodItem{index: i, label: l, dist: dist[i], order: order})
		order++
	}
	neighbours := func(i int, fn func(int)) {
		x, y := i%width, i/width
		if x > 0 {
			fn(i - 1)
		}
		if x < width-1 {
			fn(i + 1)
		}
		if y > 0 {
			fn(i - width)
		}
		if y < height-1 {
			fn(i + width)
		}
	}

	for i, l := range labels {
		if l == 0 {
			continue
		}
		neighbours(i, func(n int) {
			if labels[n] == 0 && free[n] {
				push(n, l)
			}
		})
	}

	for q.Len() > 0 {
		it := heap.Pop(q).(floodItem)
		if labels[it.index] != 0 {
			continue
		}
		labels[it.index] = it.label
		neighbours(it.index, func(n int) {
			if labels[n] == 0 && free[n] {
				push(n, it.label)
			}
		})
	}
}

// DistanceTransform returns, for every pixel, the Euclidean distance to the
// nearest pixel where free is false. Pixels where free is false get 0. If
// there is no such pixel at all every distance is +Inf.
//
// Exact two-pass algorithm of Felzenszwalb and Huttenlocher.
func DistanceTransform(free []bool, width, height int) []float64 {
	inf := math.Inf(1)
	sq := make([]float64, width*height)
	for i, f := range free {
		if f {
			sq[i] = inf
		}
	}

	n := max(width, height)
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			f[y] = sq[y*width+x]
		}
		edt1D(f[:height], d[:height], v, z)
		for y := 0; y < height; y++ {
			sq[y*width+x] = d[y]
		}
	}
	for y := 0; y < height; y++ {
		copy(f[:width], sq[y*width:(y+1)*width])
		edt1D(f[:width], d[:width], v, z)
		copy(sq[y*width:(y+1)*width], d[:width])
	}

	out := make([]float64, width*height)
	for i, s := range sq {
		out[i] = math.Sqrt(s)
	}
	return out
}

// edt1D computes the squared distance transform of a sampled function.
func edt1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)
	for q := 1; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		for {
			if math.IsInf(f[v[k]], 1) {
				// the current envelope is still empty
				v[k] = q
				z[k] = math.Inf(-1)
				z[k+1] = math.Inf(1)
				break
			}
			s := ((f[q] + float64(q*q)) - (f[v[k]] + float64(v[k]*v[k]))) / float64(2*q-2*v[k])
			if s <= z[k] {
				if k == 0 {
					v[0] = q
					z[0] = math.Inf(-1)
					z[1] = math.Inf(1)
					break
				}
				k--
				continue
			}
			k++
			v[k] = q
			z[k] = s
			z[k+1] = math.Inf(1)
			break
		}
	}
	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		if math.IsInf(f[v[k]], 1) {
			d[q] = math.Inf(1)
			continue
		}
		diff := float64(q - v[k])
		d[q] = diff*diff + f[v[k]]
	}
}
