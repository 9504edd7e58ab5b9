package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/segment"
)

// Canny performs Canny edge detection on a grayscale raster and returns a
// binary edge map (255 = edge).
//
// # Algorithm
//
//  1. Gaussian blur: 5x5 kernel to reduce noise
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  4. Hysteresis thresholding:
//     - Pixels above high are strong edges (always kept)
//     - Pixels between low and high are weak edges, kept when connected
//     (8-neighbourhood, transitively) to a strong edge
//     - Pixels below low are discarded
//
// Thresholds are on the 0-255 intensity scale. Plans use low=50, high=150.
func Canny(g *image.Gray, low, high float64) *image.Gray {
	edges, _, _ := CannyGradients(g, low, high)
	return edges
}

// CannyGradients runs Canny and also returns the row-major X and Y
// gradients of the blurred raster the edges were traced on.
func CannyGradients(g *image.Gray, low, high float64) (edges *image.Gray, gx, gy []float64) {
	width, height := g.Bounds().Dx(), g.Bounds().Dy()
	blurred := gaussianBlur(grayToFloat(g), width, height)
	gx, gy = sobelGradients(blurred, width, height)
	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for i := range gx {
		magnitude[i] = math.Hypot(gx[i], gy[i])
		direction[i] = math.Atan2(gy[i], gx[i])
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			// ties resolved toward the first neighbour so plateaus stay 1px wide
			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	result := NewMask(width, height)
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v >= high && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%width, j/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := jx+dx, jy+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					k := ny*width + nx
					if result.Pix[k] == 0 && suppressed[k] >= low {
						result.Pix[k] = 255
						stack = append(stack, k)
					}
				}
			}
		}
	}
	return result, gx, gy
}

// SobelMagnitude returns the gradient magnitude min-max normalised to 0-255.
func SobelMagnitude(g *image.Gray) *image.Gray {
	width, height := g.Bounds().Dx(), g.Bounds().Dy()
	gx, gy := sobelGradients(grayToFloat(g), width, height)
	magnitude := make([]float64, width*height)
	for i := range gx {
		magnitude[i] = math.Hypot(gx[i], gy[i])
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range magnitude {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := NewMask(width, height)
	if hi <= lo {
		return out
	}
	for i, v := range magnitude {
		out.Pix[i] = uint8(math.Round((v - lo) / (hi - lo) * 255))
	}
	return out
}

// Sobel returns the binary edge map of pixels whose normalised gradient
// magnitude is strictly above threshold.
func Sobel(g *image.Gray, threshold uint8) *image.Gray {
	mag := SobelMagnitude(g)
	if threshold == 255 {
		return NewMask(mag.Bounds().Dx(), mag.Bounds().Dy())
	}
	return segment.Threshold(mag, threshold+1)
}

func grayToFloat(g *image.Gray) []float64 {
	b := g.Bounds()
	out := make([]float64, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out[y*b.Dx()+x] = float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return out
}

// sobelGradients applies 3x3 Sobel kernels with replicated borders.
func sobelGradients(img []float64, width, height int) (gradX, gradY []float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	gradX = make([]float64, width*height)
	gradY = make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := img[py*width+px]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			gradX[y*width+x] = gx
			gradY[y*width+x] = gy
		}
	}
	return gradX, gradY
}

// gaussianBlur applies a 5x5 Gaussian blur to reduce noise before edge detection.
//
// Uses a standard 5x5 Gaussian kernel with sigma ≈ 1.4:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273, used for normalization.
// Border pixels use clamped (replicated) edge values.
func gaussianBlur(img []float64, width, height int) []float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	kernelSum := 273.0

	result := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					sum += img[py*width+px] * kernel[ky+2][kx+2]
				}
			}
			result[y*width+x] = sum / kernelSum
		}
	}
	return result
}
