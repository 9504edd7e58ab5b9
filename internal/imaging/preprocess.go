package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// PreprocessOptions tunes Preprocess. The zero value is not useful; start
// from DefaultPreprocessOptions.
type PreprocessOptions struct {
	// BlurRadius is the Gaussian radius applied before thresholding (5 px kernel = 2).
	BlurRadius float64

	// LocalRadius is the Gaussian radius of the local mean (11 px block = 5).
	LocalRadius float64

	// Offset is subtracted from the local mean before comparison.
	Offset float64

	// OpenRadius is the radius of the speckle-removing opening (3x3 = 1).
	OpenRadius float64
}

// DefaultPreprocessOptions returns the settings used for plan drawings.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		BlurRadius:  2,
		LocalRadius: 5,
		Offset:      2,
		OpenRadius:  1,
	}
}

// Preprocess binarizes a grayscale drawing: blur, adaptive inverse threshold,
// then a morphological opening. Dark strokes become 255 on a 0 background.
// The result depends only on the input pixels and options.
func Preprocess(g *image.Gray, opts PreprocessOptions) (*image.Gray, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}

	blurred := toGrayFromRGBA(blur.Gaussian(g, opts.BlurRadius))
	local := toGrayFromRGBA(blur.Gaussian(blurred, opts.LocalRadius))

	binary := image.NewGray(blurred.Bounds())
	for i, v := range blurred.Pix {
		if float64(v) <= float64(local.Pix[i])-opts.Offset {
			binary.Pix[i] = 255
		}
	}

	return Open(binary, opts.OpenRadius), nil
}

// Dilate grows foreground by radius pixels.
func Dilate(g *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return cloneGray(g)
	}
	return toGrayFromRGBA(effect.Dilate(g, radius))
}

// Erode shrinks foreground by radius pixels.
func Erode(g *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return cloneGray(g)
	}
	return toGrayFromRGBA(effect.Erode(g, radius))
}

// Open removes foreground specks smaller than the structuring element.
func Open(g *image.Gray, radius float64) *image.Gray {
	return Dilate(Erode(g, radius), radius)
}

// Close fills background gaps smaller than the structuring element.
func Close(g *image.Gray, radius float64) *image.Gray {
	return Erode(Dilate(g, radius), radius)
}

func cloneGray(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	copy(out.Pix, g.Pix)
	return out
}
