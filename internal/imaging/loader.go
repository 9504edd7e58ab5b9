package imaging

import (
	"container/list"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage reports an unreadable, nil or empty raster.
var ErrInvalidImage = errors.New("invalid image")

// DefaultCacheSize is how many decoded drawings a cache keeps by default.
const DefaultCacheSize = 32

// ImageCache keeps decoded drawings keyed by the path passed to Load, so the
// tools of one session can work on the same plan without decoding it again.
// When more than limit drawings are held the least recently used one is
// dropped. It is safe for concurrent use.
//
//	cache := imaging.NewImageCache(imaging.DefaultCacheSize)
//	img, err := cache.Load("/path/to/ground-floor.png")
type ImageCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	byKey map[string]*list.Element
}

type cacheEntry struct {
	path string
	img  image.Image
}

// NewImageCache returns an empty cache holding at most limit drawings.
// A limit of 0 or less means unbounded.
func NewImageCache(limit int) *ImageCache {
	return &ImageCache{
		limit: limit,
		order: list.New(),
		byKey: make(map[string]*list.Element),
	}
}

// Load returns the drawing at path, decoding it on a miss.
//
// Decoding honours the EXIF orientation tag, so photographed plans come out
// upright. PNG, JPEG, GIF, TIFF and BMP are supported.
//
// A missing file gives an error wrapping os.ErrNotExist; an undecodable or
// empty one gives ErrInvalidImage.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.get(path); ok {
		return img, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrInvalidImage, path, err)
	}
	if err := Validate(img); err != nil {
		return nil, err
	}

	c.put(path, img)
	return img, nil
}

func (c *ImageCache) get(path string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byKey[path]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// put stores img, keeping the first decode if two loads raced.
func (c *ImageCache) put(path string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[path]; ok {
		c.order.MoveToFront(el)
		return
	}
	c.byKey[path] = c.order.PushFront(&cacheEntry{path: path, img: img})
	for c.limit > 0 && c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cacheEntry).path)
	}
}

// Len returns the number of cached drawings.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every cached drawing.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.order.Init()
	c.byKey = make(map[string]*list.Element)
	c.mu.Unlock()
}

// Evict drops one drawing. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[path]; ok {
		c.order.Remove(el)
		delete(c.byKey, path)
	}
}

// Validate returns ErrInvalidImage for nil or zero-sized rasters.
func Validate(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: empty image (%dx%d)", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return nil
}

// ImageInfo contains metadata about a loaded drawing.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is taken from the file extension: "png", "jpeg", "gif", "tiff", "bmp" or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
