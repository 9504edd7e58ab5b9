// Package imaging provides the raster side of plan processing: loading and
// caching drawings, grayscale conversion, preprocessing, edge maps,
// morphology, line rasterization and overlay rendering.
//
// All operations work on standard Go image types. Single-channel rasters are
// *image.Gray with 255 marking foreground (ink, edge or mask) and 0 marking
// background unless a function says otherwise.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Rasters produced here always have their bounds rebased to (0,0)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and returns a new raster; inputs are never modified, so the same
// source image can be processed from several goroutines at once.
//
// # Error Handling
//
// Nil, zero-sized or undecodable rasters are reported as ErrInvalidImage,
// wrapped with the underlying cause where there is one.
//
// # Performance Considerations
//
// Plans scanned at high resolution are large. Use FitWithin to cap the longest
// side before detection, and give the cache a limit in long-running
// processes; it drops the least recently used drawing first.
package imaging
