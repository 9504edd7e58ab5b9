// Package detection turns a plan drawing into primitive architectural
// hypotheses: wall strokes, window rectangles and door arcs or leaves.
//
// The EdgeDetector owns the pipeline (grayscale, preprocessing, edge maps,
// per-element filters) and delegates the heavy primitives to a Backend:
//
//   - DetectLines: probabilistic Hough line segments
//   - DetectCircles: Hough circles (door swings)
//   - DetectContours: outer boundaries of binary blobs
//   - SegmentRegions: distance-transform seeded watershed (rooms)
//
// The native backend is pure Go. Building with -tags gocv registers an
// OpenCV backend under the name "opencv"; select it with NewBackend.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// When a raster is down-scaled for detection (Config.MaxDimension), results
// are mapped back to the caller's pixel frame.
//
// # Failure Policy
//
// A kind of element that is simply absent yields an empty slice. Only nil or
// empty rasters (imaging.ErrInvalidImage) and unknown method or element names
// (ErrUnsupportedMethod, ErrUnsupportedElement) are errors.
//
// # Limitations
//
// These algorithms work best on clean, high-contrast drawings. Door arcs and
// door lines are reported independently and are not correlated, so a single
// door can appear as both an arc and a line.
package detection
