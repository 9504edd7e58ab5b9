// Package geometry holds the 2D primitives shared by detection, feature
// extraction and reconstruction.
//
// Coordinates are plain float64 values in whatever unit the caller is working
// in (pixels straight out of detection, or a real-world unit after scaling).
// A single value never mixes units; the unit is carried by the enclosing
// feature set.
//
// # Conventions
//
//   - Image space: origin top-left, X grows rightward, Y grows downward.
//   - Angles are orientation-insensitive and reported in degrees in [0, 180).
//   - Point2D marshals to JSON as a two-element array [x, y].
//
// # Errors
//
// Operations that cannot produce a meaningful result from zero-length or
// collinear input return ErrDegenerateGeometry. Callers in the pipeline treat
// it as a reason to skip the element, not to abort.
package geometry
