// Package mesh builds the triangle meshes that a reconstructed building is
// exported as.
//
// # Coordinates
//
// Plan coordinates map straight to X and Y; Z is height above the ground
// floor. Units are whatever the building model uses. Triangle winding is
// counter-clockwise seen from outside for the primitives in this package,
// but meshes are concatenated without merging vertices, so overlapping
// solids keep their own faces.
//
// # Primitives
//
//   - Box and OrientedBox: rectangular solids.
//   - Cylinder: an n-sided prism around a centre point.
//   - ExtrudePath: a wall of fixed thickness swept along a polyline with
//     mitred joins.
//   - ExtrudePolygon: a slab over an arbitrary simple polygon, capped with an
//     ear-clipped triangulation.
//
// # Export
//
// WriteOBJ and WriteSTL write Wavefront OBJ and ASCII STL. SaveFile picks
// the format from the file extension.
package mesh
