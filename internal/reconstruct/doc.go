// Package reconstruct lifts processed floor plans and elevations into a 3D
// building model and its mesh.
//
// A reconstruction runs a fixed sequence of stages, each a plain function of
// its inputs:
//
//  1. Outline: ExtractOutline on the lowest plan.
//  2. Floor heights: InferFloorHeights over every elevation.
//  3. Walls: LiftWalls puts plan i on floor i.
//  4. Openings: LiftOpenings places windows and doors.
//  5. Roof: a flat slab over the outline of the top plan.
//  6. Mesh: BuildMesh concatenates wall, opening and roof solids.
//
// Only missing inputs are fatal (ErrInsufficientInput). Every other problem
// degrades the model and is recorded as a Warning: an unavailable outline
// leaves the roof without a footprint, degenerate walls and openings are
// skipped, and walls that cannot be swept as one path are built from one
// box per segment.
//
// Openings are overlapping solids. They are not cut out of the walls they
// sit in.
package reconstruct
