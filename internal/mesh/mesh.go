package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle holds three vertex indices.
type Triangle [3]int

// Mesh is an immutable indexed triangle mesh.
type Mesh struct {
	vertices []r3.Vec
	faces    []Triangle
}

// New copies vertices and faces into a mesh. Every face index must refer to
// an existing vertex.
func New(vertices []r3.Vec, faces []Triangle) (*Mesh, error) {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d of %d", i, idx, len(vertices))
			}
		}
	}
	m := &Mesh{
		vertices: make([]r3.Vec, len(vertices)),
		faces:    make([]Triangle, len(faces)),
	}
	copy(m.vertices, vertices)
	copy(m.faces, faces)
	return m, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.faces)
}

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return m.TriangleCount() == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) r3.Vec { return m.vertices[i] }

// Face returns triangle i.
func (m *Mesh) Face(i int) Triangle { return m.faces[i] }

// Vertices returns a copy of the vertex list.
func (m *Mesh) Vertices() []r3.Vec {
	if m == nil {
		return nil
	}
	return append([]r3.Vec(nil), m.vertices...)
}

// Faces returns a copy of the triangle list.
func (m *Mesh) Faces() []Triangle {
	if m == nil {
		return nil
	}
	return append([]Triangle(nil), m.faces...)
}

// Normal returns the unit normal of triangle i, or the zero vector for a
// triangle with no area.
func (m *Mesh) Normal(i int) r3.Vec {
	f := m.faces[i]
	a, b, c := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) == 0 {
		return r3.Vec{}
	}
	return r3.Unit(n)
}

// Bounds returns the axis-aligned box around all vertices. An empty mesh
// returns two zero vectors.
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	if m.VertexCount() == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	lo = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.vertices {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi
}

// Concat returns a new mesh holding every triangle of the inputs. Vertex
// indices are offset; coincident vertices are not merged. Nil meshes are
// skipped.
func Concat(meshes ...*Mesh) *Mesh {
	nv, nf := 0, 0
	for _, m := range meshes {
		nv += m.VertexCount()
		nf += m.TriangleCount()
	}
	out := &Mesh{
		vertices: make([]r3.Vec, 0, nv),
		faces:    make([]Triangle, 0, nf),
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		offset := len(out.vertices)
		out.vertices = append(out.vertices, m.vertices...)
		for _, f := range m.faces {
			out.faces = append(out.faces, Triangle{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out
}
