package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by SaveFile for extensions other than .obj and .stl.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// WriteOBJ writes m as Wavefront OBJ with 1-based face indices.
func WriteOBJ(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", m.VertexCount(), m.TriangleCount())
	for i := 0; i < m.VertexCount(); i++ {
		v := m.vertices[i]
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.faces[i]
		fmt.Fprintf(bw, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}
	return bw.Flush()
}

// WriteSTL writes m as ASCII STL under the given solid name.
func WriteSTL(w io.Writer, m *Mesh, name string) error {
	if name == "" {
		name = "building"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for i := 0; i < m.TriangleCount(); i++ {
		n := m.Normal(i)
		fmt.Fprintf(bw, "  facet normal %e %e %e\n    outer loop\n", n.X, n.Y, n.Z)
		for _, idx := range m.faces[i] {
			v := m.vertices[idx]
			fmt.Fprintf(bw, "      vertex %e %e %e\n", v.X, v.Y, v.Z)
		}
		fmt.Fprintf(bw, "    endloop\n  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

// SaveFile writes m to path, choosing OBJ or STL from the extension.
func SaveFile(path string, m *Mesh) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".obj" && ext != ".stl" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mesh file: %w", err)
	}
	if ext == ".obj" {
		err = WriteOBJ(f, m)
	} else {
		err = WriteSTL(f, m, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write mesh: %w", err)
	}
	return f.Close()
}
