package kernel

import (
	"fmt"
	"math"
)

// Mesh is a triangle mesh suitable for export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // source part name, carried into export
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// ManifoldError describes why a mesh fails the watertightness check.
type ManifoldError struct {
	Reason string
}

func (e *ManifoldError) Error() string {
	return "mesh is not a closed manifold: " + e.Reason
}

// CheckManifold verifies that the mesh encloses a watertight solid:
// after welding vertices within weldTol, every undirected edge must be
// shared by exactly two triangles with opposite traversal directions.
// Tessellators emit duplicated corner vertices per triangle, so the
// weld step is what makes shared edges visible.
func (m *Mesh) CheckManifold(weldTol float64) error {
	if m.IsEmpty() {
		return &ManifoldError{Reason: "mesh has no triangles"}
	}
	if weldTol <= 0 {
		weldTol = 1e-6
	}

	for _, v := range m.Vertices {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return &ManifoldError{Reason: "mesh contains non-finite vertex coordinates"}
		}
	}

	welded := m.weldVertices(weldTol)

	type edgeKey struct{ lo, hi uint32 }
	// direction counts +1 for lo->hi traversal, -1 for hi->lo. A closed
	// oriented surface balances every edge to count 2, direction 0.
	type edgeUse struct {
		count     int
		direction int
	}
	edges := make(map[edgeKey]*edgeUse)

	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := welded[m.Indices[t]]
		b := welded[m.Indices[t+1]]
		c := welded[m.Indices[t+2]]
		if a == b || b == c || c == a {
			// Degenerate slivers collapse under welding; marching cubes
			// produces a few at tolerance scale and they carry no area.
			continue
		}
		for _, pair := range [3][2]uint32{{a, b}, {b, c}, {c, a}} {
			k := edgeKey{lo: pair[0], hi: pair[1]}
			dir := 1
			if k.lo > k.hi {
				k.lo, k.hi = k.hi, k.lo
				dir = -1
			}
			u := edges[k]
			if u == nil {
				u = &edgeUse{}
				edges[k] = u
			}
			u.count++
			u.direction += dir
		}
	}

	if len(edges) == 0 {
		return &ManifoldError{Reason: "all triangles are degenerate"}
	}

	for k, u := range edges {
		if u.count != 2 {
			return &ManifoldError{
				Reason: fmt.Sprintf("edge %d-%d shared by %d triangles, want 2", k.lo, k.hi, u.count),
			}
		}
		if u.direction != 0 {
			return &ManifoldError{
				Reason: fmt.Sprintf("edge %d-%d traversed twice in the same direction", k.lo, k.hi),
			}
		}
	}
	return nil
}

// weldVertices maps each vertex index to a canonical representative id
// for vertices within tol of each other, using a spatial hash grid.
func (m *Mesh) weldVertices(tol float64) []uint32 {
	type cell struct{ x, y, z int64 }
	reps := make(map[cell]uint32)
	welded := make([]uint32, m.VertexCount())

	for i := 0; i < m.VertexCount(); i++ {
		x := float64(m.Vertices[i*3])
		y := float64(m.Vertices[i*3+1])
		z := float64(m.Vertices[i*3+2])
		c := cell{
			x: int64(math.Floor(x / tol)),
			y: int64(math.Floor(y / tol)),
			z: int64(math.Floor(z / tol)),
		}

		found := false
		for dx := int64(-1); dx <= 1 && !found; dx++ {
			for dy := int64(-1); dy <= 1 && !found; dy++ {
				for dz := int64(-1); dz <= 1 && !found; dz++ {
					if id, ok := reps[cell{c.x + dx, c.y + dy, c.z + dz}]; ok {
						rx := float64(m.Vertices[id*3])
						ry := float64(m.Vertices[id*3+1])
						rz := float64(m.Vertices[id*3+2])
						if math.Abs(x-rx) <= tol && math.Abs(y-ry) <= tol && math.Abs(z-rz) <= tol {
							welded[i] = id
							found = true
						}
					}
				}
			}
		}
		if !found {
			reps[c] = uint32(i)
			welded[i] = uint32(i)
		}
	}
	return welded
}
