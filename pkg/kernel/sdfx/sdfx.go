// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"draftsolid/pkg/geom"
	"draftsolid/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// polygon2D builds the 2D cross-section SDF for an outline. sdfx wants
// a counter-clockwise vertex order, so clockwise outlines are reversed.
func polygon2D(outline []geom.Point2D) (sdf.SDF2, error) {
	if len(outline) < 3 {
		return nil, fmt.Errorf("outline has %d points, want at least 3", len(outline))
	}
	pts := outline
	if geom.SignedArea(outline) < 0 {
		pts = make([]geom.Point2D, len(outline))
		for i, p := range outline {
			pts[len(outline)-1-i] = p
		}
	}
	vs := make([]v2.Vec, len(pts))
	for i, p := range pts {
		vs[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	s, err := sdf.Polygon2D(vs)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Polygon2D: %w", err)
	}
	return s, nil
}

// ExtrudePolygon extrudes a closed outline by depth. sdf.Extrude3D
// centers the solid about z=0, so the result is shifted to span
// z=0..depth.
func (k *SdfxKernel) ExtrudePolygon(outline []geom.Point2D, depth float64) (kernel.Solid, error) {
	s2, err := polygon2D(outline)
	if err != nil {
		return nil, err
	}
	s := sdf.Extrude3D(s2, depth)
	m := sdf.Translate3d(v3.Vec{Z: depth / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// ExtrudeCircle extrudes a circle at center into a cylinder spanning
// z=0..depth.
func (k *SdfxKernel) ExtrudeCircle(center geom.Point2D, radius, depth float64) (kernel.Solid, error) {
	s2, err := sdf.Circle2D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Circle2D: %w", err)
	}
	s := sdf.Extrude3D(s2, depth)
	m := sdf.Translate3d(v3.Vec{X: center.X, Y: center.Y, Z: depth / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// LoftOffset lofts an outline to its outward offset over height,
// spanning z=0..height with the unoffset section at the bottom.
func (k *SdfxKernel) LoftOffset(outline []geom.Point2D, offset, height float64) (kernel.Solid, error) {
	base, err := polygon2D(outline)
	if err != nil {
		return nil, err
	}
	top := sdf.Offset2D(base, offset)
	s, err := sdf.Loft3D(base, top, height, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Loft3D: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid, cells int) (*kernel.Mesh, error) {
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("tessellation produced no triangles")
	}

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}
