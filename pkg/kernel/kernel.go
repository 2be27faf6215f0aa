// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx) provide profile extrusion, boolean operations
// and tessellation behind this interface. The kernel abstraction allows
// swapping backends without changing the model builder.
package kernel

import "draftsolid/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface. Solids live in
// drawing coordinates with +Z as the extrusion direction; every
// extrusion spans z=0 to z=depth so that placement translations work
// intuitively.
type Kernel interface {
	// ExtrudePolygon extrudes a simple closed outline by depth.
	// Outline winding does not matter.
	ExtrudePolygon(outline []geom.Point2D, depth float64) (Solid, error)

	// ExtrudeCircle extrudes a circle into a cylinder of the given
	// depth, axis through center along +Z.
	ExtrudeCircle(center geom.Point2D, radius, depth float64) (Solid, error)

	// LoftOffset lofts an outline to its outward offset over the given
	// height. The result is the wedge ring used as a chamfer tool.
	LoftOffset(outline []geom.Point2D, offset, height float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Translate moves a solid by (x, y, z).
	Translate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates a solid; cells controls the sampling
	// resolution along the longest bounding box axis.
	ToMesh(s Solid, cells int) (*Mesh, error)
}
