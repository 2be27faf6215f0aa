// Package builder turns a profile set and its features into a solid
// model. The base extrusion is built first, then material-removing
// features are subtracted in a fixed order so repeated conversions of
// the same drawing produce the same solid.
package builder

import (
	"fmt"
	"sort"

	"draftsolid/pkg/config"
	"draftsolid/pkg/feature"
	"draftsolid/pkg/kernel"
	"draftsolid/pkg/profile"
)

// GeometryError reports a feature or postcondition that could not be
// realized as valid solid geometry.
type GeometryError struct {
	ProfileSeq int // -1 for failures not tied to one feature
	Reason     string
	Err        error
}

func (e *GeometryError) Error() string {
	if e.ProfileSeq >= 0 {
		return fmt.Sprintf("geometry error at profile %d: %s", e.ProfileSeq, e.Reason)
	}
	return "geometry error: " + e.Reason
}

func (e *GeometryError) Unwrap() error { return e.Err }

// SkippedFeature records a feature dropped in best-effort mode.
type SkippedFeature struct {
	Feature feature.Feature
	Reason  string
}

func (s SkippedFeature) String() string {
	return fmt.Sprintf("skipped %s: %s", s.Feature, s.Reason)
}

// Result is the built model: the solid, its tessellation, and the
// features that actually went into it.
type Result struct {
	Solid     kernel.Solid
	Mesh      *kernel.Mesh
	Thickness float64
	Applied   []feature.Feature
	Skipped   []SkippedFeature
}

// featureRank orders material-removing features: through-holes first,
// then blind holes, pockets, chamfers. Within a rank, smaller profiles
// go first and remaining ties fall back to drawing insertion order.
func featureRank(s feature.Spec) int {
	switch s.(type) {
	case feature.ThroughHoleSpec:
		return 0
	case feature.BlindHoleSpec:
		return 1
	case feature.PocketSpec:
		return 2
	case feature.ChamferSpec:
		return 3
	default:
		return 4
	}
}

// Build constructs the solid for a feature list produced by feature
// detection: features[0] is the base extrude, the rest remove material.
// In best-effort mode a feature whose geometry fails is skipped and
// recorded instead of aborting the build. The result mesh is always
// verified to be a closed manifold before returning.
func Build(set *profile.Set, features []feature.Feature, cfg config.Config, k kernel.Kernel) (*Result, error) {
	if len(features) == 0 {
		return nil, &GeometryError{ProfileSeq: -1, Reason: "no features to build"}
	}

	base := features[0]
	baseSpec, ok := base.Spec.(feature.ExtrudeSpec)
	if !ok {
		return nil, &GeometryError{
			ProfileSeq: base.ProfileSeq,
			Reason:     fmt.Sprintf("first feature must be the base extrude, got %s", base.Spec.Kind()),
		}
	}
	thickness := baseSpec.Depth
	if thickness <= 0 {
		return nil, &GeometryError{
			ProfileSeq: base.ProfileSeq,
			Reason:     fmt.Sprintf("base thickness %g must be positive", thickness),
		}
	}

	outer := &set.Profiles[base.ProfileIndex]
	solid, err := extrudeProfile(outer, thickness, k)
	if err != nil {
		return nil, &GeometryError{
			ProfileSeq: base.ProfileSeq,
			Reason:     "base extrusion failed",
			Err:        err,
		}
	}

	rest := make([]feature.Feature, len(features)-1)
	copy(rest, features[1:])
	sort.SliceStable(rest, func(i, j int) bool {
		ri, rj := featureRank(rest[i].Spec), featureRank(rest[j].Spec)
		if ri != rj {
			return ri < rj
		}
		ai := set.Profiles[rest[i].ProfileIndex].Area
		aj := set.Profiles[rest[j].ProfileIndex].Area
		if ai != aj {
			return ai < aj
		}
		return rest[i].ProfileSeq < rest[j].ProfileSeq
	})

	res := &Result{Thickness: thickness, Applied: []feature.Feature{base}}

	for _, f := range rest {
		p := &set.Profiles[f.ProfileIndex]
		tool, gerr := buildTool(p, f, thickness, cfg, k)
		if gerr == nil {
			gerr = checkToolPlacement(solid, tool, f)
		}
		if gerr != nil {
			if cfg.BestEffort {
				res.Skipped = append(res.Skipped, SkippedFeature{Feature: f, Reason: gerr.Reason})
				continue
			}
			return nil, gerr
		}
		solid = k.Difference(solid, tool)
		res.Applied = append(res.Applied, f)
	}

	mesh, err := k.ToMesh(solid, cfg.MeshCells)
	if err != nil {
		return nil, &GeometryError{ProfileSeq: -1, Reason: "tessellation failed", Err: err}
	}
	if err := mesh.CheckManifold(cfg.Tolerance / 100); err != nil {
		return nil, &GeometryError{ProfileSeq: -1, Reason: "result is not a valid solid", Err: err}
	}

	res.Solid = solid
	res.Mesh = mesh
	return res, nil
}

// buildTool constructs the subtraction solid for one material-removing
// feature. Tools are extended slightly past the faces they cut through
// so boolean results do not leave coplanar skins.
func buildTool(p *profile.Profile, f feature.Feature, thickness float64, cfg config.Config, k kernel.Kernel) (kernel.Solid, *GeometryError) {
	overcut := cfg.Tolerance

	switch spec := f.Spec.(type) {
	case feature.ThroughHoleSpec:
		tool, err := extrudeProfile(p, thickness+2*overcut, k)
		if err != nil {
			return nil, toolError(f, err)
		}
		return k.Translate(tool, 0, 0, -overcut), nil

	case feature.BlindHoleSpec:
		return topTool(p, f, spec.Depth, thickness, overcut, k)

	case feature.PocketSpec:
		return topTool(p, f, spec.Depth, thickness, overcut, k)

	case feature.ChamferSpec:
		if spec.Size <= 0 || spec.Size >= thickness {
			return nil, &GeometryError{
				ProfileSeq: f.ProfileSeq,
				Reason:     fmt.Sprintf("chamfer size %g must be positive and smaller than the base thickness %g", spec.Size, thickness),
			}
		}
		// The chamfer tool is a wedge ring lofted from the profile to
		// its outward offset, seated so the offset section sits at the
		// top face.
		tool, err := k.LoftOffset(p.Outline, spec.Size, spec.Size+overcut)
		if err != nil {
			return nil, toolError(f, err)
		}
		return k.Translate(tool, 0, 0, thickness-spec.Size), nil

	default:
		return nil, &GeometryError{
			ProfileSeq: f.ProfileSeq,
			Reason:     fmt.Sprintf("no tool construction for feature kind %q", f.Spec.Kind()),
		}
	}
}

// topTool builds a depth-limited cut entering from the top face, shared
// by blind holes and pockets.
func topTool(p *profile.Profile, f feature.Feature, depth, thickness, overcut float64, k kernel.Kernel) (kernel.Solid, *GeometryError) {
	if depth <= 0 {
		return nil, &GeometryError{
			ProfileSeq: f.ProfileSeq,
			Reason:     fmt.Sprintf("%s depth %g must be positive", f.Spec.Kind(), depth),
		}
	}
	if depth >= thickness {
		return nil, &GeometryError{
			ProfileSeq: f.ProfileSeq,
			Reason:     fmt.Sprintf("%s depth %g meets or exceeds the base thickness %g", f.Spec.Kind(), depth, thickness),
		}
	}
	tool, err := extrudeProfile(p, depth+overcut, k)
	if err != nil {
		return nil, toolError(f, err)
	}
	return k.Translate(tool, 0, 0, thickness-depth), nil
}

// extrudeProfile extrudes a profile as a cylinder when it is circular
// and as a polygonal prism otherwise.
func extrudeProfile(p *profile.Profile, depth float64, k kernel.Kernel) (kernel.Solid, error) {
	if p.IsCircular() {
		return k.ExtrudeCircle(p.Circle.Center, p.Circle.Radius, depth)
	}
	return k.ExtrudePolygon(p.Outline, depth)
}

// checkToolPlacement rejects tools whose bounding box misses the
// current solid entirely; subtracting them would silently do nothing.
func checkToolPlacement(solid, tool kernel.Solid, f feature.Feature) *GeometryError {
	sMin, sMax := solid.BoundingBox()
	tMin, tMax := tool.BoundingBox()
	for axis := 0; axis < 3; axis++ {
		if tMax[axis] < sMin[axis] || tMin[axis] > sMax[axis] {
			return &GeometryError{
				ProfileSeq: f.ProfileSeq,
				Reason:     fmt.Sprintf("%s tool does not intersect the base solid", f.Spec.Kind()),
			}
		}
	}
	return nil
}

func toolError(f feature.Feature, err error) *GeometryError {
	return &GeometryError{
		ProfileSeq: f.ProfileSeq,
		Reason:     fmt.Sprintf("%s tool construction failed", f.Spec.Kind()),
		Err:        err,
	}
}
