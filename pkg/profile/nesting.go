package profile

import (
	"draftsolid/pkg/geom"
)

// classifyNesting assigns every profile its immediate parent by
// containment testing and marks the outer boundary. Containment is
// decided from an interior sample point, never guessed: a profile with
// competing parents of equal claim, or a drawing with more than one
// top-level profile, aborts with *AmbiguousNestingError.
func classifyNesting(set *Set) error {
	n := len(set.Profiles)

	samples := make([]geom.Point2D, n)
	for i := range set.Profiles {
		samples[i] = interiorPoint(&set.Profiles[i])
	}

	// contains[a][b] reports a strictly containing b. The strict area
	// requirement keeps containment antisymmetric: two profiles of
	// equal area can never contain each other.
	contains := func(a, b int) bool {
		pa, pb := &set.Profiles[a], &set.Profiles[b]
		if pa.Area <= pb.Area {
			return false
		}
		if !pa.BBox.Intersects(pb.BBox) {
			return false
		}
		return geom.PointInPolygon(samples[b], pa.Outline)
	}

	for i := range set.Profiles {
		var containers []int
		for j := range set.Profiles {
			if i != j && contains(j, i) {
				containers = append(containers, j)
			}
		}

		switch len(containers) {
		case 0:
			set.Profiles[i].Parent = -1
		case 1:
			set.Profiles[i].Parent = containers[0]
		default:
			parent, ok := innermost(set, contains, containers)
			if !ok {
				seqs := make([]int, len(containers))
				for k, c := range containers {
					seqs[k] = set.Profiles[c].Seq
				}
				return &AmbiguousNestingError{
					ProfileSeq: set.Profiles[i].Seq,
					Candidates: seqs,
					Reason:     "multiple parent candidates with equal claim",
				}
			}
			set.Profiles[i].Parent = parent
		}
	}

	var roots []int
	for i := range set.Profiles {
		if set.Profiles[i].Parent == -1 {
			roots = append(roots, i)
		}
	}

	if len(roots) > 1 {
		seqs := make([]int, len(roots))
		for k, r := range roots {
			seqs[k] = set.Profiles[r].Seq
		}
		return &AmbiguousNestingError{
			ProfileSeq: -1,
			Candidates: seqs,
			Reason:     "multiple top-level profiles, outer boundary is ambiguous",
		}
	}

	set.Outer = roots[0]
	set.Profiles[set.Outer].Outer = true
	return nil
}

// innermost resolves a set of containers to the single innermost one.
// The containers must form a chain (every pair related by containment);
// the smallest-area element of a chain is the immediate parent.
// Returns false when the containers overlap without nesting, which is
// exactly the equal-claim ambiguity the pipeline must refuse to guess.
func innermost(set *Set, contains func(a, b int) bool, containers []int) (int, bool) {
	for x := 0; x < len(containers); x++ {
		for y := x + 1; y < len(containers); y++ {
			a, b := containers[x], containers[y]
			if !contains(a, b) && !contains(b, a) {
				return 0, false
			}
		}
	}
	best := containers[0]
	for _, c := range containers[1:] {
		if set.Profiles[c].Area < set.Profiles[best].Area {
			best = c
		}
	}
	return best, true
}

// interiorPoint returns a point strictly inside the profile. The
// centroid works for convex and mildly concave outlines; for outlines
// whose centroid falls outside, midpoints of outline diagonals are
// probed as a fallback.
func interiorPoint(p *Profile) geom.Point2D {
	if p.Circle != nil {
		return p.Circle.Center
	}
	if geom.PointInPolygon(p.Centroid, p.Outline) {
		return p.Centroid
	}
	n := len(p.Outline)
	for i := 0; i < n; i++ {
		a := p.Outline[i]
		b := p.Outline[(i+2)%n]
		mid := geom.Point2D{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		if geom.PointInPolygon(mid, p.Outline) {
			return mid
		}
	}
	return p.BBox.Center()
}
