// Package profile chains parsed edges into closed profiles and
// classifies their nesting. Profiles live in a flat arena (Set) with
// parent links as indices, forming a containment forest with no
// back-references between profiles.
package profile

import (
	"fmt"
	"strings"

	"draftsolid/pkg/geom"
	"draftsolid/pkg/parser"
)

// Profile is one closed loop of edges bounding a planar region.
// Profiles are frozen once the detector returns them.
type Profile struct {
	Index int // position in the owning Set

	Edges   []parser.Edge  // ordered closed chain
	Outline []geom.Point2D // sampled boundary polygon, no repeated last point

	Area     float64
	Centroid geom.Point2D
	BBox     geom.Rect

	Outer  bool
	Parent int // index of the immediate containing profile, -1 for roots

	// Circle is set when the profile is a circle, either a native
	// circle entity or a chain that fits a circle within tolerance.
	Circle *geom.CircleFit

	// Seq is the smallest drawing insertion order among member edges.
	Seq int
}

// IsCircular reports whether the profile is a circle.
func (p *Profile) IsCircular() bool {
	return p.Circle != nil
}

// Set is the arena of all profiles detected in one drawing.
type Set struct {
	Profiles []Profile
	Outer    int // index of the outer boundary profile
}

// Children returns the indices of profiles whose immediate parent is i.
func (s *Set) Children(i int) []int {
	var out []int
	for j := range s.Profiles {
		if s.Profiles[j].Parent == i {
			out = append(out, j)
		}
	}
	return out
}

// Depth returns the nesting depth of profile i (0 for the root).
func (s *Set) Depth(i int) int {
	depth := 0
	for s.Profiles[i].Parent >= 0 {
		i = s.Profiles[i].Parent
		depth++
	}
	return depth
}

// DanglingEdgeWarning reports an edge that could not be chained into a
// closed profile. Non-fatal: the edge is excluded from downstream
// processing and the job continues.
type DanglingEdgeWarning struct {
	Seq   int
	Kind  parser.EdgeKind
	Start geom.Point2D
	End   geom.Point2D
}

func (w DanglingEdgeWarning) String() string {
	return fmt.Sprintf("dangling %s (entity %d) from (%.3f, %.3f) to (%.3f, %.3f) excluded",
		w.Kind, w.Seq, w.Start.X, w.Start.Y, w.End.X, w.End.Y)
}

// AmbiguousNestingError reports a profile whose containment cannot be
// resolved to a single parent, or a drawing with more than one
// top-level profile. Containment is never guessed; this aborts the job.
type AmbiguousNestingError struct {
	ProfileSeq int   // entity seq of the ambiguous profile, -1 for drawing-level
	Candidates []int // entity seqs of the competing profiles
	Reason     string
}

func (e *AmbiguousNestingError) Error() string {
	seqs := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		seqs[i] = fmt.Sprintf("%d", c)
	}
	if e.ProfileSeq < 0 {
		return fmt.Sprintf("ambiguous nesting: %s (candidates: entities %s)",
			e.Reason, strings.Join(seqs, ", "))
	}
	return fmt.Sprintf("ambiguous nesting for profile at entity %d: %s (candidates: entities %s)",
		e.ProfileSeq, e.Reason, strings.Join(seqs, ", "))
}

// ErrNoOuterBoundary is returned when a drawing contains no closed
// profile at all. An empty solid is never produced.
type ErrNoOuterBoundary struct{}

func (ErrNoOuterBoundary) Error() string {
	return "no outer boundary found: drawing contains no closed profile"
}
