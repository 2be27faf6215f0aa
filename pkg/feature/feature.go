// Package feature maps classified profiles to inferred 3D operations.
// Each profile yields at most one Feature, either from an annotation
// (authoritative) or from a heuristic fallback (best-effort, flagged).
package feature

import (
	"fmt"
	"strings"
)

// Provenance records how a feature's parameters were derived.
type Provenance int

const (
	ProvenanceAnnotation Provenance = iota
	ProvenanceHeuristic
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceAnnotation:
		return "annotation"
	case ProvenanceHeuristic:
		return "heuristic"
	default:
		return "unknown"
	}
}

// Spec is the closed union of feature parameter payloads. The marker
// method restricts implementations to this package so the builder's
// dispatch is exhaustive.
type Spec interface {
	featureSpec()
	Kind() string
}

// ExtrudeSpec is the base solid extrusion.
type ExtrudeSpec struct {
	Depth float64
}

func (ExtrudeSpec) featureSpec() {}

// Kind returns the feature kind name.
func (ExtrudeSpec) Kind() string { return "extrude" }

// ThroughHoleSpec is a hole through the full base thickness.
type ThroughHoleSpec struct {
	Depth float64 // always the resolved base thickness
}

func (ThroughHoleSpec) featureSpec() {}

// Kind returns the feature kind name.
func (ThroughHoleSpec) Kind() string { return "through-hole" }

// BlindHoleSpec is a hole of a fixed depth less than the base thickness.
type BlindHoleSpec struct {
	Depth float64
}

func (BlindHoleSpec) featureSpec() {}

// Kind returns the feature kind name.
func (BlindHoleSpec) Kind() string { return "blind-hole" }

// PocketSpec is a recessed region of fixed depth.
type PocketSpec struct {
	Depth float64
}

func (PocketSpec) featureSpec() {}

// Kind returns the feature kind name.
func (PocketSpec) Kind() string { return "pocket" }

// ChamferSpec is a beveled rim of the given size on a profile's top edge.
type ChamferSpec struct {
	Size float64
}

func (ChamferSpec) featureSpec() {}

// Kind returns the feature kind name.
func (ChamferSpec) Kind() string { return "chamfer" }

// Feature is one inferred 3D operation tied to its source profile.
// Features are created once here and consumed exactly once by the
// model builder.
type Feature struct {
	ProfileIndex int // index into the profile set arena
	ProfileSeq   int // drawing insertion order, for diagnostics and ties
	Spec         Spec
	Provenance   Provenance
}

func (f Feature) String() string {
	return fmt.Sprintf("%s(profile %d, %s)", f.Spec.Kind(), f.ProfileSeq, f.Provenance)
}

// HeuristicNote flags one best-effort feature in the job diagnostics.
type HeuristicNote struct {
	ProfileSeq int
	Message    string
}

// AmbiguousAnnotationError reports two or more annotations competing
// for the same profile. Never resolved by an arbitrary choice; the job
// aborts naming every candidate.
type AmbiguousAnnotationError struct {
	ProfileSeq int
	Candidates []string // annotation texts
}

func (e *AmbiguousAnnotationError) Error() string {
	return fmt.Sprintf("ambiguous annotation for profile at entity %d: %d candidates match (%s)",
		e.ProfileSeq, len(e.Candidates), strings.Join(e.Candidates, " | "))
}

// MalformedAnnotationError reports annotation text that names a
// recognized token but fails the grammar.
type MalformedAnnotationError struct {
	AnnotationSeq int
	Text          string
	Reason        string
}

func (e *MalformedAnnotationError) Error() string {
	return fmt.Sprintf("malformed annotation at entity %d (%q): %s", e.AnnotationSeq, e.Text, e.Reason)
}

// UnsupportedFeatureError reports a profile that cannot be mapped to
// any feature variant, such as an island nested inside a hole or an
// annotation kind that does not fit the profile's role.
type UnsupportedFeatureError struct {
	ProfileSeq int
	Reason     string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported feature for profile at entity %d: %s", e.ProfileSeq, e.Reason)
}
