package feature

import (
	"fmt"

	"draftsolid/pkg/config"
	"draftsolid/pkg/geom"
	"draftsolid/pkg/parser"
	"draftsolid/pkg/profile"
)

// candidate is one grammar-bearing annotation prepared for matching.
type candidate struct {
	tok      token
	text     string
	seq      int
	position geom.Point2D
}

// Detect maps every profile in the set to a feature. The base extrude
// for the outer profile comes first, followed by one feature per inner
// profile in drawing insertion order.
//
// Annotation matching is the primary path; the heuristic fallback fires
// only for profiles with no matching annotation and is reported via
// HeuristicNotes. Two annotations matching one profile abort with
// *AmbiguousAnnotationError.
func Detect(set *profile.Set, annotations []parser.Annotation, cfg config.Config) ([]Feature, []HeuristicNote, error) {
	candidates, err := collectCandidates(annotations)
	if err != nil {
		return nil, nil, err
	}

	var notes []HeuristicNote

	outer := &set.Profiles[set.Outer]
	base, note, err := resolveBase(outer, candidates, cfg)
	if err != nil {
		return nil, nil, err
	}
	if note != nil {
		notes = append(notes, *note)
	}
	thickness := base.Spec.(ExtrudeSpec).Depth

	features := []Feature{base}

	for i := range set.Profiles {
		if i == set.Outer {
			continue
		}
		p := &set.Profiles[i]
		if d := set.Depth(i); d > 1 {
			return nil, nil, &UnsupportedFeatureError{
				ProfileSeq: p.Seq,
				Reason:     fmt.Sprintf("profile is nested %d levels deep; islands inside holes are not supported", d),
			}
		}

		f, note, err := resolveInner(p, candidates, thickness, cfg)
		if err != nil {
			return nil, nil, err
		}
		if note != nil {
			notes = append(notes, *note)
		}
		features = append(features, f)
	}

	return features, notes, nil
}

// collectCandidates parses every annotation, keeping only those that
// carry a grammar token. Ordinary drawing text never participates in
// matching; malformed tokens are errors.
func collectCandidates(annotations []parser.Annotation) ([]candidate, error) {
	var out []candidate
	for _, a := range annotations {
		tok, ok, err := parseToken(a.Seq, a.Text)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, candidate{tok: tok, text: a.Text, seq: a.Seq, position: a.Position})
	}
	return out, nil
}

// match returns the grammar annotations within cfg.AnnotationRadius of
// the profile boundary.
func match(p *profile.Profile, candidates []candidate, cfg config.Config) []candidate {
	var out []candidate
	for _, c := range candidates {
		if annotationDistance(p, c.position) <= cfg.AnnotationRadius {
			out = append(out, c)
		}
	}
	return out
}

// annotationDistance is the distance from an annotation anchor to the
// profile boundary. The center also counts for circular profiles,
// since hole callouts conventionally anchor at the hole center.
// Matching deliberately ignores the centroid of non-circular profiles:
// the outer boundary's centroid usually sits on top of interior holes
// and would capture their annotations.
func annotationDistance(p *profile.Profile, pos geom.Point2D) float64 {
	best := geom.DistanceToPolygon(pos, p.Outline)
	if p.IsCircular() {
		if d := pos.Distance(p.Circle.Center); d < best {
			best = d
		}
	}
	return best
}

// resolveBase produces the base extrusion feature for the outer profile.
func resolveBase(outer *profile.Profile, candidates []candidate, cfg config.Config) (Feature, *HeuristicNote, error) {
	matches := match(outer, candidates, cfg)

	switch len(matches) {
	case 0:
		note := &HeuristicNote{
			ProfileSeq: outer.Seq,
			Message:    fmt.Sprintf("outer profile has no EXTRUDE annotation; using default thickness %.3g", cfg.DefaultThickness),
		}
		return Feature{
			ProfileIndex: outer.Index,
			ProfileSeq:   outer.Seq,
			Spec:         ExtrudeSpec{Depth: cfg.DefaultThickness},
			Provenance:   ProvenanceHeuristic,
		}, note, nil

	case 1:
		m := matches[0]
		if m.tok.kind != tokenExtrude {
			return Feature{}, nil, &UnsupportedFeatureError{
				ProfileSeq: outer.Seq,
				Reason:     fmt.Sprintf("%s annotation cannot apply to the outer boundary", m.tok.kind),
			}
		}
		return Feature{
			ProfileIndex: outer.Index,
			ProfileSeq:   outer.Seq,
			Spec:         ExtrudeSpec{Depth: m.tok.value},
			Provenance:   ProvenanceAnnotation,
		}, nil, nil

	default:
		return Feature{}, nil, ambiguous(outer.Seq, matches)
	}
}

// resolveInner produces the feature for one inner (hole/pocket) profile.
func resolveInner(p *profile.Profile, candidates []candidate, thickness float64, cfg config.Config) (Feature, *HeuristicNote, error) {
	matches := match(p, candidates, cfg)

	switch len(matches) {
	case 0:
		return heuristicInner(p, thickness, cfg)

	case 1:
		m := matches[0]
		spec, err := innerSpec(p, m, thickness, cfg)
		if err != nil {
			return Feature{}, nil, err
		}
		return Feature{
			ProfileIndex: p.Index,
			ProfileSeq:   p.Seq,
			Spec:         spec,
			Provenance:   ProvenanceAnnotation,
		}, nil, nil

	default:
		return Feature{}, nil, ambiguous(p.Seq, matches)
	}
}

// innerSpec converts a matched annotation token into a feature spec for
// an inner profile. THRU forces the hole depth to the base thickness
// regardless of the stated value; a depth-less blind hole falls back to
// the configured default.
func innerSpec(p *profile.Profile, m candidate, thickness float64, cfg config.Config) (Spec, error) {
	switch m.tok.kind {
	case tokenHole:
		if m.tok.thru {
			return ThroughHoleSpec{Depth: thickness}, nil
		}
		depth := m.tok.value
		if !m.tok.hasValue {
			depth = cfg.DefaultHoleDepth
		}
		return BlindHoleSpec{Depth: depth}, nil
	case tokenPocket:
		return PocketSpec{Depth: m.tok.value}, nil
	case tokenChamfer:
		return ChamferSpec{Size: m.tok.value}, nil
	case tokenExtrude:
		return nil, &UnsupportedFeatureError{
			ProfileSeq: p.Seq,
			Reason:     "EXTRUDE annotation cannot apply to an inner profile",
		}
	default:
		return nil, &UnsupportedFeatureError{
			ProfileSeq: p.Seq,
			Reason:     "unrecognized annotation token",
		}
	}
}

// heuristicInner is the fallback for unannotated inner profiles: a
// circular profile becomes a through-hole at full thickness, anything
// else a pocket at the configured fraction of the thickness.
func heuristicInner(p *profile.Profile, thickness float64, cfg config.Config) (Feature, *HeuristicNote, error) {
	if p.IsCircular() {
		note := &HeuristicNote{
			ProfileSeq: p.Seq,
			Message:    fmt.Sprintf("circular profile has no annotation; assuming through-hole of depth %.3g", thickness),
		}
		return Feature{
			ProfileIndex: p.Index,
			ProfileSeq:   p.Seq,
			Spec:         ThroughHoleSpec{Depth: thickness},
			Provenance:   ProvenanceHeuristic,
		}, note, nil
	}

	depth := cfg.PocketDepthFraction * thickness
	note := &HeuristicNote{
		ProfileSeq: p.Seq,
		Message:    fmt.Sprintf("profile has no annotation; assuming pocket of depth %.3g", depth),
	}
	return Feature{
		ProfileIndex: p.Index,
		ProfileSeq:   p.Seq,
		Spec:         PocketSpec{Depth: depth},
		Provenance:   ProvenanceHeuristic,
	}, note, nil
}

func ambiguous(profileSeq int, matches []candidate) error {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.text
	}
	return &AmbiguousAnnotationError{ProfileSeq: profileSeq, Candidates: texts}
}
