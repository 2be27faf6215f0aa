// Package parser turns a decoded drawing document into the typed edge
// and annotation sets consumed by profile detection. Edges and
// annotations are created here once and never mutated afterward.
package parser

import (
	"fmt"
	"math"

	"draftsolid/pkg/config"
	"draftsolid/pkg/drawing"
	"draftsolid/pkg/geom"
)

// EdgeKind distinguishes the supported geometric primitives.
type EdgeKind int

const (
	EdgeLine EdgeKind = iota
	EdgeArc
	EdgeCircle
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeLine:
		return "line"
	case EdgeArc:
		return "arc"
	case EdgeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Edge is one geometric primitive with snapped endpoints. Seq is the
// drawing insertion order, used for deterministic tie-breaking.
type Edge struct {
	Kind  EdgeKind
	Layer string
	Seq   int

	Start geom.Point2D // line, arc
	End   geom.Point2D // line, arc

	Center     geom.Point2D // arc, circle
	Radius     float64      // arc, circle
	StartAngle float64      // arc, radians
	EndAngle   float64      // arc, radians
}

// IsClosed reports whether the edge is a closed loop on its own.
func (e Edge) IsClosed() bool {
	return e.Kind == EdgeCircle
}

// Points returns the edge sampled as a polyline in drawing order.
// Arcs are approximated with the configured number of segments.
func (e Edge) Points(arcSegments int) []geom.Point2D {
	switch e.Kind {
	case EdgeLine:
		return []geom.Point2D{e.Start, e.End}
	case EdgeArc:
		return geom.ArcPoints(e.Center, e.Radius, e.StartAngle, e.EndAngle, arcSegments)
	case EdgeCircle:
		return geom.CirclePoints(e.Center, e.Radius, arcSegments*2)
	default:
		return nil
	}
}

// Annotation is a text entity with its anchor position.
type Annotation struct {
	Text     string
	Position geom.Point2D
	Seq      int
}

// Result is the complete parser output for one drawing.
type Result struct {
	Edges       []Edge
	Annotations []Annotation

	// DegenerateDropped counts zero-length or zero-radius entities
	// removed during parsing. Reported as a soft diagnostic upstream.
	DegenerateDropped int
}

// ParseError reports structurally malformed input or an entity type
// outside the supported primitive set. It aborts the job.
type ParseError struct {
	EntityIndex int
	EntityType  drawing.EntityType
	Reason      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: entity %d (%s): %s", e.EntityIndex, e.EntityType, e.Reason)
}

// Parse converts a drawing document into edges and annotations.
// Near-coincident endpoints are snapped to a shared coordinate within
// cfg.Tolerance. Degenerate entities are dropped and counted;
// malformed or unsupported entities fail with *ParseError.
func Parse(doc *drawing.Document, cfg config.Config) (*Result, error) {
	if doc == nil {
		return nil, &ParseError{Reason: "nil document"}
	}

	res := &Result{}
	snap := newSnapper(cfg.Tolerance)

	for i, ent := range doc.Entities {
		switch ent.Type {
		case drawing.EntityLine:
			if ent.Start == nil || ent.End == nil {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "line requires start and end"}
			}
			start, end := snap.Snap(*ent.Start), snap.Snap(*ent.End)
			if start.Distance(end) <= cfg.Tolerance {
				res.DegenerateDropped++
				continue
			}
			res.Edges = append(res.Edges, Edge{
				Kind: EdgeLine, Layer: ent.Layer, Seq: i,
				Start: start, End: end,
			})

		case drawing.EntityArc:
			if ent.Center == nil {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "arc requires center"}
			}
			if ent.Radius <= 0 {
				res.DegenerateDropped++
				continue
			}
			sa := ent.StartAngle * math.Pi / 180
			ea := ent.EndAngle * math.Pi / 180
			start := snap.Snap(geom.Point2D{
				X: ent.Center.X + ent.Radius*math.Cos(sa),
				Y: ent.Center.Y + ent.Radius*math.Sin(sa),
			})
			end := snap.Snap(geom.Point2D{
				X: ent.Center.X + ent.Radius*math.Cos(ea),
				Y: ent.Center.Y + ent.Radius*math.Sin(ea),
			})
			res.Edges = append(res.Edges, Edge{
				Kind: EdgeArc, Layer: ent.Layer, Seq: i,
				Start: start, End: end,
				Center: *ent.Center, Radius: ent.Radius,
				StartAngle: sa, EndAngle: ea,
			})

		case drawing.EntityCircle:
			if ent.Center == nil {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "circle requires center"}
			}
			if ent.Radius <= 0 {
				res.DegenerateDropped++
				continue
			}
			res.Edges = append(res.Edges, Edge{
				Kind: EdgeCircle, Layer: ent.Layer, Seq: i,
				Center: *ent.Center, Radius: ent.Radius,
			})

		case drawing.EntityPolyline:
			if len(ent.Points) < 2 {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "polyline requires at least two points"}
			}
			segs := explodePolyline(ent, snap, cfg.Tolerance)
			if len(segs) == 0 {
				res.DegenerateDropped++
				continue
			}
			for _, s := range segs {
				s.Seq = i
				s.Layer = ent.Layer
				res.Edges = append(res.Edges, s)
			}

		case drawing.EntityText:
			if ent.Position == nil {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "text requires a position"}
			}
			if ent.Text == "" {
				return nil, &ParseError{EntityIndex: i, EntityType: ent.Type, Reason: "text entity is empty"}
			}
			res.Annotations = append(res.Annotations, Annotation{
				Text:     ent.Text,
				Position: *ent.Position,
				Seq:      i,
			})

		default:
			return nil, &ParseError{
				EntityIndex: i,
				EntityType:  ent.Type,
				Reason:      "unsupported entity type",
			}
		}
	}

	return res, nil
}

// explodePolyline converts a polyline into line edges, closing the loop
// for closed polylines. Zero-length segments are skipped.
func explodePolyline(ent drawing.Entity, snap *snapper, tol float64) []Edge {
	pts := make([]geom.Point2D, len(ent.Points))
	for i, p := range ent.Points {
		pts[i] = snap.Snap(p)
	}

	var edges []Edge
	for i := 0; i < len(pts)-1; i++ {
		if pts[i].Distance(pts[i+1]) <= tol {
			continue
		}
		edges = append(edges, Edge{Kind: EdgeLine, Start: pts[i], End: pts[i+1]})
	}
	if ent.Closed && len(pts) > 2 {
		first, last := pts[0], pts[len(pts)-1]
		if first.Distance(last) > tol {
			edges = append(edges, Edge{Kind: EdgeLine, Start: last, End: first})
		}
	}
	return edges
}
