package parser

import (
	"errors"
	"math"
	"testing"

	"draftsolid/pkg/config"
	"draftsolid/pkg/drawing"
	"draftsolid/pkg/geom"
)

func pt(x, y float64) *geom.Point2D {
	return &geom.Point2D{X: x, Y: y}
}

func line(x1, y1, x2, y2 float64) drawing.Entity {
	return drawing.Entity{Type: drawing.EntityLine, Start: pt(x1, y1), End: pt(x2, y2)}
}

func TestParseSnapsNearCoincidentEndpoints(t *testing.T) {
	cfg := config.Default()
	// Second line starts 0.05 away from the first line's end, inside the
	// 0.1 snapping tolerance.
	doc := &drawing.Document{Entities: []drawing.Entity{
		line(0, 0, 10, 0),
		line(10.05, 0, 10, 10),
	}}

	res, err := Parse(doc, cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(res.Edges))
	}
	if res.Edges[0].End != res.Edges[1].Start {
		t.Errorf("endpoints not snapped to a shared coordinate: %v vs %v",
			res.Edges[0].End, res.Edges[1].Start)
	}
}

func TestParseDropsDegenerateEntities(t *testing.T) {
	cfg := config.Default()
	doc := &drawing.Document{Entities: []drawing.Entity{
		line(0, 0, 10, 0),
		line(5, 5, 5.01, 5), // zero length after snapping
		{Type: drawing.EntityCircle, Center: pt(0, 0), Radius: 0},
		{Type: drawing.EntityArc, Center: pt(0, 0), Radius: -1},
	}}

	res, err := Parse(doc, cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Edges) != 1 {
		t.Errorf("got %d edges, want 1", len(res.Edges))
	}
	if res.DegenerateDropped != 3 {
		t.Errorf("DegenerateDropped = %d, want 3", res.DegenerateDropped)
	}
}

func TestParseRejectsUnsupportedEntity(t *testing.T) {
	cfg := config.Default()
	doc := &drawing.Document{Entities: []drawing.Entity{
		line(0, 0, 10, 0),
		{Type: "spline"},
	}}

	_, err := Parse(doc, cfg)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}
	if perr.EntityIndex != 1 {
		t.Errorf("EntityIndex = %d, want 1", perr.EntityIndex)
	}
}

func TestParseRejectsMalformedEntities(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name string
		ent  drawing.Entity
	}{
		{"line without end", drawing.Entity{Type: drawing.EntityLine, Start: pt(0, 0)}},
		{"arc without center", drawing.Entity{Type: drawing.EntityArc, Radius: 5}},
		{"circle without center", drawing.Entity{Type: drawing.EntityCircle, Radius: 5}},
		{"text without position", drawing.Entity{Type: drawing.EntityText, Text: "HOLE: THRU"}},
		{"empty text", drawing.Entity{Type: drawing.EntityText, Position: pt(0, 0)}},
		{"one-point polyline", drawing.Entity{Type: drawing.EntityPolyline, Points: []geom.Point2D{{X: 0, Y: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &drawing.Document{Entities: []drawing.Entity{tt.ent}}
			var perr *ParseError
			if _, err := Parse(doc, cfg); !errors.As(err, &perr) {
				t.Errorf("Parse() error = %v, want *ParseError", err)
			}
		})
	}
}

func TestParseArcComputesEndpoints(t *testing.T) {
	cfg := config.Default()
	doc := &drawing.Document{Entities: []drawing.Entity{
		{Type: drawing.EntityArc, Center: pt(0, 0), Radius: 10, StartAngle: 0, EndAngle: 90},
	}}

	res, err := Parse(doc, cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := res.Edges[0]
	if e.Kind != EdgeArc {
		t.Fatalf("Kind = %v, want arc", e.Kind)
	}
	if e.Start.Distance(geom.Point2D{X: 10, Y: 0}) > 1e-9 {
		t.Errorf("Start = %v, want (10, 0)", e.Start)
	}
	if e.End.Distance(geom.Point2D{X: 0, Y: 10}) > 1e-9 {
		t.Errorf("End = %v, want (0, 10)", e.End)
	}
	if math.Abs(e.EndAngle-math.Pi/2) > 1e-9 {
		t.Errorf("EndAngle = %v rad, want pi/2", e.EndAngle)
	}
}

func TestParseExplodesPolyline(t *testing.T) {
	cfg := config.Default()
	doc := &drawing.Document{Entities: []drawing.Entity{
		{Type: drawing.EntityPolyline, Closed: true, Points: []geom.Point2D{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
		}},
	}}

	res, err := Parse(doc, cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// Three explicit segments plus the closing segment.
	if len(res.Edges) != 4 {
		t.Fatalf("got %d edges, want 4", len(res.Edges))
	}
	for _, e := range res.Edges {
		if e.Seq != 0 {
			t.Errorf("exploded segment Seq = %d, want 0", e.Seq)
		}
	}
	if res.Edges[3].End != res.Edges[0].Start {
		t.Error("closing segment does not return to the first point")
	}
}

func TestParseCollectsAnnotations(t *testing.T) {
	cfg := config.Default()
	doc := &drawing.Document{Entities: []drawing.Entity{
		line(0, 0, 10, 0),
		{Type: drawing.EntityText, Text: "EXTRUDE: 15mm", Position: pt(5, 5)},
	}}

	res, err := Parse(doc, cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(res.Annotations))
	}
	a := res.Annotations[0]
	if a.Text != "EXTRUDE: 15mm" || a.Seq != 1 {
		t.Errorf("unexpected annotation: %+v", a)
	}
}

func TestEdgePoints(t *testing.T) {
	e := Edge{Kind: EdgeLine, Start: geom.Point2D{X: 0, Y: 0}, End: geom.Point2D{X: 1, Y: 0}}
	pts := e.Points(16)
	if len(pts) != 2 {
		t.Errorf("line Points() = %d points, want 2", len(pts))
	}

	c := Edge{Kind: EdgeCircle, Center: geom.Point2D{X: 0, Y: 0}, Radius: 5}
	if !c.IsClosed() {
		t.Error("circle edge should be closed")
	}
	if got := len(c.Points(16)); got != 32 {
		t.Errorf("circle Points() = %d points, want 32", got)
	}
}
