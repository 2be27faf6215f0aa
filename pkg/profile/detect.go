package profile

import (
	"math"
	"sort"

	"draftsolid/pkg/config"
	"draftsolid/pkg/geom"
	"draftsolid/pkg/parser"
)

// orientedEdge is an edge traversed forward or reversed during a walk.
type orientedEdge struct {
	edge     parser.Edge
	reversed bool
}

func (o orientedEdge) from() geom.Point2D {
	if o.reversed {
		return o.edge.End
	}
	return o.edge.Start
}

func (o orientedEdge) to() geom.Point2D {
	if o.reversed {
		return o.edge.Start
	}
	return o.edge.End
}

// Detect chains the parsed edges into closed profiles and classifies
// their nesting. Edges that cannot complete a closed walk are returned
// as dangling-edge warnings and excluded from the result. Detect fails
// with ErrNoOuterBoundary when no closed profile exists, and with
// *AmbiguousNestingError when containment cannot be resolved.
func Detect(res *parser.Result, cfg config.Config) (*Set, []DanglingEdgeWarning, error) {
	var (
		profiles []Profile
		warnings []DanglingEdgeWarning
	)

	// Native circles are closed loops on their own.
	var chainable []parser.Edge
	for _, e := range res.Edges {
		if e.IsClosed() {
			profiles = append(profiles, circleProfile(e, cfg))
			continue
		}
		chainable = append(chainable, e)
	}

	chains, dangling := walkChains(chainable, cfg)
	warnings = append(warnings, dangling...)

	for _, chain := range chains {
		profiles = append(profiles, chainProfile(chain, cfg))
	}

	if len(profiles) == 0 {
		return nil, warnings, ErrNoOuterBoundary{}
	}

	// Arena order is drawing insertion order, so repeated conversions
	// of the same input yield structurally identical sets.
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Seq < profiles[j].Seq
	})
	for i := range profiles {
		profiles[i].Index = i
		profiles[i].Parent = -1
	}

	set := &Set{Profiles: profiles}
	if err := classifyNesting(set); err != nil {
		return nil, warnings, err
	}

	return set, warnings, nil
}

// walkChains repeatedly selects the unvisited edge with the lowest
// insertion order and walks connected unvisited edges until the walk
// returns to its starting point. Edges on walks that cannot close are
// reported as dangling.
func walkChains(edges []parser.Edge, cfg config.Config) ([][]orientedEdge, []DanglingEdgeWarning) {
	// Endpoints were snapped to shared representatives by the parser,
	// so adjacency can key on exact coordinates.
	type endpointKey geom.Point2D
	adjacency := make(map[endpointKey][]int)
	for i, e := range edges {
		adjacency[endpointKey(e.Start)] = append(adjacency[endpointKey(e.Start)], i)
		adjacency[endpointKey(e.End)] = append(adjacency[endpointKey(e.End)], i)
	}

	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return edges[order[a]].Seq < edges[order[b]].Seq
	})

	visited := make([]bool, len(edges))

	// nextEdge picks the unvisited edge with the lowest insertion order
	// incident to p, for a deterministic walk.
	nextEdge := func(p geom.Point2D) (int, bool) {
		best := -1
		for _, idx := range adjacency[endpointKey(p)] {
			if visited[idx] {
				continue
			}
			if best == -1 || edges[idx].Seq < edges[best].Seq {
				best = idx
			}
		}
		if best == -1 {
			return 0, false
		}
		return best, true
	}

	var (
		chains   [][]orientedEdge
		dangling []DanglingEdgeWarning
	)

	for _, startIdx := range order {
		if visited[startIdx] {
			continue
		}
		visited[startIdx] = true
		start := edges[startIdx]
		chain := []orientedEdge{{edge: start}}
		origin := start.Start
		cur := start.End

		closed := cur.Distance(origin) <= cfg.Tolerance
		for !closed {
			idx, ok := nextEdge(cur)
			if !ok {
				break
			}
			visited[idx] = true
			e := edges[idx]
			oe := orientedEdge{edge: e, reversed: e.End.Distance(cur) <= cfg.Tolerance}
			chain = append(chain, oe)
			cur = oe.to()
			closed = cur.Distance(origin) <= cfg.Tolerance
		}

		if closed {
			chains = append(chains, chain)
			continue
		}
		for _, oe := range chain {
			dangling = append(dangling, DanglingEdgeWarning{
				Seq:   oe.edge.Seq,
				Kind:  oe.edge.Kind,
				Start: oe.edge.Start,
				End:   oe.edge.End,
			})
		}
	}

	return chains, dangling
}

// circleProfile builds the profile for a native circle entity.
func circleProfile(e parser.Edge, cfg config.Config) Profile {
	outline := geom.CirclePoints(e.Center, e.Radius, cfg.ArcSegments*2)
	return Profile{
		Edges:    []parser.Edge{e},
		Outline:  outline,
		Area:     math.Pi * e.Radius * e.Radius,
		Centroid: e.Center,
		BBox:     geom.BoundingBox(outline),
		Circle:   &geom.CircleFit{Center: e.Center, Radius: e.Radius},
		Seq:      e.Seq,
	}
}

// chainProfile builds the profile for a closed walk of edges.
func chainProfile(chain []orientedEdge, cfg config.Config) Profile {
	var pts []geom.Point2D
	minSeq := chain[0].edge.Seq
	edges := make([]parser.Edge, 0, len(chain))

	for _, oe := range chain {
		edges = append(edges, oe.edge)
		if oe.edge.Seq < minSeq {
			minSeq = oe.edge.Seq
		}
		sampled := oe.edge.Points(cfg.ArcSegments)
		if oe.reversed {
			for i, j := 0, len(sampled)-1; i < j; i, j = i+1, j-1 {
				sampled[i], sampled[j] = sampled[j], sampled[i]
			}
		}
		pts = append(pts, sampled...)
	}

	outline := geom.DedupePoints(pts, cfg.Tolerance/2)
	p := Profile{
		Edges:    edges,
		Outline:  outline,
		Area:     geom.Area(outline),
		Centroid: geom.Centroid(outline),
		BBox:     geom.BoundingBox(outline),
		Seq:      minSeq,
	}

	// A loop of arcs may be a circle in disguise; the hole heuristics
	// care about the distinction.
	if fit, ok := geom.IsCircular(outline, cfg.Tolerance); ok {
		p.Circle = &fit
		p.Centroid = fit.Center
	}
	return p
}
