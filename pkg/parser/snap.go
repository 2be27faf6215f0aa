package parser

import (
	"math"

	"draftsolid/pkg/geom"
)

// snapper maps near-coincident points (within tol) onto a shared
// representative coordinate. It hashes points onto a grid of cell size
// tol and checks the 3x3 neighborhood, so two points within tol always
// land on the same representative regardless of cell boundaries.
type snapper struct {
	tol  float64
	reps map[cellKey][]geom.Point2D
}

type cellKey struct {
	x, y int64
}

func newSnapper(tol float64) *snapper {
	return &snapper{
		tol:  tol,
		reps: make(map[cellKey][]geom.Point2D),
	}
}

func (s *snapper) cell(p geom.Point2D) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / s.tol)),
		y: int64(math.Floor(p.Y / s.tol)),
	}
}

// Snap returns the representative coordinate for p, registering p as a
// new representative if none exists within tol.
func (s *snapper) Snap(p geom.Point2D) geom.Point2D {
	c := s.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			k := cellKey{x: c.x + dx, y: c.y + dy}
			for _, rep := range s.reps[k] {
				if rep.Distance(p) <= s.tol {
					return rep
				}
			}
		}
	}
	s.reps[c] = append(s.reps[c], p)
	return p
}
