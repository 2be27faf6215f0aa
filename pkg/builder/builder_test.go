package builder

import (
	"errors"
	"testing"

	"draftsolid/pkg/config"
	"draftsolid/pkg/feature"
	"draftsolid/pkg/geom"
	"draftsolid/pkg/kernel"
	"draftsolid/pkg/profile"
)

// fakeSolid tracks only a bounding box.
type fakeSolid struct {
	minBB, maxBB [3]float64
}

func (s *fakeSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// fakeKernel implements kernel.Kernel with bounding-box arithmetic and
// a fixed closed mesh, so builder logic can be tested without sdfx.
type fakeKernel struct {
	meshErr     error
	brokenMesh  bool
	differences int
}

var _ kernel.Kernel = (*fakeKernel)(nil)

func boxSolid(bb geom.Rect, depth float64) *fakeSolid {
	return &fakeSolid{
		minBB: [3]float64{bb.X, bb.Y, 0},
		maxBB: [3]float64{bb.X + bb.Width, bb.Y + bb.Height, depth},
	}
}

func (k *fakeKernel) ExtrudePolygon(outline []geom.Point2D, depth float64) (kernel.Solid, error) {
	return boxSolid(geom.BoundingBox(outline), depth), nil
}

func (k *fakeKernel) ExtrudeCircle(center geom.Point2D, radius, depth float64) (kernel.Solid, error) {
	bb := geom.Rect{X: center.X - radius, Y: center.Y - radius, Width: 2 * radius, Height: 2 * radius}
	return boxSolid(bb, depth), nil
}

func (k *fakeKernel) LoftOffset(outline []geom.Point2D, offset, height float64) (kernel.Solid, error) {
	bb := geom.BoundingBox(outline)
	bb.X -= offset
	bb.Y -= offset
	bb.Width += 2 * offset
	bb.Height += 2 * offset
	return boxSolid(bb, height), nil
}

func (k *fakeKernel) Union(a, _ kernel.Solid) kernel.Solid { return a }

func (k *fakeKernel) Difference(a, _ kernel.Solid) kernel.Solid {
	k.differences++
	return a
}

func (k *fakeKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	f := s.(*fakeSolid)
	return &fakeSolid{
		minBB: [3]float64{f.minBB[0] + x, f.minBB[1] + y, f.minBB[2] + z},
		maxBB: [3]float64{f.maxBB[0] + x, f.maxBB[1] + y, f.maxBB[2] + z},
	}
}

func (k *fakeKernel) ToMesh(_ kernel.Solid, _ int) (*kernel.Mesh, error) {
	if k.meshErr != nil {
		return nil, k.meshErr
	}
	if k.brokenMesh {
		// A single triangle is an open surface.
		return &kernel.Mesh{
			Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
			Indices:  []uint32{0, 1, 2},
		}, nil
	}
	return &kernel.Mesh{
		Vertices: []float32{
			0, 0, 0,
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Normals: []float32{
			0, 0, -1,
			0, 0, -1,
			0, 0, -1,
			0, 0, 1,
		},
		Indices: []uint32{
			0, 2, 1,
			0, 1, 3,
			0, 3, 2,
			1, 2, 3,
		},
	}, nil
}

// plateSet builds a set with a 100x100 outer square and the given inner
// profiles.
func plateSet(inners ...profile.Profile) *profile.Set {
	outer := profile.Profile{
		Index:   0,
		Outline: []geom.Point2D{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
		Area:    10000,
		BBox:    geom.Rect{X: 0, Y: 0, Width: 100, Height: 100},
		Outer:   true,
		Parent:  -1,
		Seq:     0,
	}
	set := &profile.Set{Profiles: []profile.Profile{outer}, Outer: 0}
	for i := range inners {
		p := inners[i]
		p.Index = len(set.Profiles)
		p.Parent = 0
		set.Profiles = append(set.Profiles, p)
	}
	return set
}

func circleProfile(cx, cy, r float64, seq int) profile.Profile {
	outline := geom.CirclePoints(geom.Point2D{X: cx, Y: cy}, r, 32)
	return profile.Profile{
		Outline:  outline,
		Area:     3.14159 * r * r,
		Centroid: geom.Point2D{X: cx, Y: cy},
		BBox:     geom.BoundingBox(outline),
		Circle:   &geom.CircleFit{Center: geom.Point2D{X: cx, Y: cy}, Radius: r},
		Seq:      seq,
	}
}

func squareProfile(x, y, side float64, seq int) profile.Profile {
	outline := []geom.Point2D{{X: x, Y: y}, {X: x + side, Y: y}, {X: x + side, Y: y + side}, {X: x, Y: y + side}}
	return profile.Profile{
		Outline:  outline,
		Area:     side * side,
		Centroid: geom.Point2D{X: x + side/2, Y: y + side/2},
		BBox:     geom.BoundingBox(outline),
		Seq:      seq,
	}
}

func baseFeature(depth float64) feature.Feature {
	return feature.Feature{ProfileIndex: 0, ProfileSeq: 0, Spec: feature.ExtrudeSpec{Depth: depth}}
}

func innerFeature(index, seq int, spec feature.Spec) feature.Feature {
	return feature.Feature{ProfileIndex: index, ProfileSeq: seq, Spec: spec}
}

func TestBuildSimplePlate(t *testing.T) {
	set := plateSet(circleProfile(50, 50, 10, 4))
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(1, 4, feature.ThroughHoleSpec{Depth: 10}),
	}

	k := &fakeKernel{}
	res, err := Build(set, features, config.Default(), k)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Thickness != 10 {
		t.Errorf("Thickness = %v, want 10", res.Thickness)
	}
	if len(res.Applied) != 2 {
		t.Errorf("got %d applied features, want 2", len(res.Applied))
	}
	if k.differences != 1 {
		t.Errorf("got %d boolean differences, want 1", k.differences)
	}
	if res.Mesh == nil || res.Mesh.IsEmpty() {
		t.Error("result mesh missing")
	}
}

func TestBuildOrdersFeatures(t *testing.T) {
	// Given out of order: chamfer, large hole, pocket, small hole. The
	// build must apply through-holes (small before large), then the
	// pocket, then the chamfer.
	set := plateSet(
		circleProfile(20, 20, 8, 4),  // index 1, large hole
		circleProfile(70, 70, 3, 5),  // index 2, small hole
		squareProfile(40, 40, 10, 6), // index 3, pocket
		circleProfile(80, 20, 5, 7),  // index 4, chamfer
	)
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(4, 7, feature.ChamferSpec{Size: 1}),
		innerFeature(1, 4, feature.ThroughHoleSpec{Depth: 10}),
		innerFeature(3, 6, feature.PocketSpec{Depth: 5}),
		innerFeature(2, 5, feature.ThroughHoleSpec{Depth: 10}),
	}

	res, err := Build(set, features, config.Default(), &fakeKernel{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var seqs []int
	for _, f := range res.Applied[1:] {
		seqs = append(seqs, f.ProfileSeq)
	}
	want := []int{5, 4, 6, 7} // small hole, large hole, pocket, chamfer
	if len(seqs) != len(want) {
		t.Fatalf("applied %d features, want %d", len(seqs), len(want))
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("applied order = %v, want %v", seqs, want)
		}
	}
}

func TestBuildTieBreaksBySeq(t *testing.T) {
	// Two identical holes: insertion order decides.
	set := plateSet(
		circleProfile(70, 70, 5, 9),
		circleProfile(30, 30, 5, 4),
	)
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(1, 9, feature.ThroughHoleSpec{Depth: 10}),
		innerFeature(2, 4, feature.ThroughHoleSpec{Depth: 10}),
	}

	res, err := Build(set, features, config.Default(), &fakeKernel{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if res.Applied[1].ProfileSeq != 4 || res.Applied[2].ProfileSeq != 9 {
		t.Errorf("applied order = [%d, %d], want [4, 9]",
			res.Applied[1].ProfileSeq, res.Applied[2].ProfileSeq)
	}
}

func TestBuildRejectsExcessiveDepth(t *testing.T) {
	set := plateSet(circleProfile(50, 50, 5, 4))
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(1, 4, feature.BlindHoleSpec{Depth: 12}),
	}

	_, err := Build(set, features, config.Default(), &fakeKernel{})
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("Build() error = %v, want *GeometryError", err)
	}
	if gerr.ProfileSeq != 4 {
		t.Errorf("ProfileSeq = %d, want 4", gerr.ProfileSeq)
	}
}

func TestBuildBestEffortSkipsFailingFeature(t *testing.T) {
	set := plateSet(
		circleProfile(50, 50, 5, 4),
		circleProfile(20, 20, 3, 5),
	)
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(1, 4, feature.BlindHoleSpec{Depth: 50}), // too deep
		innerFeature(2, 5, feature.ThroughHoleSpec{Depth: 10}),
	}

	cfg := config.Default()
	cfg.BestEffort = true
	res, err := Build(set, features, cfg, &fakeKernel{})
	if err != nil {
		t.Fatalf("Build() error = %v in best-effort mode", err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("got %d skipped features, want 1", len(res.Skipped))
	}
	if res.Skipped[0].Feature.ProfileSeq != 4 {
		t.Errorf("skipped feature seq = %d, want 4", res.Skipped[0].Feature.ProfileSeq)
	}
	if len(res.Applied) != 2 {
		t.Errorf("got %d applied features, want 2 (base + good hole)", len(res.Applied))
	}
}

func TestBuildRejectsDetachedTool(t *testing.T) {
	// A hole far outside the plate never touches the base solid.
	set := plateSet(circleProfile(500, 500, 5, 4))
	features := []feature.Feature{
		baseFeature(10),
		innerFeature(1, 4, feature.ThroughHoleSpec{Depth: 10}),
	}

	_, err := Build(set, features, config.Default(), &fakeKernel{})
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("Build() error = %v, want *GeometryError", err)
	}
}

func TestBuildVerifiesManifoldPostcondition(t *testing.T) {
	set := plateSet()
	features := []feature.Feature{baseFeature(10)}

	k := &fakeKernel{brokenMesh: true}
	_, err := Build(set, features, config.Default(), k)
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Fatalf("Build() error = %v, want *GeometryError", err)
	}
	var merr *kernel.ManifoldError
	if !errors.As(err, &merr) {
		t.Errorf("error chain %v does not include *kernel.ManifoldError", err)
	}
}

func TestBuildRequiresBaseExtrude(t *testing.T) {
	set := plateSet(circleProfile(50, 50, 5, 4))

	t.Run("empty feature list", func(t *testing.T) {
		if _, err := Build(set, nil, config.Default(), &fakeKernel{}); err == nil {
			t.Error("Build() = nil error for empty feature list")
		}
	})
	t.Run("first feature not extrude", func(t *testing.T) {
		features := []feature.Feature{
			innerFeature(1, 4, feature.ThroughHoleSpec{Depth: 10}),
		}
		if _, err := Build(set, features, config.Default(), &fakeKernel{}); err == nil {
			t.Error("Build() = nil error when first feature is not the base extrude")
		}
	})
}
