package geom

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CircleFit is the result of a least-squares circle fit.
type CircleFit struct {
	Center Point2D
	Radius float64
	RMS    float64 // root-mean-square radial residual
}

// FitCircle fits a circle to a set of points by solving the linear
// (Kasa) formulation x^2+y^2 = a*x + b*y + c in the least-squares sense.
// Returns false if fewer than three points are given or the system is
// singular (collinear points).
func FitCircle(points []Point2D) (CircleFit, bool) {
	n := len(points)
	if n < 3 {
		return CircleFit{}, false
	}

	A := mat.NewDense(n, 3, nil)
	B := mat.NewVecDense(n, nil)
	for i, p := range points {
		A.Set(i, 0, p.X)
		A.Set(i, 1, p.Y)
		A.Set(i, 2, 1)
		B.SetVec(i, p.X*p.X+p.Y*p.Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return CircleFit{}, false
	}

	a, b, c := params.AtVec(0), params.AtVec(1), params.AtVec(2)
	cx, cy := a/2, b/2
	r2 := c + cx*cx + cy*cy
	if r2 <= 0 || math.IsNaN(r2) {
		return CircleFit{}, false
	}

	fit := CircleFit{
		Center: Point2D{X: cx, Y: cy},
		Radius: math.Sqrt(r2),
	}

	var sumSq float64
	for _, p := range points {
		d := p.Distance(fit.Center) - fit.Radius
		sumSq += d * d
	}
	fit.RMS = math.Sqrt(sumSq / float64(n))

	return fit, true
}

// IsCircular reports whether the points lie on a common circle within
// tol, returning the fit when they do.
func IsCircular(points []Point2D, tol float64) (CircleFit, bool) {
	fit, ok := FitCircle(points)
	if !ok {
		return CircleFit{}, false
	}
	if fit.RMS > tol {
		return CircleFit{}, false
	}
	return fit, true
}
