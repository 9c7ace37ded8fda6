/*
DESCRIPTION
  solve.go provides a planar perspective-n-point solver recovering the pose
  of a planar object, such as a marker, from its image projection.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package pose

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrSolve is returned when a pose cannot be recovered from the given
// correspondences.
var ErrSolve = errors.New("pose solve failed")

// Solver tuning.
const (
	minPoints        = 4
	rankTolerance    = 1e-9 // Relative singular value below which the DLT system is rank deficient.
	refineIterations = 10
	refineStep       = 1e-7 // Finite difference step for the refinement Jacobian.
)

// UnitSquare returns the world model of a marker used for pose solving: a
// unit square in the z=0 plane in detector corner order.
func UnitSquare() []r3.Vector {
	return []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
}

// Axes returns the end points of coordinate axes of the given length: the
// origin followed by the x, y and z axis tips.
func Axes(length float64) []r3.Vector {
	return []r3.Vector{
		{},
		{X: length},
		{Y: length},
		{Z: length},
	}
}

// SolvePlanar returns the pose of a planar object with points world (all
// with Z=0) observed at pixel positions img by camera cam. The pose is
// initialised from the homography between the plane and the normalised
// image, then refined by Gauss-Newton on the reprojection error.
func SolvePlanar(world []r3.Vector, img []r2.Point, cam *Camera) (Pose, error) {
	if len(world) != len(img) {
		return Pose{}, fmt.Errorf("%w: %d world points, %d image points", ErrSolve, len(world), len(img))
	}
	if len(world) < minPoints {
		return Pose{}, fmt.Errorf("%w: need at least %d points, got %d", ErrSolve, minPoints, len(world))
	}
	for _, w := range world {
		if w.Z != 0 {
			return Pose{}, fmt.Errorf("%w: world point %v not in z=0 plane", ErrSolve, w)
		}
	}

	norm := make([]r2.Point, len(img))
	for i, p := range img {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return Pose{}, fmt.Errorf("%w: bad image point %v", ErrSolve, p)
		}
		norm[i] = cam.Normalize(p)
	}

	H, err := homography(world, norm)
	if err != nil {
		return Pose{}, err
	}
	p, err := decompose(H)
	if err != nil {
		return Pose{}, err
	}
	return refine(p, world, norm), nil
}

// homography returns the 3x3 homography taking plane points (X, Y, 1) to
// normalised image points, by direct linear transform.
func homography(world []r3.Vector, norm []r2.Point) (*mat.Dense, error) {
	A := mat.NewDense(2*len(world), 9, nil)
	for i, w := range world {
		x, y := norm[i].X, norm[i].Y
		A.SetRow(2*i, []float64{w.X, w.Y, 1, 0, 0, 0, -x * w.X, -x * w.Y, -x})
		A.SetRow(2*i+1, []float64{0, 0, 0, w.X, w.Y, 1, -y * w.X, -y * w.Y, -y})
	}

	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDFull) {
		return nil, fmt.Errorf("%w: could not factorize DLT system", ErrSolve)
	}
	s := svd.Values(nil)
	if s[0] == 0 || s[7]/s[0] < rankTolerance {
		return nil, fmt.Errorf("%w: degenerate point configuration", ErrSolve)
	}

	var v mat.Dense
	svd.VTo(&v)
	h := mat.Col(nil, 8, &v)
	return mat.NewDense(3, 3, h), nil
}

// decompose recovers R|t from a plane to normalised image homography
// H = λ[r1 r2 t].
func decompose(H *mat.Dense) (Pose, error) {
	h1 := r3.Vector{X: H.At(0, 0), Y: H.At(1, 0), Z: H.At(2, 0)}
	h2 := r3.Vector{X: H.At(0, 1), Y: H.At(1, 1), Z: H.At(2, 1)}
	h3 := r3.Vector{X: H.At(0, 2), Y: H.At(1, 2), Z: H.At(2, 2)}

	lambda := (h1.Norm() + h2.Norm()) / 2
	if lambda == 0 || math.IsNaN(lambda) {
		return Pose{}, fmt.Errorf("%w: zero scale homography", ErrSolve)
	}
	// The object must be in front of the camera.
	if h3.Z < 0 {
		lambda = -lambda
	}
	r1 := h1.Mul(1 / lambda)
	r2 := h2.Mul(1 / lambda)
	t := h3.Mul(1 / lambda)
	r3v := r1.Cross(r2)

	R := mat.NewDense(3, 3, []float64{
		r1.X, r2.X, r3v.X,
		r1.Y, r2.Y, r3v.Y,
		r1.Z, r2.Z, r3v.Z,
	})
	R, err := orthonormalize(R)
	if err != nil {
		return Pose{}, err
	}
	return Pose{Rvec: RotationVector(R), Tvec: t}, nil
}

// orthonormalize returns the rotation matrix closest to R in the Frobenius
// norm.
func orthonormalize(R *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(R, mat.SVDFull) {
		return nil, fmt.Errorf("%w: could not factorize rotation", ErrSolve)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var out mat.Dense
	out.Mul(&u, v.T())
	if mat.Det(&out) < 0 {
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		out.Mul(&u, v.T())
	}
	return &out, nil
}

// residuals returns the normalised image reprojection errors of world under p.
func residuals(p Pose, world []r3.Vector, norm []r2.Point) []float64 {
	R := p.Rotation()
	res := make([]float64, 0, 2*len(world))
	for i, w := range world {
		c := apply(R, w).Add(p.Tvec)
		res = append(res, c.X/c.Z-norm[i].X, c.Y/c.Z-norm[i].Y)
	}
	return res
}

func sumSquares(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return s
}

func params(p Pose) []float64 {
	return []float64{p.Rvec.X, p.Rvec.Y, p.Rvec.Z, p.Tvec.X, p.Tvec.Y, p.Tvec.Z}
}

func fromParams(x []float64) Pose {
	return Pose{
		Rvec: r3.Vector{X: x[0], Y: x[1], Z: x[2]},
		Tvec: r3.Vector{X: x[3], Y: x[4], Z: x[5]},
	}
}

// refine improves p by Gauss-Newton iterations with a finite difference
// Jacobian, keeping only steps that reduce the reprojection error.
func refine(p Pose, world []r3.Vector, norm []r2.Point) Pose {
	x := params(p)
	res := residuals(p, world, norm)
	cost := sumSquares(res)
	n := len(res)

	for it := 0; it < refineIterations && cost > 0; it++ {
		J := mat.NewDense(n, 6, nil)
		for j := 0; j < 6; j++ {
			xp := append([]float64(nil), x...)
			xp[j] += refineStep
			rp := residuals(fromParams(xp), world, norm)
			for i := range rp {
				J.Set(i, j, (rp[i]-res[i])/refineStep)
			}
		}

		var delta mat.VecDense
		err := delta.SolveVec(J, mat.NewVecDense(n, res))
		if err != nil {
			break
		}

		next := make([]float64, 6)
		for j := range next {
			next[j] = x[j] - delta.AtVec(j)
		}
		nextRes := residuals(fromParams(next), world, norm)
		nextCost := sumSquares(nextRes)
		if math.IsNaN(nextCost) || nextCost >= cost {
			break
		}
		x, res, cost = next, nextRes, nextCost
	}
	return fromParams(x)
}
