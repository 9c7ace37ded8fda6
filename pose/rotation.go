/*
DESCRIPTION
  rotation.go provides Rodrigues conversion between rotation vectors and
  rotation matrices, and the relative rotation angle between two
  orientations.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Below this angle, in radians, a rotation is treated as the identity.
const angleEpsilon = 1e-12

// Pose is a rigid transform from world (marker) coordinates into camera
// coordinates, as a rotation vector and translation.
type Pose struct {
	Rvec r3.Vector
	Tvec r3.Vector
}

// Rotation returns the rotation matrix of p.
func (p Pose) Rotation() *mat.Dense { return Rodrigues(p.Rvec) }

// Rodrigues returns the rotation matrix for the axis-angle rotation vector
// r, whose norm is the angle in radians.
func Rodrigues(r r3.Vector) *mat.Dense {
	theta := r.Norm()
	R := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if theta < angleEpsilon {
		return R
	}
	k := r.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	kk := [3]float64{k.X, k.Y, k.Z}
	cross := mat.NewDense(3, 3, []float64{
		0, -k.Z, k.Y,
		k.Z, 0, -k.X,
		-k.Y, k.X, 0,
	})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := (1-c)*kk[i]*kk[j] + s*cross.At(i, j)
			if i == j {
				v += c
			}
			R.Set(i, j, v)
		}
	}
	return R
}

// RotationVector is the inverse of Rodrigues; it returns the axis-angle
// vector of the rotation matrix R.
func RotationVector(R mat.Matrix) r3.Vector {
	theta := math.Acos(cosAngle(R))
	if theta < angleEpsilon {
		return r3.Vector{}
	}

	s := math.Sin(theta)
	if s > 1e-6 {
		v := r3.Vector{
			X: R.At(2, 1) - R.At(1, 2),
			Y: R.At(0, 2) - R.At(2, 0),
			Z: R.At(1, 0) - R.At(0, 1),
		}
		return v.Mul(theta / (2 * s))
	}

	// Near a half turn R ≈ 2kkᵀ - I, so the axis is recovered from the
	// largest diagonal element.
	i := 0
	for j := 1; j < 3; j++ {
		if R.At(j, j) > R.At(i, i) {
			i = j
		}
	}
	var k [3]float64
	k[i] = math.Sqrt(math.Max((R.At(i, i)+1)/2, 0))
	for j := 0; j < 3; j++ {
		if j != i {
			k[j] = (R.At(i, j) + R.At(j, i)) / (4 * k[i])
		}
	}
	return r3.Vector{X: k[0], Y: k[1], Z: k[2]}.Normalize().Mul(theta)
}

// RelativeAngle returns, in degrees, the magnitude of the rotation taking
// orientation origin to orientation current, i.e. the angle of
// current·originᵀ. Axis information is discarded.
func RelativeAngle(current, origin mat.Matrix) float64 {
	var rel mat.Dense
	rel.Mul(current, origin.T())
	return math.Acos(cosAngle(&rel)) * 180 / math.Pi
}

// cosAngle returns (trace(R)-1)/2 clamped into [-1, 1].
func cosAngle(R mat.Matrix) float64 {
	c := (R.At(0, 0) + R.At(1, 1) + R.At(2, 2) - 1) / 2
	return math.Max(-1, math.Min(1, c))
}
