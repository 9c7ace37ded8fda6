/*
DESCRIPTION
  camera.go provides a pinhole camera model with Brown-Conrady lens
  distortion, used to normalise detected corners and project world points.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package pose provides camera modelling, planar perspective-n-point pose
// solving and rotation utilities for marker pose estimation.
package pose

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Default camera intrinsics for the 640x480 Raspberry Pi camera setup.
const (
	DefaultFx = 482.3
	DefaultFy = 486.2
	DefaultCx = 322.5
	DefaultCy = 244.8
)

// DefaultDistortion holds the default distortion coefficients in OpenCV
// order: k1, k2, p1, p2, k3.
var DefaultDistortion = []float64{0.1, -0.02, 0, 0, 0}

// Newton iteration bounds for undistortion.
const (
	maxUndistortIterations = 20
	undistortTolerance     = 1e-12
)

// Camera is a pinhole camera with intrinsic matrix Matrix and distortion
// coefficients k1, k2, p1, p2, k3. Missing coefficients are zero.
type Camera struct {
	Matrix     *mat.Dense
	Distortion []float64
}

// NewCamera returns a camera with the given focal lengths and principal
// point, and optional distortion coefficients.
func NewCamera(fx, fy, cx, cy float64, dist ...float64) *Camera {
	return &Camera{
		Matrix: mat.NewDense(3, 3, []float64{
			fx, 0, cx,
			0, fy, cy,
			0, 0, 1,
		}),
		Distortion: append([]float64(nil), dist...),
	}
}

// NewCameraFromSlices returns a camera from a row major 3x3 intrinsic
// matrix and up to five distortion coefficients.
func NewCameraFromSlices(k, dist []float64) (*Camera, error) {
	if len(k) != 9 {
		return nil, fmt.Errorf("camera matrix needs 9 values, got %d", len(k))
	}
	if len(dist) > 5 {
		return nil, fmt.Errorf("expected at most 5 distortion coefficients, got %d", len(dist))
	}
	if k[0] == 0 || k[4] == 0 {
		return nil, fmt.Errorf("camera matrix has zero focal length: %v", k)
	}
	return &Camera{
		Matrix:     mat.NewDense(3, 3, append([]float64(nil), k...)),
		Distortion: append([]float64(nil), dist...),
	}, nil
}

// DefaultCamera returns the camera used when no calibration is configured.
func DefaultCamera() *Camera {
	return NewCamera(DefaultFx, DefaultFy, DefaultCx, DefaultCy, DefaultDistortion...)
}

func (c *Camera) coeffs() (k1, k2, p1, p2, k3 float64) {
	var d [5]float64
	copy(d[:], c.Distortion)
	return d[0], d[1], d[2], d[3], d[4]
}

// distort applies the forward Brown-Conrady model to an undistorted
// normalised point.
func (c *Camera) distort(x, y float64) (float64, float64) {
	k1, k2, p1, p2, k3 := c.coeffs()
	r2 := x*x + y*y
	rad := 1 + k1*r2 + k2*r2*r2 + k3*r2*r2*r2
	xd := x*rad + 2*p1*x*y + p2*(r2+2*x*x)
	yd := y*rad + 2*p2*x*y + p1*(r2+2*y*y)
	return xd, yd
}

// undistort inverts distort using Newton-Raphson iterations, starting from
// the distorted point.
func (c *Camera) undistort(xd, yd float64) (float64, float64) {
	k1, k2, p1, p2, k3 := c.coeffs()
	xu, yu := xd, yd
	for i := 0; i < maxUndistortIterations; i++ {
		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		rad := 1 + k1*r2 + k2*r4 + k3*r4*r2

		ex, ey := c.distort(xu, yu)
		ex -= xd
		ey -= yd
		if ex*ex+ey*ey < undistortTolerance*undistortTolerance {
			break
		}

		dRad := 2 * (k1 + 2*k2*r2 + 3*k3*r4)
		jxx := rad + xu*xu*dRad + 2*p1*yu + 6*p2*xu
		jxy := xu*yu*dRad + 2*p1*xu + 2*p2*yu
		jyx := yu*xu*dRad + 2*p2*yu + 2*p1*xu
		jyy := rad + yu*yu*dRad + 2*p2*xu + 6*p1*yu

		det := jxx*jyy - jxy*jyx
		if det == 0 {
			break
		}
		xu -= (jyy*ex - jxy*ey) / det
		yu -= (-jyx*ex + jxx*ey) / det
	}
	return xu, yu
}

// Normalize maps a pixel to undistorted normalised image coordinates, i.e.
// the point (x, y) such that (x, y, 1) lies on the pixel's viewing ray.
func (c *Camera) Normalize(px r2.Point) r2.Point {
	fx, s, cx := c.Matrix.At(0, 0), c.Matrix.At(0, 1), c.Matrix.At(0, 2)
	fy, cy := c.Matrix.At(1, 1), c.Matrix.At(1, 2)
	yd := (px.Y - cy) / fy
	xd := (px.X - cx - s*yd) / fx
	x, y := c.undistort(xd, yd)
	return r2.Point{X: x, Y: y}
}

// Pixel maps an undistorted normalised point to pixel coordinates, applying
// lens distortion.
func (c *Camera) Pixel(n r2.Point) r2.Point {
	xd, yd := c.distort(n.X, n.Y)
	return r2.Point{
		X: c.Matrix.At(0, 0)*xd + c.Matrix.At(0, 1)*yd + c.Matrix.At(0, 2),
		Y: c.Matrix.At(1, 1)*yd + c.Matrix.At(1, 2),
	}
}

// Project returns the pixel positions of the world points pts for a camera
// at pose p, where p maps world coordinates into camera coordinates.
func (c *Camera) Project(pts []r3.Vector, p Pose) []r2.Point {
	R := p.Rotation()
	out := make([]r2.Point, len(pts))
	for i, w := range pts {
		cam := apply(R, w).Add(p.Tvec)
		out[i] = c.Pixel(r2.Point{X: cam.X / cam.Z, Y: cam.Y / cam.Z})
	}
	return out
}

// apply returns R·v for a 3x3 matrix R.
func apply(R mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: R.At(0, 0)*v.X + R.At(0, 1)*v.Y + R.At(0, 2)*v.Z,
		Y: R.At(1, 0)*v.X + R.At(1, 1)*v.Y + R.At(1, 2)*v.Z,
		Z: R.At(2, 0)*v.X + R.At(2, 1)*v.Y + R.At(2, 2)*v.Z,
	}
}
