/*
DESCRIPTION
  pose_test.go provides testing for the camera model, rotation utilities and
  planar pose solver.

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
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-6

func vecNear(a, b r3.Vector, eps float64) bool { return a.Sub(b).Norm() < eps }

func TestRodrigues(t *testing.T) {
	// 90 degrees about z maps x to y.
	R := Rodrigues(r3.Vector{Z: math.Pi / 2})
	want := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	if !mat.EqualApprox(R, want, tol) {
		t.Errorf("unexpected rotation:\n%v", mat.Formatted(R))
	}

	if !mat.EqualApprox(Rodrigues(r3.Vector{}), mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 0) {
		t.Error("zero vector is not the identity")
	}
}

func TestRotationVectorRoundTrip(t *testing.T) {
	tests := []r3.Vector{
		{},
		{X: 0.1},
		{X: 0.3, Y: -0.2, Z: 1.1},
		{Y: math.Pi / 2},
		{X: -2, Y: 0.5, Z: 0.25},
		{Z: math.Pi},
	}

	for i, r := range tests {
		got := RotationVector(Rodrigues(r))
		if !mat.EqualApprox(Rodrigues(got), Rodrigues(r), tol) {
			t.Errorf("round trip %d failed: got %v want %v", i, got, r)
		}
	}
}

func TestRelativeAngle(t *testing.T) {
	tests := []struct {
		cur, origin r3.Vector
		want        float64
	}{
		{cur: r3.Vector{}, origin: r3.Vector{}, want: 0},
		{cur: r3.Vector{X: 0.4, Y: 0.2}, origin: r3.Vector{X: 0.4, Y: 0.2}, want: 0},
		{cur: r3.Vector{X: math.Pi / 2}, origin: r3.Vector{}, want: 90},
		{cur: r3.Vector{}, origin: r3.Vector{Z: math.Pi / 2}, want: 90},
		{cur: r3.Vector{Y: 0.5}, origin: r3.Vector{Y: 0.2}, want: 0.3 * 180 / math.Pi},
	}

	for i, test := range tests {
		got := RelativeAngle(Rodrigues(test.cur), Rodrigues(test.origin))
		if math.Abs(got-test.want) > 1e-4 {
			t.Errorf("did not get expected angle for test %d\nGot: %v\nWant: %v", i, got, test.want)
		}
	}
}

func TestRelativeAngleClamps(t *testing.T) {
	// Slightly non-orthonormal identity from numerical noise must not give NaN.
	R := mat.NewDense(3, 3, []float64{1 + 1e-9, 0, 0, 0, 1 + 1e-9, 0, 0, 0, 1 + 1e-9})
	got := RelativeAngle(R, R)
	if math.IsNaN(got) || got > 1e-3 {
		t.Errorf("unexpected angle: %v", got)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	cams := []*Camera{
		DefaultCamera(),
		NewCamera(535.4, 539.2, 320.1, 240.1),
		NewCamera(500, 500, 320, 240, -0.2, 0.05, 0.001, -0.002, 0.01),
	}
	pts := []r2.Point{{X: 0, Y: 0}, {X: 320, Y: 240}, {X: 600, Y: 50}, {X: 100, Y: 470}}

	for i, c := range cams {
		for _, p := range pts {
			got := c.Pixel(c.Normalize(p))
			if got.Sub(p).Norm() > 1e-6 {
				t.Errorf("camera %d: pixel %v round tripped to %v", i, p, got)
			}
		}
	}
}

func TestNewCameraFromSlices(t *testing.T) {
	_, err := NewCameraFromSlices([]float64{1, 2, 3}, nil)
	if err == nil {
		t.Error("expected error for short matrix")
	}
	_, err = NewCameraFromSlices([]float64{500, 0, 320, 0, 500, 240, 0, 0, 1}, make([]float64, 6))
	if err == nil {
		t.Error("expected error for too many coefficients")
	}
	c, err := NewCameraFromSlices([]float64{500, 0, 320, 0, 500, 240, 0, 0, 1}, []float64{0.1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Matrix.At(0, 2) != 320 || c.Distortion[0] != 0.1 {
		t.Error("unexpected camera")
	}
}

func TestSolvePlanar(t *testing.T) {
	tests := []struct {
		cam  *Camera
		pose Pose
	}{
		{cam: NewCamera(500, 500, 320, 240), pose: Pose{Tvec: r3.Vector{X: -0.5, Y: -0.5, Z: 8}}},
		{cam: DefaultCamera(), pose: Pose{Rvec: r3.Vector{X: 0.2, Y: -0.1, Z: 0.3}, Tvec: r3.Vector{X: 0.3, Y: -0.2, Z: 6}}},
		{cam: DefaultCamera(), pose: Pose{Rvec: r3.Vector{X: math.Pi - 0.3, Y: 0.1}, Tvec: r3.Vector{X: -1, Y: 0.5, Z: 10}}},
	}

	for i, test := range tests {
		img := test.cam.Project(UnitSquare(), test.pose)
		got, err := SolvePlanar(UnitSquare(), img, test.cam)
		if err != nil {
			t.Errorf("test %d: unexpected error: %v", i, err)
			continue
		}
		if !vecNear(got.Tvec, test.pose.Tvec, 1e-4) {
			t.Errorf("test %d: translation got %v want %v", i, got.Tvec, test.pose.Tvec)
		}
		if !mat.EqualApprox(got.Rotation(), test.pose.Rotation(), 1e-4) {
			t.Errorf("test %d: rotation got %v want %v", i, got.Rvec, test.pose.Rvec)
		}
	}
}

func TestSolvePlanarErrors(t *testing.T) {
	cam := NewCamera(500, 500, 320, 240)
	tests := []struct {
		world []r3.Vector
		img   []r2.Point
	}{
		{world: UnitSquare(), img: []r2.Point{{X: 1, Y: 1}}},
		{world: UnitSquare()[:3], img: []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}}},
		{world: []r3.Vector{{}, {X: 1}, {X: 1, Y: 1, Z: 1}, {Y: 1}}, img: make([]r2.Point, 4)},
		// Collinear corners.
		{world: UnitSquare(), img: []r2.Point{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}, {X: 40, Y: 40}}},
		{world: UnitSquare(), img: []r2.Point{{X: math.NaN(), Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}}},
	}

	for i, test := range tests {
		_, err := SolvePlanar(test.world, test.img, cam)
		if !errors.Is(err, ErrSolve) {
			t.Errorf("test %d: expected ErrSolve, got: %v", i, err)
		}
	}
}

func TestAxes(t *testing.T) {
	a := Axes(2)
	if len(a) != 4 || a[0] != (r3.Vector{}) || a[1].X != 2 || a[2].Y != 2 || a[3].Z != 2 {
		t.Errorf("unexpected axes: %v", a)
	}
}
