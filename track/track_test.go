/*
DESCRIPTION
  track_test.go provides testing for the Normalizer and Calibration.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package track

import (
	"math"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/ausocean/fiducial/detect"
	"github.com/ausocean/fiducial/pose"
)

const side = 40

func square(id int, x, y float64) detect.Marker {
	return detect.Square(id, r2.Point{X: x, Y: y}, side)
}

func newNormalizer(t *testing.T, p Params) *Normalizer {
	return NewNormalizer(p, NewCalibration(DefaultCalibrationFactor), (*logging.TestLogger)(t))
}

func unsmoothed() Params {
	p := DefaultParams()
	p.AlphaX, p.AlphaY = 1, 1
	return p
}

func TestRelativePosition(t *testing.T) {
	n := newNormalizer(t, unsmoothed())
	obs := n.Update([]detect.Marker{square(OriginID, 320, 240), square(7, 420, 240)}, time.Now())
	if len(obs) != 2 {
		t.Fatalf("unexpected number of observations: %d", len(obs))
	}

	if !obs[0].IsOrigin || obs[0].Relative {
		t.Errorf("origin observation not flagged correctly: %+v", obs[0])
	}

	o := obs[1]
	if !o.Relative {
		t.Fatal("target has no relative position")
	}
	want := 100 * (3.5 / 100) * 2.755 * 25.4
	if math.Abs(o.X-want) > 1e-9 || math.Abs(o.X-245.1) > 0.5 {
		t.Errorf("unexpected x: got %v want %v", o.X, want)
	}
	if o.Y != 0 {
		t.Errorf("unexpected y: %v", o.Y)
	}
	if o.HasAngle {
		t.Error("did not expect angle with angles disabled")
	}
}

func TestOriginOrderInFrame(t *testing.T) {
	// Target detected before the origin in the same frame still gets a
	// relative position.
	n := newNormalizer(t, unsmoothed())
	obs := n.Update([]detect.Marker{square(3, 200, 300), square(OriginID, 100, 100)}, time.Now())
	if !obs[0].Relative {
		t.Fatal("target before origin not resolved")
	}
	scale := n.Scale()
	if math.Abs(obs[0].X-100*scale) > 1e-9 || math.Abs(obs[0].Y-200*scale) > 1e-9 {
		t.Errorf("unexpected position: %v, %v", obs[0].X, obs[0].Y)
	}
}

func TestNoOriginSuppression(t *testing.T) {
	n := newNormalizer(t, unsmoothed())
	obs := n.Update([]detect.Marker{square(2, 100, 100), square(3, 200, 100)}, time.Now())
	for _, o := range obs {
		if o.Relative {
			t.Errorf("marker %d has relative position without an origin", o.Marker.ID)
		}
	}
	if len(n.State().Smoothed) != 0 {
		t.Error("smoothing state updated without an origin")
	}
}

func TestOriginPersists(t *testing.T) {
	n := newNormalizer(t, unsmoothed())
	now := time.Now()
	n.Update([]detect.Marker{square(OriginID, 100, 100)}, now)

	// Origin leaves view, targets stay relative to its last position.
	obs := n.Update([]detect.Marker{square(5, 110, 100)}, now.Add(time.Minute))
	if !obs[0].Relative || math.Abs(obs[0].X-10*n.Scale()) > 1e-9 {
		t.Errorf("unexpected observation: %+v", obs[0])
	}
}

func TestOriginMaxAge(t *testing.T) {
	p := unsmoothed()
	p.OriginMaxAge = time.Second
	n := newNormalizer(t, p)
	now := time.Now()
	n.Update([]detect.Marker{square(OriginID, 100, 100)}, now)

	obs := n.Update([]detect.Marker{square(5, 110, 100)}, now.Add(500*time.Millisecond))
	if !obs[0].Relative {
		t.Error("origin expired early")
	}
	obs = n.Update([]detect.Marker{square(5, 110, 100)}, now.Add(2*time.Second))
	if obs[0].Relative {
		t.Error("stale origin used")
	}
}

func TestLastOriginWins(t *testing.T) {
	n := newNormalizer(t, unsmoothed())
	obs := n.Update([]detect.Marker{square(OriginID, 0+side, 0+side), square(OriginID, 300, 300), square(4, 310, 300)}, time.Now())
	if got := n.State().Origin.Center; got.X != 300 || got.Y != 300 {
		t.Errorf("unexpected origin: %v", got)
	}
	if math.Abs(obs[2].X-10*n.Scale()) > 1e-9 {
		t.Errorf("unexpected x: %v", obs[2].X)
	}
}

func TestSmoothingSeedAndConverge(t *testing.T) {
	p := DefaultParams()
	n := newNormalizer(t, p)
	now := time.Now()
	scale := n.Scale()

	// First observation is passed through.
	obs := n.Update([]detect.Marker{square(OriginID, 100, 100), square(9, 200, 150)}, now)
	if obs[1].X != 100*scale || obs[1].Y != 50*scale {
		t.Fatalf("first observation not seeded: %v, %v", obs[1].X, obs[1].Y)
	}

	// Step change is damped per axis.
	obs = n.Update([]detect.Marker{square(OriginID, 100, 100), square(9, 300, 250)}, now)
	wantX := p.AlphaX*200*scale + (1-p.AlphaX)*100*scale
	wantY := p.AlphaY*150*scale + (1-p.AlphaY)*50*scale
	if math.Abs(obs[1].X-wantX) > 1e-9 || math.Abs(obs[1].Y-wantY) > 1e-9 {
		t.Errorf("unexpected smoothed values: got (%v, %v) want (%v, %v)", obs[1].X, obs[1].Y, wantX, wantY)
	}

	// Constant input converges.
	for i := 0; i < 1000; i++ {
		obs = n.Update([]detect.Marker{square(OriginID, 100, 100), square(9, 300, 250)}, now)
	}
	if math.Abs(obs[1].X-200*scale) > 1e-6 || math.Abs(obs[1].Y-150*scale) > 1e-6 {
		t.Errorf("did not converge: %v, %v", obs[1].X, obs[1].Y)
	}
}

func TestSmoothingSteadyState(t *testing.T) {
	n := newNormalizer(t, DefaultParams())
	now := time.Now()
	var first Observation
	for i := 0; i < 5; i++ {
		obs := n.Update([]detect.Marker{square(OriginID, 100, 100), square(9, 150, 180)}, now)
		if i == 0 {
			first = obs[1]
			continue
		}
		if math.Abs(obs[1].X-first.X) > 1e-9 || math.Abs(obs[1].Y-first.Y) > 1e-9 {
			t.Errorf("steady state drifted at frame %d: %+v", i, obs[1])
		}
	}
}

func TestCalibrationAffectsScale(t *testing.T) {
	cal := NewCalibration(DefaultCalibrationFactor)
	n := NewNormalizer(unsmoothed(), cal, (*logging.TestLogger)(t))
	before := n.Scale()
	cal.Increase()
	after := n.Scale()
	want := before * (DefaultCalibrationFactor + DefaultCalibrationStep) / DefaultCalibrationFactor
	if math.Abs(after-want) > 1e-12 {
		t.Errorf("scale did not follow calibration: got %v want %v", after, want)
	}
}

func TestCalibration(t *testing.T) {
	c := NewCalibration(DefaultCalibrationFactor)
	for i := 0; i < 3; i++ {
		c.Increase()
	}
	if math.Abs(c.Factor-3.055) > 1e-9 {
		t.Errorf("unexpected factor after increases: %v", c.Factor)
	}

	c = NewCalibration(0.15)
	c.Decrease()
	got := c.Decrease()
	if got != DefaultCalibrationFloor || c.Factor != DefaultCalibrationFloor {
		t.Errorf("factor not clamped at floor: %v", got)
	}
}

// project returns the detector style corners of a unit marker at pose p.
func project(id int, cam *pose.Camera, p pose.Pose) detect.Marker {
	var m detect.Marker
	m.ID = id
	copy(m.Corners[:], cam.Project(pose.UnitSquare(), p))
	return m
}

func TestAngles(t *testing.T) {
	p := unsmoothed()
	p.Angles = true
	p.Camera = pose.NewCamera(500, 500, 320, 240)
	n := newNormalizer(t, p)

	org := pose.Pose{Tvec: r3.Vector{X: -2, Y: -0.5, Z: 10}}
	tgt := pose.Pose{Rvec: r3.Vector{Z: math.Pi / 6}, Tvec: r3.Vector{X: 1, Y: -0.5, Z: 10}}

	// Angle requires an origin with a rotation.
	obs := n.Update([]detect.Marker{project(2, p.Camera, tgt)}, time.Now())
	if obs[0].Relative || obs[0].HasAngle {
		t.Error("relative values without an origin")
	}

	obs = n.Update([]detect.Marker{project(OriginID, p.Camera, org), project(2, p.Camera, tgt)}, time.Now())
	if obs[0].Pose == nil || n.State().Origin.Rotation == nil {
		t.Fatal("origin pose not recorded")
	}
	if !obs[1].HasAngle {
		t.Fatal("target has no angle")
	}
	if math.Abs(obs[1].Angle-30) > 0.01 {
		t.Errorf("unexpected angle: got %v want 30", obs[1].Angle)
	}
}

func TestAnglesSolveFailure(t *testing.T) {
	p := unsmoothed()
	p.Angles = true
	p.Camera = pose.NewCamera(500, 500, 320, 240)
	n := newNormalizer(t, p)

	org := pose.Pose{Tvec: r3.Vector{X: -0.5, Y: -0.5, Z: 10}}
	n.Update([]detect.Marker{project(OriginID, p.Camera, org)}, time.Now())
	before := n.State().Origin

	// Degenerate origin leaves the previous origin in place.
	bad := detect.Marker{ID: OriginID}
	n.Update([]detect.Marker{bad}, time.Now())
	if n.State().Origin != before {
		t.Error("origin replaced by failed solve")
	}

	// Degenerate target is skipped.
	obs := n.Update([]detect.Marker{{ID: 4}}, time.Now())
	if obs[0].Relative {
		t.Error("degenerate target has relative position")
	}
	if _, ok := n.State().Smoothed[4]; ok {
		t.Error("degenerate target entered smoothing state")
	}
}

func TestSetParamsKeepsState(t *testing.T) {
	n := newNormalizer(t, unsmoothed())
	now := time.Now()
	n.Update([]detect.Marker{square(OriginID, 100, 100), square(2, 150, 100)}, now)

	p := n.Params()
	p.Camera = nil
	p.MarkerPixels = 50
	n.SetParams(p)
	if n.Params().Camera == nil {
		t.Error("camera dropped by SetParams")
	}
	if n.State().Origin == nil || len(n.State().Smoothed) != 1 {
		t.Error("state lost by SetParams")
	}
}
