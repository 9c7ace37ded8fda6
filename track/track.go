/*
DESCRIPTION
  track.go provides the Normalizer, which turns detected markers into
  positions, and optionally rotation angles, relative to the origin marker.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package track provides relative pose tracking of markers against an
// origin marker, with per marker smoothing and throttled reporting.
package track

import (
	"image"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"github.com/ausocean/fiducial/detect"
	"github.com/ausocean/fiducial/pose"
)

// Used to indicate package in logging.
const pkg = "track: "

// OriginID is the marker ID reserved for the origin. A marker with this ID
// is always treated as the origin and never tracked as a target.
const OriginID = 1

const mmPerInch = 25.4

// Parameter defaults.
const (
	DefaultMarkerSizeInches = 3.5
	DefaultMarkerPixels     = 100
	DefaultAlphaX           = 0.05
	DefaultAlphaY           = 0.65
)

// Params holds the tracking parameters.
type Params struct {
	MarkerSizeInches float64 // Printed side length of a marker.
	MarkerPixels     float64 // Side length in pixels the physical size corresponds to.

	// AlphaX and AlphaY are the exponential smoothing weights of a new raw
	// value per axis. 1 disables smoothing on that axis.
	AlphaX, AlphaY float64

	// Angles enables pose solving and relative rotation angles.
	Angles bool

	// OriginMaxAge, if non-zero, is how long an origin stays valid after it
	// was last seen. Zero keeps the last seen origin forever.
	OriginMaxAge time.Duration

	// Camera is used for pose solving when Angles is set.
	Camera *pose.Camera
}

// DefaultParams returns the parameters of the lab setup.
func DefaultParams() Params {
	return Params{
		MarkerSizeInches: DefaultMarkerSizeInches,
		MarkerPixels:     DefaultMarkerPixels,
		AlphaX:           DefaultAlphaX,
		AlphaY:           DefaultAlphaY,
		Camera:           pose.DefaultCamera(),
	}
}

// Origin is the last observed state of the origin marker.
type Origin struct {
	Center   image.Point
	Rotation *mat.Dense // Nil unless angles are enabled.
	Seen     time.Time
}

// State is the mutable tracking state of a session.
type State struct {
	Origin   *Origin
	Smoothed map[int]r2.Point // Last emitted position of each target, in mm.
}

// Observation is the result of normalising one detected marker.
type Observation struct {
	Marker detect.Marker
	Center image.Point

	// Pose is the solved marker pose, nil if angles are disabled or the
	// solve failed.
	Pose *pose.Pose

	// IsOrigin is set for markers carrying OriginID.
	IsOrigin bool

	// Relative is set when X and Y hold a position relative to the origin.
	Relative bool
	X, Y     float64 // Smoothed position relative to the origin in mm.

	HasAngle bool
	Angle    float64 // Relative rotation angle in degrees.
}

// Normalizer computes marker positions relative to the origin marker. It is
// not safe for concurrent use.
type Normalizer struct {
	p     Params
	cal   *Calibration
	state State
	log   logging.Logger
}

// NewNormalizer returns a Normalizer using the given parameters and
// calibration factor.
func NewNormalizer(p Params, cal *Calibration, l logging.Logger) *Normalizer {
	if p.Camera == nil {
		p.Camera = pose.DefaultCamera()
	}
	return &Normalizer{
		p:     p,
		cal:   cal,
		state: State{Smoothed: make(map[int]r2.Point)},
		log:   l,
	}
}

// SetParams replaces the tracking parameters, keeping the tracking state.
func (n *Normalizer) SetParams(p Params) {
	if p.Camera == nil {
		p.Camera = n.p.Camera
	}
	n.p = p
}

// Params returns the current tracking parameters.
func (n *Normalizer) Params() Params { return n.p }

// State returns the tracking state.
func (n *Normalizer) State() *State { return &n.state }

// Scale returns the current conversion factor from pixels to mm.
func (n *Normalizer) Scale() float64 {
	return n.p.MarkerSizeInches / n.p.MarkerPixels * n.cal.Factor * mmPerInch
}

// Update processes the markers detected in one frame at time now and returns
// an observation per marker, in detection order. Origin markers in the
// frame update the origin before any target is evaluated. Targets get
// relative values only once a valid origin exists.
func (n *Normalizer) Update(ms []detect.Marker, now time.Time) []Observation {
	obs := make([]Observation, len(ms))
	for i, m := range ms {
		obs[i] = Observation{Marker: m, Center: m.Center(), IsOrigin: m.ID == OriginID}
		if n.p.Angles {
			p, err := pose.SolvePlanar(pose.UnitSquare(), m.Points(), n.p.Camera)
			if err != nil {
				n.log.Debug(pkg+"could not solve marker pose", "id", m.ID, "error", err.Error())
			} else {
				obs[i].Pose = &p
			}
		}
	}

	for i := range obs {
		o := &obs[i]
		if !o.IsOrigin {
			continue
		}
		if n.p.Angles && o.Pose == nil {
			continue
		}
		org := &Origin{Center: o.Center, Seen: now}
		if o.Pose != nil {
			org.Rotation = o.Pose.Rotation()
		}
		n.state.Origin = org
	}

	org := n.origin(now)
	for i := range obs {
		o := &obs[i]
		if o.IsOrigin || org == nil {
			continue
		}
		if n.p.Angles && o.Pose == nil {
			continue
		}
		n.relative(o, org)
	}
	return obs
}

// origin returns the origin if one has been seen and is still valid.
func (n *Normalizer) origin(now time.Time) *Origin {
	org := n.state.Origin
	switch {
	case org == nil:
		return nil
	case n.p.OriginMaxAge > 0 && now.Sub(org.Seen) > n.p.OriginMaxAge:
		return nil
	case n.p.Angles && org.Rotation == nil:
		return nil
	}
	return org
}

// relative fills in the position, and angle if enabled, of o relative to org
// and updates the smoothing state of o's marker.
func (n *Normalizer) relative(o *Observation, org *Origin) {
	scale := n.Scale()
	raw := r2.Point{
		X: float64(o.Center.X-org.Center.X) * scale,
		Y: float64(o.Center.Y-org.Center.Y) * scale,
	}

	id := o.Marker.ID
	s := raw
	if prev, ok := n.state.Smoothed[id]; ok {
		s = r2.Point{
			X: smooth(n.p.AlphaX, raw.X, prev.X),
			Y: smooth(n.p.AlphaY, raw.Y, prev.Y),
		}
	}
	n.state.Smoothed[id] = s

	o.Relative = true
	o.X, o.Y = s.X, s.Y
	if n.p.Angles && org.Rotation != nil {
		o.HasAngle = true
		o.Angle = pose.RelativeAngle(o.Pose.Rotation(), org.Rotation)
	}
}

// smooth returns the exponentially smoothed value for a new raw value given
// the previous smoothed value.
func smooth(alpha, raw, prev float64) float64 { return alpha*raw + (1-alpha)*prev }
