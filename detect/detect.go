/*
DESCRIPTION
  detect.go provides the Detector interface, and the DetectedMarker type
  returned by detectors.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package detect provides detection of ArUco markers in image frames.
package detect

import (
	"errors"
	"image"

	"github.com/golang/geo/r2"

	"github.com/ausocean/fiducial/marker"
)

// ErrNoCV is returned by New when built without the withcv tag.
var ErrNoCV = marker.ErrNoCV

// Detector finds markers of a fixed dictionary variant in frames.
type Detector interface {
	// Detect returns the markers visible in img. No markers is not an error
	// and results in an empty slice.
	Detect(img image.Image) ([]Marker, error)

	// Close frees any resources held by the detector.
	Close() error
}

// Marker is a single detected marker. Corners are in pixel coordinates in
// the order reported by the detector, which pairs with pose.UnitSquare.
type Marker struct {
	ID      int
	Corners [4]r2.Point
}

// Center returns the mean of the corners truncated to whole pixels.
func (m Marker) Center() image.Point {
	var c r2.Point
	for _, p := range m.Corners {
		c = c.Add(p)
	}
	c = c.Mul(0.25)
	return image.Pt(int(c.X), int(c.Y))
}

// Points returns the corners as a slice.
func (m Marker) Points() []r2.Point { return m.Corners[:] }

// Square returns a marker with the given ID whose corners form an axis
// aligned square of the given side centred on c, in the same corner order
// the detector uses for an upright marker.
func Square(id int, c r2.Point, side float64) Marker {
	h := side / 2
	return Marker{
		ID: id,
		Corners: [4]r2.Point{
			{X: c.X - h, Y: c.Y - h},
			{X: c.X + h, Y: c.Y - h},
			{X: c.X + h, Y: c.Y + h},
			{X: c.X - h, Y: c.Y + h},
		},
	}
}

// InRange returns the markers of ms whose IDs are addressable by v, and the
// number of markers dropped.
func InRange(ms []Marker, v marker.Variant) ([]Marker, int) {
	kept := ms[:0:0]
	for _, m := range ms {
		if errors.Is(marker.CheckID(v, m.ID), marker.ErrIDOutOfRange) {
			continue
		}
		kept = append(kept, m)
	}
	return kept, len(ms) - len(kept)
}
