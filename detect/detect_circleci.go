//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV detector when building without OpenCV, such as on
  Circle-CI.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package detect

import (
	"image"

	"github.com/ausocean/fiducial/marker"
)

// Aruco is unavailable without OpenCV.
type Aruco struct{}

// New returns ErrNoCV.
func New(v marker.Variant) (*Aruco, error) { return nil, ErrNoCV }

// Detect returns ErrNoCV.
func (a *Aruco) Detect(img image.Image) ([]Marker, error) { return nil, ErrNoCV }

// Close is a no-op.
func (a *Aruco) Close() error { return nil }
