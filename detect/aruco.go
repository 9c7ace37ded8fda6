//go:build withcv
// +build withcv

/*
DESCRIPTION
  aruco.go provides a Detector using the OpenCV ArUco detector with default
  detection parameters.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package detect

import (
	"fmt"
	"image"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"github.com/ausocean/fiducial/marker"
)

// Aruco is a Detector backed by the OpenCV ArUco module.
type Aruco struct {
	variant marker.Variant
	det     gocv.ArucoDetector
	gray    gocv.Mat // Reused grey conversion target.
}

// New returns a new Aruco detector for markers of variant v.
func New(v marker.Variant) (*Aruco, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", marker.ErrUnknownVariant, int(v))
	}
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDictionaryCode(v))
	params := gocv.NewArucoDetectorParameters()
	return &Aruco{
		variant: v,
		det:     gocv.NewArucoDetectorWithParams(dict, params),
		gray:    gocv.NewMat(),
	}, nil
}

// Detect converts img to grey and returns the markers found, preserving the
// detector's corner order.
func (a *Aruco) Detect(img image.Image) ([]Marker, error) {
	err := a.toGray(img)
	if err != nil {
		return nil, err
	}

	corners, ids, _ := a.det.DetectMarkers(a.gray)
	ms := make([]Marker, 0, len(ids))
	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		m := Marker{ID: id}
		for j, p := range corners[i] {
			m.Corners[j] = r2.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		ms = append(ms, m)
	}
	return ms, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (a *Aruco) Close() error {
	err := a.det.Close()
	a.gray.Close()
	return err
}

func (a *Aruco) toGray(img image.Image) error {
	if g, ok := img.(*image.Gray); ok {
		m, err := gocv.ImageGrayToMatGray(g)
		if err != nil {
			return fmt.Errorf("could not convert grey frame: %w", err)
		}
		m.CopyTo(&a.gray)
		m.Close()
		return nil
	}

	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("could not convert frame: %w", err)
	}
	defer m.Close()
	gocv.CvtColor(m, &a.gray, gocv.ColorBGRToGray)
	return nil
}
