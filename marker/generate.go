//go:build withcv
// +build withcv

/*
DESCRIPTION
  generate.go provides marker bitmap synthesis using the OpenCV ArUco
  module.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package marker

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Generate returns the undecorated bitmap for marker id of variant v, sidePixels
// wide, as produced by the vision library.
func Generate(v Variant, id, sidePixels int) (*image.Gray, error) {
	err := CheckID(v, id)
	if err != nil {
		return nil, err
	}

	img := gocv.NewMatWithSize(sidePixels, sidePixels, gocv.MatTypeCV8UC1)
	defer img.Close()
	gocv.ArucoGenerateImageMarker(gocv.ArucoDictionaryCode(v), id, sidePixels, img, borderBits)

	out, err := img.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert marker mat: %w", err)
	}
	g, ok := out.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected marker image type %T", out)
	}
	return g, nil
}
