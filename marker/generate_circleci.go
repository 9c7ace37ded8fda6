//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces marker generation when building without OpenCV, such as on
  Circle-CI.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package marker

import "image"

// Generate always fails with ErrNoCV once the ID has been checked.
func Generate(v Variant, id, sidePixels int) (*image.Gray, error) {
	err := CheckID(v, id)
	if err != nil {
		return nil, err
	}
	return nil, ErrNoCV
}
