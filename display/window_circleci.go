//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV window when building without OpenCV, as on Circle-CI.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package display

import (
	"image"
	"time"
)

// Window is a stand-in for the OpenCV window.
type Window struct{}

// NewWindow returns ErrNoCV.
func NewWindow(title string) (*Window, error) { return nil, ErrNoCV }

// Show is a no-op.
func (w *Window) Show(img image.Image) error { return nil }

// PollKey never reports a key.
func (w *Window) PollKey(timeout time.Duration) (Key, bool) { return 0, false }

// Close is a no-op.
func (w *Window) Close() error { return nil }
