//go:build withcv
// +build withcv

/*
DESCRIPTION
  window.go provides a Display backed by an OpenCV window.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package display

import (
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Window is a Display showing frames in an OpenCV window.
type Window struct {
	w   *gocv.Window
	mat gocv.Mat
}

// NewWindow opens a window with the given title.
func NewWindow(title string) (*Window, error) {
	return &Window{w: gocv.NewWindow(title), mat: gocv.NewMat()}, nil
}

// Show displays img in the window.
func (w *Window) Show(img image.Image) error {
	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("could not convert frame: %w", err)
	}
	w.mat.Close()
	w.mat = m
	w.w.IMShow(w.mat)
	return nil
}

// PollKey waits for a key event on the window for up to timeout, which is
// rounded up to whole milliseconds.
func (w *Window) PollKey(timeout time.Duration) (Key, bool) {
	ms := int((timeout + time.Millisecond - 1) / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	c := w.w.WaitKey(ms)
	if c < 0 {
		return 0, false
	}
	return ParseKey(rune(c & 0xff))
}

// Close closes the window.
func (w *Window) Close() error {
	w.mat.Close()
	return w.w.Close()
}
