/*
DESCRIPTION
  display.go provides the Display interface through which annotated frames
  are presented and operator keys are read.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package display provides frame presentation and operator key input, either
// through an OpenCV window or headless from a terminal.
package display

import (
	"errors"
	"image"
	"time"
)

// Used to indicate package in logging.
const pkg = "display: "

// DefaultTitle is the default window title.
const DefaultTitle = "ArUco Marker Pose Estimation"

// ErrNoCV is returned when a window is requested from a binary built without
// OpenCV support.
var ErrNoCV = errors.New("built without OpenCV support (withcv tag)")

// Key is an operator command key.
type Key rune

// Recognised keys.
const (
	KeyQuit     Key = 'q'
	KeyIncrease Key = '+'
	KeyDecrease Key = '-'
)

// ParseKey returns the Key for the character c, and false if c is not a
// recognised command key.
func ParseKey(c rune) (Key, bool) {
	switch k := Key(c); k {
	case KeyQuit, KeyIncrease, KeyDecrease:
		return k, true
	}
	return 0, false
}

// Display presents frames and polls for operator keys.
type Display interface {
	// Show presents img.
	Show(img image.Image) error

	// PollKey waits up to timeout for a key press. It returns false if no
	// recognised key was pressed.
	PollKey(timeout time.Duration) (Key, bool)

	// Close releases the display.
	Close() error
}

// Discarder is implemented by displays that do not present the frames they
// are shown.
type Discarder interface {
	Discards() bool
}

// Discards returns true if d does not present frames, so there is no need
// to annotate them.
func Discards(d Display) bool {
	dd, ok := d.(Discarder)
	return ok && dd.Discards()
}
