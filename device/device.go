/*
DESCRIPTION
  device.go provides FrameSource, an interface that describes a configurable
  camera or video device that can be started and stopped from which decoded
  frames may be obtained.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package device provides an interface and implementations for input devices
// that can be started and stopped from which frames can be obtained.
package device

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/ausocean/fiducial/config"
)

// Errors common to devices.
var (
	// ErrCameraUnavailable is wrapped by Start errors when the camera or its
	// capture process cannot be opened.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrNotRunning is returned by Next when the device has not been started,
	// or has been stopped.
	ErrNotRunning = errors.New("device not running")
)

// FrameSource describes a configurable camera or video device from which
// decoded frames can be obtained.
type FrameSource interface {
	// Name returns the name of the FrameSource.
	Name() string

	// Set allows for configuration of the FrameSource using a Config struct.
	// All, some or none of the fields of the Config struct may be used for
	// configuration by an implementation. An implementation should specify
	// what fields are considered.
	Set(c config.Config) error

	// Start will start the FrameSource capturing; after which the Next
	// method may be called to obtain frames.
	Start() error

	// Stop will stop the FrameSource from capturing. From this point calls
	// to Next will no longer be successful.
	Stop() error

	// IsRunning is used to determine if the device is running.
	IsRunning() bool

	// Next blocks until the next frame is available and returns it. io.EOF
	// is returned when a finite source is exhausted.
	Next() (image.Image, error)
}

// MultiError implements the built in error interface. MultiError is used here
// to collect multi errors during validation of configuration parameters for
// FrameSources.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Manual is an implementation of the FrameSource interface that represents a
// manual input mechanism, i.e. frames are written to this input through
// software. Frames are returned by Next in the order they were written, and
// io.EOF is returned once all written frames have been taken.
type Manual struct {
	mu        sync.Mutex
	frames    []image.Image
	isRunning bool
	starts    int
	stops     int
}

// NewManual provides a new Manual holding the given frames.
func NewManual(frames ...image.Image) *Manual {
	return &Manual{frames: frames}
}

// Name returns the name of Manual i.e. "Manual".
func (m *Manual) Name() string { return "Manual" }

// Set is a stub to satisfy the FrameSource interface; no configuration
// fields are required by Manual.
func (m *Manual) Set(c config.Config) error { return nil }

// Start sets the Manual isRunning flag to true.
func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isRunning = true
	m.starts++
	return nil
}

// Stop sets the isRunning flag to false.
func (m *Manual) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isRunning = false
	m.stops++
	return nil
}

// IsRunning returns the value of the isRunning flag to indicate if Start has
// been called (and Stop has not been called after).
func (m *Manual) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Starts and Stops return the number of calls to Start and Stop.
func (m *Manual) Starts() int { m.mu.Lock(); defer m.mu.Unlock(); return m.starts }
func (m *Manual) Stops() int  { m.mu.Lock(); defer m.mu.Unlock(); return m.stops }

// Write queues img to be returned by Next.
func (m *Manual) Write(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return errors.New("manual input has not been started, can't write")
	}
	m.frames = append(m.frames, img)
	return nil
}

// Next returns the oldest queued frame.
func (m *Manual) Next() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil, ErrNotRunning
	}
	if len(m.frames) == 0 {
		return nil, io.EOF
	}
	img := m.frames[0]
	m.frames = m.frames[1:]
	return img, nil
}
