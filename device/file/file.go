/*
DESCRIPTION
  file.go provides an implementation of the FrameSource interface for MJPEG
  video files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package file provides an implementation of FrameSource for files.
package file

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/codec/mjpeg"
	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/device"
)

// Used to indicate package in logging.
const pkg = "file: "

// VideoFile is an implementation of the FrameSource interface for a file
// containing concatenated JPEG frames. Frames are delivered no faster than
// the configured frame rate.
type VideoFile struct {
	f         *os.File
	path      string
	loop      bool
	delay     time.Duration
	stream    *mjpeg.Stream
	isRunning bool
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new VideoFile.
func New(l logging.Logger) *VideoFile { return &VideoFile{log: l} }

// NewWith returns a new VideoFile with required params provided i.e. the Set
// method does not need to be called.
func NewWith(l logging.Logger, path string, loop bool, rate uint) *VideoFile {
	return &VideoFile{log: l, path: path, loop: loop, delay: frameDelay(rate), set: true}
}

func frameDelay(rate uint) time.Duration {
	if rate == 0 {
		return 0
	}
	return time.Second / time.Duration(rate)
}

// Name returns the name of the device.
func (m *VideoFile) Name() string {
	return "File"
}

// Set takes the InputPath, Loop and FrameRate fields of the passed config.
func (m *VideoFile) Set(c config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = c.InputPath
	m.loop = c.Loop
	m.delay = frameDelay(c.FrameRate)
	m.set = true
	return nil
}

// Start will open the file at the location of the InputPath field of the
// config struct and begin decoding frames.
func (m *VideoFile) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return errors.New("VideoFile has not been set with config")
	}
	if m.isRunning {
		return nil
	}
	var err error
	m.f, err = os.Open(m.path)
	if err != nil {
		return fmt.Errorf("%w: could not open video file: %v", device.ErrCameraUnavailable, err)
	}
	m.stream = mjpeg.NewStream(reader{m}, m.delay, m.log)
	m.isRunning = true
	return nil
}

// Stop will close the file such that any further reads will fail.
func (m *VideoFile) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil
	}
	m.stream.Close()
	err := m.f.Close()
	if err != nil {
		return err
	}
	m.isRunning = false
	return nil
}

// Next returns the next frame of the file, or io.EOF once the end of a
// non-looping file is reached.
func (m *VideoFile) Next() (image.Image, error) {
	m.mu.Lock()
	s, running := m.stream, m.isRunning
	m.mu.Unlock()
	if !running {
		return nil, device.ErrNotRunning
	}
	return s.Next()
}

// IsRunning is used to determine if the VideoFile device is running.
func (m *VideoFile) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f != nil && m.isRunning
}

// reader provides the file bytes to the frame stream, seeking back to the
// start of the file at its end if looping.
type reader struct{ m *VideoFile }

func (r reader) Read(p []byte) (int, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return 0, errors.New("video file is closed, VideoFile not started")
	}

	n, err := m.f.Read(p)
	if err != io.EOF || !m.loop {
		return n, err
	}
	if n > 0 {
		return n, nil
	}

	m.log.Info(pkg + "looping input file")
	_, err = m.f.Seek(0, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("could not seek to start of file for input loop: %w", err)
	}
	n, err = m.f.Read(p)
	if err != nil {
		return n, fmt.Errorf("could not read after start seek: %w", err)
	}
	return n, nil
}
