/*
DESCRIPTION
  raspivid.go provides an implementation of the FrameSource interface for
  raspivid.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package raspivid provides an implementation of FrameSource for the
// raspberry pi camera.
package raspivid

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/codec/mjpeg"
	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/device"
)

// To indicate package when logging.
const pkg = "raspivid: "

// Raspivid configuration defaults.
const (
	defaultRaspividRotation  = 0
	defaultRaspividWidth     = 640
	defaultRaspividHeight    = 480
	defaultRaspividFramerate = 30
	maxRotation              = 359
)

// Configuration errors.
var (
	errBadRotation  = errors.New("rotation bad or unset, defaulting")
	errBadWidth     = errors.New("width bad or unset, defaulting")
	errBadHeight    = errors.New("height bad or unset, defaulting")
	errBadFrameRate = errors.New("framerate bad or unset, defaulting")
)

// Raspivid is an implementation of FrameSource that provides control over
// the raspivid command to allow capture of MJPEG frames from a Raspberry Pi
// camera.
type Raspivid struct {
	cfg       config.Config
	cmd       *exec.Cmd
	out       io.ReadCloser
	stream    *mjpeg.Stream
	log       logging.Logger
	done      chan struct{}
	isRunning bool
}

// New returns a new Raspivid.
func New(l logging.Logger) *Raspivid {
	return &Raspivid{log: l}
}

// Name returns the name of the device.
func (r *Raspivid) Name() string {
	return "Raspivid"
}

// Set will take a Config struct, check the validity of the relevant fields
// and then performs any configuration necessary. If fields are not valid,
// an error is added to the multiError and a default value is used.
func (r *Raspivid) Set(c config.Config) error {
	var errs device.MultiError
	if c.Rotation > maxRotation {
		c.Rotation = defaultRaspividRotation
		errs = append(errs, errBadRotation)
	}

	if c.Width == 0 {
		c.Width = defaultRaspividWidth
		errs = append(errs, errBadWidth)
	}

	if c.Height == 0 {
		c.Height = defaultRaspividHeight
		errs = append(errs, errBadHeight)
	}

	if c.FrameRate == 0 {
		c.FrameRate = defaultRaspividFramerate
		errs = append(errs, errBadFrameRate)
	}

	r.cfg = c
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// Start will prepare the arguments for the raspivid command using the
// configuration set using the Set method then call the raspivid command,
// decoding the MJPEG output from which frames are obtained using Next.
func (r *Raspivid) Start() error {
	if r.isRunning {
		return nil
	}
	args := r.createArgs()
	r.log.Info(pkg+"raspivid args", "raspividArgs", strings.Join(args, " "))
	r.cmd = exec.Command("raspivid", args...)

	var err error
	r.out, err = r.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("could not pipe command output: %w", err)
	}

	stderr, err := r.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("could not pipe command error: %w", err)
	}

	err = r.cmd.Start()
	if err != nil {
		return fmt.Errorf("%w: could not start raspivid command: %v", device.ErrCameraUnavailable, err)
	}

	r.done = make(chan struct{})
	go func() {
		buf, err := io.ReadAll(stderr)
		select {
		case <-r.done:
			r.log.Info(pkg + "Stop called, finished checking stderr")
			return
		default:
		}
		if err != nil {
			r.log.Error(pkg+"could not read stderr", "error", err)
			return
		}
		if len(buf) != 0 {
			r.log.Error(pkg+"error from raspivid stderr", "error", string(buf))
		}
	}()

	r.stream = mjpeg.NewStream(r.out, 0, r.log)
	r.isRunning = true
	return nil
}

// Next returns the next decoded frame. Calling Next before Start has been
// called results in device.ErrNotRunning.
func (r *Raspivid) Next() (image.Image, error) {
	if !r.isRunning {
		return nil, device.ErrNotRunning
	}
	img, err := r.stream.Next()
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: raspivid output ended", device.ErrCameraUnavailable)
	}
	return img, err
}

// Stop will terminate the raspivid process and close the output pipe.
func (r *Raspivid) Stop() error {
	if !r.isRunning {
		return nil
	}
	r.isRunning = false
	close(r.done)
	r.stream.Close()
	if r.cmd == nil || r.cmd.Process == nil {
		return errors.New("raspivid process was never started")
	}
	err := r.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("could not kill raspivid process: %w", err)
	}
	r.cmd.Wait()
	return nil
}

// IsRunning is used to determine if the pi's camera is running.
func (r *Raspivid) IsRunning() bool {
	return r.isRunning
}

func (r *Raspivid) createArgs() []string {
	const disabled = "0"
	args := []string{
		"--output", "-",
		"--nopreview",
		"--timeout", disabled,
		"--width", fmt.Sprint(r.cfg.Width),
		"--height", fmt.Sprint(r.cfg.Height),
		"--framerate", fmt.Sprint(r.cfg.FrameRate),
		"--rotation", fmt.Sprint(r.cfg.Rotation),
	}

	if r.cfg.HorizontalFlip {
		args = append(args, "--hflip")
	}

	if r.cfg.VerticalFlip {
		args = append(args, "--vflip")
	}

	return append(args, "--codec", "MJPEG")
}
