/*
DESCRIPTION
  webcam.go provides an implementation of FrameSource for webcams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package webcam provides an implementation of FrameSource for webcams.
package webcam

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

// Used to indicate package in logging.
const pkg = "webcam: "

// Configuration defaults.
const (
	defaultInputPath = "/dev/video0"
	defaultFrameRate = 30
	defaultWidth     = 640
	defaultHeight    = 480
)

// Configuration field errors.
var (
	errBadFrameRate = errors.New("frame rate bad or unset, defaulting")
	errBadWidth     = errors.New("width bad or unset, defaulting")
	errBadHeight    = errors.New("height bad or unset, defaulting")
	errBadInputPath = errors.New("input path bad or unset, defaulting")
)

// Webcam is an implementation of the FrameSource interface for a Webcam.
// Webcam uses an ffmpeg process to pipe MJPEG video from the webcam, which
// is decoded into frames.
type Webcam struct {
	out       io.ReadCloser
	log       logging.Logger
	cfg       config.Config
	cmd       *exec.Cmd
	stream    *mjpeg.Stream
	done      chan struct{}
	isRunning bool
}

// New returns a new Webcam.
func New(l logging.Logger) *Webcam {
	return &Webcam{log: l}
}

// Name returns the name of the device.
func (w *Webcam) Name() string {
	return "Webcam"
}

// Set will validate the relevant fields of the given Config struct and assign
// the struct to the Webcam's Config. If fields are not valid, an error is
// added to the multiError and a default value is used. The fields used are
// InputPath, Width, Height and FrameRate.
func (w *Webcam) Set(c config.Config) error {
	var errs device.MultiError
	if c.InputPath == "" {
		errs = append(errs, errBadInputPath)
		c.InputPath = defaultInputPath
	}

	if c.Width == 0 {
		errs = append(errs, errBadWidth)
		c.Width = defaultWidth
	}

	if c.Height == 0 {
		errs = append(errs, errBadHeight)
		c.Height = defaultHeight
	}

	if c.FrameRate == 0 {
		errs = append(errs, errBadFrameRate)
		c.FrameRate = defaultFrameRate
	}
	w.cfg = c
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// args returns the ffmpeg arguments for capturing MJPEG from the webcam.
func (w *Webcam) args() []string {
	return []string{
		"-loglevel", "error",
		"-f", "v4l2",
		"-input_format", "mjpeg",
		"-framerate", fmt.Sprint(w.cfg.FrameRate),
		"-video_size", fmt.Sprintf("%dx%d", w.cfg.Width, w.cfg.Height),
		"-i", w.cfg.InputPath,
		"-c:v", "copy",
		"-f", "mjpeg",
		"-",
	}
}

// Start will build the required arguments for ffmpeg and then execute the
// command, decoding video output from which frames are obtained using Next.
func (w *Webcam) Start() error {
	if w.isRunning {
		return nil
	}
	args := w.args()
	w.log.Info(pkg+"ffmpeg args", "args", strings.Join(args, " "))
	w.cmd = exec.Command("ffmpeg", args...)

	var err error
	w.out, err = w.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create pipe: %w", err)
	}

	stderr, err := w.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("could not pipe command error: %w", err)
	}

	w.log.Info(pkg + "starting webcam")
	err = w.cmd.Start()
	if err != nil {
		return fmt.Errorf("%w: failed to start ffmpeg: %v", device.ErrCameraUnavailable, err)
	}

	w.done = make(chan struct{})
	go logStderr(w.log, stderr, w.done)

	w.stream = mjpeg.NewStream(w.out, 0, w.log)
	w.isRunning = true
	w.log.Info(pkg + "webcam started")
	return nil
}

// logStderr logs anything the capture process writes to stderr until done
// is closed or stderr ends.
func logStderr(l logging.Logger, stderr io.Reader, done chan struct{}) {
	buf, err := io.ReadAll(stderr)
	select {
	case <-done:
		l.Debug(pkg + "Stop called, finished checking stderr")
		return
	default:
	}
	if err != nil {
		l.Error(pkg+"could not read stderr", "error", err.Error())
		return
	}
	if len(buf) != 0 {
		l.Error(pkg+"error from ffmpeg stderr", "error", string(buf))
	}
}

// Stop will kill the ffmpeg process and close the output pipe.
func (w *Webcam) Stop() error {
	if !w.isRunning {
		return nil
	}
	w.isRunning = false
	close(w.done)
	w.stream.Close()
	if w.cmd == nil || w.cmd.Process == nil {
		return errors.New("ffmpeg process was never started")
	}
	err := w.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("could not kill ffmpeg process: %w", err)
	}
	w.cmd.Wait()
	return nil
}

// Next returns the next decoded frame.
func (w *Webcam) Next() (image.Image, error) {
	if !w.isRunning {
		return nil, device.ErrNotRunning
	}
	img, err := w.stream.Next()
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: ffmpeg output ended", device.ErrCameraUnavailable)
	}
	return img, err
}

// IsRunning is used to determine if the webcam is running.
func (w *Webcam) IsRunning() bool {
	return w.isRunning
}
