/*
DESCRIPTION
  session.go provides Session, which runs the capture, detection, tracking
  and presentation loop of a marker tracking session.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package session provides the tracking loop; frames are taken from a
// device, markers detected and positioned relative to the origin marker, and
// the results drawn, printed and optionally recorded.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/benbjohnson/clock"

	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/detect"
	"github.com/ausocean/fiducial/device"
	"github.com/ausocean/fiducial/display"
	"github.com/ausocean/fiducial/marker"
	"github.com/ausocean/fiducial/overlay"
	"github.com/ausocean/fiducial/pose"
	"github.com/ausocean/fiducial/track"
)

// Used to indicate package in logging.
const pkg = "session: "

// Recorder stores the observations of a session.
type Recorder interface {
	Begin(session string, t time.Time) error
	Record(session string, t time.Time, obs []track.Observation) error
}

// Options holds the collaborators of a Session. Input, Detector and Display
// are required.
type Options struct {
	Input    device.FrameSource
	Detector detect.Detector
	Display  display.Display

	// Out receives the measurement lines; os.Stdout if nil.
	Out io.Writer

	// Recorder, if not nil, is given every frame's observations.
	Recorder Recorder

	// ID names the session in the Recorder. If empty the start time is used.
	ID string

	// Clock is the source of time; the wall clock if nil.
	Clock clock.Clock
}

// Session provides methods to run a tracking session using the Config struct.
type Session struct {
	cfg      config.Config
	variant  marker.Variant
	input    device.FrameSource
	detector detect.Detector
	disp     display.Display
	discard  bool // Frames are not annotated when the display drops them.
	out      io.Writer
	rec      Recorder
	id       string
	clk      clock.Clock

	cal  *track.Calibration
	norm *track.Normalizer
	rep  *track.Reporter

	// pending holds config updates to apply before the next frame.
	mu      sync.Mutex
	pending map[string]string

	log logging.Logger
}

// New returns a Session for the given config. The config is validated, with
// invalid or unset fields defaulted. c.Logger must be set.
func New(c config.Config, opt Options) (*Session, error) {
	if c.Logger == nil {
		return nil, errors.New("config has no logger")
	}
	if opt.Input == nil || opt.Detector == nil || opt.Display == nil {
		return nil, errors.New("session requires input, detector and display")
	}
	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	v, err := marker.ParseVariant(c.Variant)
	if err != nil {
		return nil, err
	}
	cam, err := Camera(c)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      c,
		variant:  v,
		input:    opt.Input,
		detector: opt.Detector,
		disp:     opt.Display,
		discard:  display.Discards(opt.Display),
		out:      opt.Out,
		rec:      opt.Recorder,
		id:       opt.ID,
		clk:      opt.Clock,
		log:      c.Logger,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.id == "" {
		s.id = s.clk.Now().UTC().Format("20060102T150405")
	}

	s.cal = &track.Calibration{Factor: c.CalibrationFactor, Step: c.CalibrationStep, Floor: c.CalibrationFloor}
	s.norm = track.NewNormalizer(Params(c, cam), s.cal, s.log)
	s.rep = track.NewReporter(s.out, c.PrintRate, s.clk)

	err = s.input.Set(c)
	if err != nil {
		var me device.MultiError
		if !errors.As(err, &me) {
			return nil, fmt.Errorf("could not set %s input: %w", s.input.Name(), err)
		}
		s.log.Warning(pkg+"input config defaulted", "input", s.input.Name(), "errors", err.Error())
	}
	return s, nil
}

// Camera returns the camera model described by the CameraMatrix and
// Distortion fields of c.
func Camera(c config.Config) (*pose.Camera, error) {
	cam, err := pose.NewCameraFromSlices(c.CameraMatrix, c.Distortion)
	if err != nil {
		return nil, fmt.Errorf("invalid camera: %w", err)
	}
	return cam, nil
}

// Params returns the tracking parameters described by c, using cam for pose
// solving.
func Params(c config.Config, cam *pose.Camera) track.Params {
	return track.Params{
		MarkerSizeInches: c.MarkerSizeInches,
		MarkerPixels:     c.MarkerPixels,
		AlphaX:           c.AlphaX,
		AlphaY:           c.AlphaY,
		Angles:           c.Angles,
		OriginMaxAge:     c.OriginMaxAge,
		Camera:           cam,
	}
}

// Config returns a copy of the session's current config.
func (s *Session) Config() config.Config {
	return s.cfg
}

// ID returns the session's name in the Recorder.
func (s *Session) ID() string { return s.id }

// Calibration returns the current calibration factor.
func (s *Session) Calibration() float64 { return s.cal.Factor }

// Normalizer returns the session's normalizer.
func (s *Session) Normalizer() *track.Normalizer { return s.norm }

// Update queues config variable changes. They are applied between frames by
// Run. Update is safe to call concurrently with Run.
func (s *Session) Update(vars map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[string]string)
	}
	for k, v := range vars {
		s.pending[k] = v
	}
}

// Run starts the input and processes frames until the input is exhausted,
// the quit key is pressed or ctx is cancelled, stopping the input on return.
// A nil error is returned for each of these. Other input errors end the
// session and are returned.
func (s *Session) Run(ctx context.Context) (err error) {
	s.log.Info(pkg+"starting input", "input", s.input.Name())
	err = s.input.Start()
	if err != nil {
		return fmt.Errorf("could not start %s input: %w", s.input.Name(), err)
	}
	defer func() {
		stopErr := s.input.Stop()
		if stopErr != nil {
			s.log.Error(pkg+"could not stop input", "error", stopErr.Error())
			if err == nil {
				err = fmt.Errorf("could not stop %s input: %w", s.input.Name(), stopErr)
			}
		}
		s.log.Info(pkg + "input stopped")
	}()

	if s.rec != nil {
		recErr := s.rec.Begin(s.id, s.clk.Now())
		if recErr != nil {
			s.log.Error(pkg+"could not begin recording", "error", recErr.Error())
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info(pkg + "context done, ending session")
			return nil
		default:
		}
		s.applyPending()

		img, err := s.input.Next()
		if err == io.EOF {
			s.log.Info(pkg + "input exhausted, ending session")
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not get frame: %w", err)
		}

		if s.frame(img) {
			s.log.Info(pkg + "quit requested, ending session")
			return nil
		}
	}
}

// frame processes one frame and handles any key pressed. It returns true if
// the session should end.
func (s *Session) frame(img image.Image) (quit bool) {
	ms, err := s.detector.Detect(img)
	if err != nil {
		s.log.Warning(pkg+"detection failed", "error", err.Error())
		ms = nil
	}
	ms, dropped := detect.InRange(ms, s.variant)
	if dropped != 0 {
		s.log.Debug(pkg+"dropped markers outside dictionary", "count", dropped)
	}

	now := s.clk.Now()
	obs := s.norm.Update(ms, now)

	_, err = s.rep.Report(obs)
	if err != nil {
		s.log.Error(pkg+"could not report", "error", err.Error())
	}

	if s.rec != nil {
		err = s.rec.Record(s.id, now, obs)
		if err != nil {
			s.log.Error(pkg+"could not record observations", "error", err.Error())
		}
	}

	if !s.discard {
		img = overlay.Draw(img, obs, overlay.Options{Camera: s.norm.Params().Camera, Calibration: s.cal.Factor})
	}
	err = s.disp.Show(img)
	if err != nil {
		s.log.Warning(pkg+"could not show frame", "error", err.Error())
	}

	k, ok := s.disp.PollKey(s.cfg.KeyTimeout)
	if !ok {
		return false
	}
	return s.key(k)
}

// key handles a key press, returning true for quit.
func (s *Session) key(k display.Key) bool {
	var f float64
	switch k {
	case display.KeyQuit:
		return true
	case display.KeyIncrease:
		f = s.cal.Increase()
	case display.KeyDecrease:
		f = s.cal.Decrease()
	default:
		return false
	}
	s.log.Info(pkg+"calibration factor changed", "factor", f)
	err := s.rep.Calibration(f)
	if err != nil {
		s.log.Error(pkg+"could not report calibration", "error", err.Error())
	}
	return false
}

// Config fields that only take effect when the input is next started.
var inputKeys = []string{
	config.KeyInput,
	config.KeyInputPath,
	config.KeyWidth,
	config.KeyHeight,
	config.KeyFrameRate,
	config.KeyRotation,
	config.KeyHorizontalFlip,
	config.KeyVerticalFlip,
	config.KeyLoop,
	config.KeyVariant,
	config.KeyHeadless,
	config.KeyRecordPath,
}

// applyPending applies queued config updates.
func (s *Session) applyPending() {
	s.mu.Lock()
	vars := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(vars) == 0 {
		return
	}

	c := s.cfg
	c.Update(vars)
	c.Validate()

	cam, err := Camera(c)
	if err != nil {
		s.log.Warning(pkg+"ignoring camera update", "error", err.Error())
		cam = s.norm.Params().Camera
		c.CameraMatrix, c.Distortion = s.cfg.CameraMatrix, s.cfg.Distortion
	}
	s.norm.SetParams(Params(c, cam))

	if c.CalibrationFactor != s.cfg.CalibrationFactor {
		s.cal.Factor = c.CalibrationFactor
	}
	s.cal.Step, s.cal.Floor = c.CalibrationStep, c.CalibrationFloor
	if s.cal.Factor < s.cal.Floor {
		s.cal.Factor = s.cal.Floor
	}

	if c.PrintRate != s.cfg.PrintRate {
		s.rep.SetRate(c.PrintRate)
	}

	if c.LogLevel != s.cfg.LogLevel {
		s.log.SetLevel(c.LogLevel)
	}

	for _, k := range inputKeys {
		if _, ok := vars[k]; ok {
			s.log.Warning(pkg+"config change takes effect on restart", "key", k)
		}
	}
	s.cfg = c
	s.log.Info(pkg+"config updated", "vars", vars)
}
