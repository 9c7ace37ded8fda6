/*
DESCRIPTION
  session_test.go provides testing of the tracking loop using scripted
  frames, detections and keys.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/detect"
	"github.com/ausocean/fiducial/device"
	"github.com/ausocean/fiducial/display"
	"github.com/ausocean/fiducial/track"
)

// frameInterval is the mock time between frames, longer than the default
// report interval so every frame with relative positions is reported.
const frameInterval = 250 * time.Millisecond

// scriptedDetector returns one scripted detection per call, advancing the
// mock clock each frame.
type scriptedDetector struct {
	clk    *clock.Mock
	frames [][]detect.Marker
	calls  int
}

func (d *scriptedDetector) Detect(img image.Image) ([]detect.Marker, error) {
	d.clk.Add(frameInterval)
	defer func() { d.calls++ }()
	if d.calls >= len(d.frames) {
		return nil, nil
	}
	return d.frames[d.calls], nil
}

func (d *scriptedDetector) Close() error { return nil }

// scriptedDisplay counts frames and returns one scripted key per poll.
type scriptedDisplay struct {
	shown int
	last  image.Image
	keys  []rune
	polls int
	hook  func(poll int)
}

func (d *scriptedDisplay) Show(img image.Image) error {
	d.shown++
	d.last = img
	return nil
}

func (d *scriptedDisplay) PollKey(timeout time.Duration) (display.Key, bool) {
	defer func() { d.polls++ }()
	if d.hook != nil {
		d.hook(d.polls)
	}
	if d.polls >= len(d.keys) || d.keys[d.polls] == 0 {
		return 0, false
	}
	return display.ParseKey(d.keys[d.polls])
}

func (d *scriptedDisplay) Close() error { return nil }

// blindDisplay is a scriptedDisplay that drops the frames it is shown.
type blindDisplay struct{ scriptedDisplay }

func (d *blindDisplay) Discards() bool { return true }

type memRecorder struct {
	begun  []string
	frames int
	rel    int
}

func (r *memRecorder) Begin(session string, t time.Time) error {
	r.begun = append(r.begun, session)
	return nil
}

func (r *memRecorder) Record(session string, t time.Time, obs []track.Observation) error {
	r.frames++
	for _, o := range obs {
		if o.Relative {
			r.rel++
		}
	}
	return nil
}

// failingSource is a FrameSource that cannot be started.
type failingSource struct{ device.Manual }

func (f *failingSource) Start() error { return device.ErrCameraUnavailable }

func blank(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		frames[i] = image.NewRGBA(image.Rect(0, 0, 320, 240))
	}
	return frames
}

func sq(id int, x, y float64) detect.Marker {
	return detect.Square(id, r2.Point{X: x, Y: y}, 50)
}

type fixture struct {
	clk  *clock.Mock
	in   *device.Manual
	det  *scriptedDetector
	disp *scriptedDisplay
	rec  *memRecorder
	out  bytes.Buffer
}

func newFixture(t *testing.T, c config.Config, dets [][]detect.Marker, keys []rune) (*fixture, *Session) {
	f := &fixture{
		clk:  clock.NewMock(),
		in:   device.NewManual(blank(len(dets))...),
		disp: &scriptedDisplay{keys: keys},
		rec:  &memRecorder{},
	}
	f.det = &scriptedDetector{clk: f.clk, frames: dets}
	c.Logger = (*logging.TestLogger)(t)
	c.Input = config.InputManual
	s, err := New(c, Options{
		Input:    f.in,
		Detector: f.det,
		Display:  f.disp,
		Out:      &f.out,
		Recorder: f.rec,
		ID:       "test",
		Clock:    f.clk,
	})
	if err != nil {
		t.Fatalf("could not create session: %v", err)
	}
	return f, s
}

func TestRun(t *testing.T) {
	dets := [][]detect.Marker{
		{sq(7, 200, 100)}, // Before the origin; suppressed.
		{sq(track.OriginID, 100, 100), sq(7, 200, 100)},
		{sq(7, 200, 100), sq(600, 10, 10)}, // 600 is outside DICT_6X6_250.
		{},
	}
	f, s := newFixture(t, config.Config{}, dets, nil)

	err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Marker ID: 7 - X: 244.92 mm, Y: 0.00 mm\n" +
		"Marker ID: 7 - X: 244.92 mm, Y: 0.00 mm\n"
	if got := f.out.String(); got != want {
		t.Errorf("unexpected output:\n%s", cmp.Diff(want, got))
	}
	if f.disp.shown != len(dets) {
		t.Errorf("unexpected frames shown: got %d want %d", f.disp.shown, len(dets))
	}
	if f.in.Starts() != 1 || f.in.Stops() != 1 {
		t.Errorf("input not started and stopped once: starts %d stops %d", f.in.Starts(), f.in.Stops())
	}
	if !cmp.Equal(f.rec.begun, []string{"test"}) || f.rec.frames != len(dets) || f.rec.rel != 2 {
		t.Errorf("unexpected recording: %+v", f.rec)
	}
	if _, ok := s.Normalizer().State().Smoothed[600]; ok {
		t.Error("out of range marker was tracked")
	}
}

func TestKeys(t *testing.T) {
	dets := make([][]detect.Marker, 6)
	keys := []rune{'+', 'x', '-', '-', 'q'}
	f, s := newFixture(t, config.Config{}, dets, keys)

	err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Calibration Factor: 2.855\n" +
		"Calibration Factor: 2.755\n" +
		"Calibration Factor: 2.655\n"
	if got := f.out.String(); got != want {
		t.Errorf("unexpected output:\n%s", cmp.Diff(want, got))
	}
	if f.disp.shown != 5 {
		t.Errorf("quit did not end the session: %d frames shown", f.disp.shown)
	}
	if f.in.Stops() != 1 {
		t.Errorf("input stopped %d times, want 1", f.in.Stops())
	}
}

func TestDecreaseFloor(t *testing.T) {
	dets := make([][]detect.Marker, 3)
	f, s := newFixture(t, config.Config{CalibrationFactor: 0.15}, dets, []rune{'-', '-'})

	err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Calibration(); got != track.DefaultCalibrationFloor {
		t.Errorf("unexpected calibration: got %v want %v", got, track.DefaultCalibrationFloor)
	}
	if !strings.HasSuffix(f.out.String(), "Calibration Factor: 0.100\n") {
		t.Errorf("unexpected output: %q", f.out.String())
	}
}

func TestStartFailure(t *testing.T) {
	src := &failingSource{}
	s, err := New(config.Config{Logger: (*logging.TestLogger)(t), Input: config.InputManual}, Options{
		Input:    src,
		Detector: &scriptedDetector{clk: clock.NewMock()},
		Display:  &scriptedDisplay{},
		Out:      &bytes.Buffer{},
		Clock:    clock.NewMock(),
	})
	if err != nil {
		t.Fatalf("could not create session: %v", err)
	}
	err = s.Run(context.Background())
	if !errors.Is(err, device.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got: %v", err)
	}
	if src.Stops() != 0 {
		t.Error("input stopped without being started")
	}
}

func TestCancel(t *testing.T) {
	dets := make([][]detect.Marker, 10)
	f, s := newFixture(t, config.Config{}, dets, nil)
	ctx, cancel := context.WithCancel(context.Background())
	f.disp.hook = func(poll int) {
		if poll == 2 {
			cancel()
		}
	}

	err := s.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.disp.shown != 3 {
		t.Errorf("unexpected frames shown after cancel: %d", f.disp.shown)
	}
	if f.in.Stops() != 1 {
		t.Errorf("input stopped %d times, want 1", f.in.Stops())
	}
}

func TestUpdate(t *testing.T) {
	dets := [][]detect.Marker{
		{sq(track.OriginID, 100, 100), sq(4, 100, 200)},
		{sq(track.OriginID, 100, 100), sq(4, 100, 300)},
		{sq(track.OriginID, 100, 100), sq(4, 100, 300)},
	}
	f, s := newFixture(t, config.Config{}, dets, nil)
	f.disp.hook = func(poll int) {
		if poll == 0 {
			s.Update(map[string]string{
				config.KeyAlphaY:    "1",
				config.KeyPrintRate: "1",
				config.KeyWidth:     "1280",
			})
		}
	}

	err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.Normalizer().Params().AlphaY; got != 1 {
		t.Errorf("AlphaY not applied: got %v", got)
	}
	if got := s.Config().Width; got != 1280 {
		t.Errorf("Width not stored: got %d", got)
	}

	// With smoothing disabled on Y the raw position is kept.
	got := s.Normalizer().State().Smoothed[4].Y
	if math.Abs(got-489.834) > 0.01 {
		t.Errorf("unexpected smoothed Y: got %v want 489.834", got)
	}

	// The 1 Hz print rate suppresses the frames that follow the first.
	want := "Marker ID: 4 - X: 0.00 mm, Y: 244.92 mm\n"
	if got := f.out.String(); got != want {
		t.Errorf("unexpected output:\n%s", cmp.Diff(want, got))
	}
}

func TestUpdateNonFinite(t *testing.T) {
	dets := make([][]detect.Marker, 3)
	for i := range dets {
		dets[i] = []detect.Marker{sq(track.OriginID, 100, 100), sq(4, 200, 100)}
	}
	f, s := newFixture(t, config.Config{}, dets, nil)
	f.disp.hook = func(poll int) {
		if poll == 0 {
			s.Update(map[string]string{config.KeyAlphaX: "nan", config.KeyMarkerPixels: "inf"})
		}
	}

	err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := s.Normalizer().Params()
	if p.AlphaX != track.DefaultAlphaX || p.MarkerPixels != track.DefaultMarkerPixels {
		t.Errorf("non-finite update applied: AlphaX %v MarkerPixels %v", p.AlphaX, p.MarkerPixels)
	}
	if got := s.Normalizer().State().Smoothed[4].X; math.IsNaN(got) || math.Abs(got-244.917) > 0.01 {
		t.Errorf("unexpected smoothed X: %v", got)
	}
	want := strings.Repeat("Marker ID: 4 - X: 244.92 mm, Y: 0.00 mm\n", len(dets))
	if got := f.out.String(); got != want {
		t.Errorf("unexpected output:\n%s", cmp.Diff(want, got))
	}
}

func TestAnnotation(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 320, 240))
	dets := [][]detect.Marker{{sq(track.OriginID, 100, 100), sq(7, 200, 100)}}

	tests := []struct {
		disp     display.Display
		annotate bool
	}{
		{disp: &scriptedDisplay{}, annotate: true},
		{disp: &blindDisplay{}, annotate: false},
	}

	for i, test := range tests {
		clk := clock.NewMock()
		s, err := New(config.Config{Logger: (*logging.TestLogger)(t), Input: config.InputManual}, Options{
			Input:    device.NewManual(frame),
			Detector: &scriptedDetector{clk: clk, frames: dets},
			Display:  test.disp,
			Out:      &bytes.Buffer{},
			Clock:    clk,
		})
		if err != nil {
			t.Fatalf("could not create session for test %d: %v", i, err)
		}
		err = s.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error for test %d: %v", i, err)
		}

		var last image.Image
		switch d := test.disp.(type) {
		case *scriptedDisplay:
			last = d.last
		case *blindDisplay:
			last = d.last
		}
		if got := last != image.Image(frame); got != test.annotate {
			t.Errorf("unexpected annotation for test %d: got %v want %v", i, got, test.annotate)
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(config.Config{Logger: (*logging.TestLogger)(t)}, Options{})
	if err == nil {
		t.Error("expected error for missing input, detector and display")
	}
}
