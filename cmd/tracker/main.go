/*
DESCRIPTION
  tracker detects ArUco markers in camera frames and prints the position, and
  optionally the angle, of each marker relative to the origin marker.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// tracker is a command for tracking markers relative to an origin marker.
// Keys: q quits, + and - adjust the calibration factor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/ausocean/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/fiducial/config"
	"github.com/ausocean/fiducial/detect"
	"github.com/ausocean/fiducial/device"
	"github.com/ausocean/fiducial/device/file"
	"github.com/ausocean/fiducial/device/raspivid"
	"github.com/ausocean/fiducial/device/webcam"
	"github.com/ausocean/fiducial/display"
	"github.com/ausocean/fiducial/marker"
	"github.com/ausocean/fiducial/record"
	"github.com/ausocean/fiducial/session"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "tracker.log"
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Misc constants.
const (
	profilePath = "tracker.prof"
	pkg         = "tracker: "
)

// This is set to true if the 'profile' build tag is provided on build.
var canProfile = false

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		cfgPath     = flag.String("config", "", "path of a Name=Value config file, reloaded on change")
		logFile     = flag.String("log", logPath, "path of the log file")
		verbose     = flag.Bool("v", false, "log debug messages")
		headless    = flag.Bool("headless", false, "run without a window, reading keys from the terminal")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logFile,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	log := logging.New(logging.Info, fileLog, logSuppress)
	log.Info("starting tracker", "version", version)

	if canProfile {
		profile(log)
		defer pprof.StopCPUProfile()
		log.Info("profiling started")
	}

	cfg := config.Config{Logger: log}
	if *cfgPath != "" {
		vars, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal(pkg+"could not load config", "error", err.Error())
		}
		cfg.Update(vars)
	}
	if *headless {
		cfg.Headless = true
	}
	cfg.Validate()
	if *verbose {
		cfg.LogLevel = logging.Debug
	}
	log.SetLevel(cfg.LogLevel)

	err := run(cfg, *cfgPath)
	if err != nil {
		log.Error(pkg+"tracking failed", "error", err.Error())
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Info("tracker finished")
}

// run builds the session described by cfg and runs it until it ends or the
// process is signalled.
func run(cfg config.Config, cfgPath string) error {
	log := cfg.Logger

	input, err := newInput(cfg, log)
	if err != nil {
		return err
	}

	v, err := marker.ParseVariant(cfg.Variant)
	if err != nil {
		return err
	}
	det, err := detect.New(v)
	if err != nil {
		return fmt.Errorf("could not create detector: %w", err)
	}
	defer det.Close()

	disp, out, err := newDisplay(cfg, log)
	if err != nil {
		return err
	}
	defer disp.Close()

	opt := session.Options{
		Input:    input,
		Detector: det,
		Display:  disp,
		Out:      out,
	}
	if cfg.RecordPath != "" {
		rec, err := record.Open(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		opt.Recorder = rec
	}

	s, err := session.New(cfg, opt)
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}
	log.Info(pkg+"session created", "id", s.ID(), "input", input.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfgPath != "" {
		go func() {
			err := config.Watch(ctx, cfgPath, log, s.Update)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error(pkg+"config watch ended", "error", err.Error())
			}
		}()
	}

	return s.Run(ctx)
}

// newInput returns the frame source selected by cfg.Input.
func newInput(cfg config.Config, l logging.Logger) (device.FrameSource, error) {
	switch cfg.Input {
	case config.InputV4L:
		return webcam.New(l), nil
	case config.InputRaspivid:
		return raspivid.New(l), nil
	case config.InputFile:
		if cfg.InputPath == "" {
			return nil, errors.New("file input requires InputPath")
		}
		return file.New(l), nil
	default:
		return nil, fmt.Errorf("input %d is not supported by tracker", cfg.Input)
	}
}

// newDisplay returns the window, or the headless display if requested or
// the window is unavailable, and the writer for measurement lines.
func newDisplay(cfg config.Config, l logging.Logger) (display.Display, io.Writer, error) {
	if !cfg.Headless {
		w, err := display.NewWindow(display.DefaultTitle)
		if err == nil {
			return w, os.Stdout, nil
		}
		if !errors.Is(err, display.ErrNoCV) {
			return nil, nil, fmt.Errorf("could not open window: %w", err)
		}
		l.Warning(pkg+"no window support, running headless", "error", err.Error())
	}
	h, err := display.NewHeadless(os.Stdin, l)
	if err != nil {
		return nil, nil, err
	}
	return h, h.Output(os.Stdout), nil
}

// profile starts a CPU profile written to profilePath.
func profile(l logging.Logger) {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
}
