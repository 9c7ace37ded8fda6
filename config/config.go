/*
NAME
  config.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


// Package config contains the configuration settings for a tracking session.
package config

import (
	"time"

	"github.com/ausocean/utils/logging"
)

// Enums to define inputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	InputV4L
	InputRaspivid
	InputFile
	InputManual
)

// Config provides parameters relevant to a tracking session. Default values
// for these fields are applied by Validate.
type Config struct {
	// AlphaX and AlphaY are the exponential smoothing weights of new raw
	// positions on each axis. A value of 1 disables smoothing on that axis.
	AlphaX float64
	AlphaY float64

	// Angles enables marker pose solving and relative angle output.
	Angles bool

	// CalibrationFactor is the initial multiplicative correction of the pixel
	// to mm conversion. CalibrationStep is the key adjustment step and
	// CalibrationFloor the lowest value a decrease may reach.
	CalibrationFactor float64
	CalibrationStep   float64
	CalibrationFloor  float64

	// CameraMatrix is the row major 3x3 camera intrinsic matrix used for pose
	// solving.
	CameraMatrix []float64

	// Distortion holds the k1, k2, p1, p2 and k3 lens distortion coefficients.
	// Fewer coefficients may be given, the rest being zero.
	Distortion []float64

	FrameRate uint // Frame rate requested from the input.

	// Headless disables the window; frames are not shown and keys are read
	// from the terminal.
	Headless bool

	Height         uint // Height of captured frames.
	HorizontalFlip bool // HorizontalFlip flips video horizontally for Raspivid input.

	// Input defines the frame source.
	//
	// Valid values are defined by enums:
	// InputV4L:
	//		Read MJPEG from a webcam using ffmpeg.
	// InputRaspivid:
	//		Use raspivid to capture MJPEG from the Raspberry Pi camera.
	// InputFile:
	//		Read an MJPEG file. Location must be specified in InputPath.
	// InputManual:
	//		Frames are written by software.
	Input uint8

	// InputPath is the file location for file input, or the video device for
	// V4L input.
	InputPath string

	// KeyTimeout is how long each loop iteration waits for a key press.
	KeyTimeout time.Duration

	// Logger holds an implementation of the Logger interface. This must be set
	// for the config to be validated or updated.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Loop bool // If true file input restarts after reaching the end.

	// MarkerPixels is the marker side in pixels that MarkerSizeInches
	// corresponds to in the image.
	MarkerPixels float64

	MarkerSizeInches float64 // Printed marker side length.

	// OriginMaxAge is how long the origin remains valid after it was last
	// seen. Zero means the last seen origin never expires.
	OriginMaxAge time.Duration

	PrintRate float64 // Maximum measurement print rate in Hz.

	Rotation uint // Rotation defines the video rotation angle in degrees for Raspivid input.

	// RecordPath, if set, is the sqlite database measurements are recorded to.
	RecordPath string

	Suppress bool // Holds logger suppression state.

	// Variant names the marker dictionary to detect, as accepted by
	// marker.ParseVariant.
	Variant string

	VerticalFlip bool // VerticalFlip flips video vertically for Raspivid input.
	Width        uint // Width of captured frames.
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
