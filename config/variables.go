/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/fiducial/marker"
	"github.com/ausocean/fiducial/pose"
	"github.com/ausocean/fiducial/track"
)

// Config map Keys.
const (
	KeyAlphaX            = "AlphaX"
	KeyAlphaY            = "AlphaY"
	KeyAngles            = "Angles"
	KeyCalibrationFactor = "CalibrationFactor"
	KeyCalibrationFloor  = "CalibrationFloor"
	KeyCalibrationStep   = "CalibrationStep"
	KeyCameraMatrix      = "CameraMatrix"
	KeyDistortion        = "Distortion"
	KeyFrameRate         = "FrameRate"
	KeyHeadless          = "Headless"
	KeyHeight            = "Height"
	KeyHorizontalFlip    = "HorizontalFlip"
	KeyInput             = "Input"
	KeyInputPath         = "InputPath"
	KeyKeyTimeout        = "KeyTimeout"
	KeyLogging           = "logging"
	KeyLoop              = "Loop"
	KeyMarkerPixels      = "MarkerPixels"
	KeyMarkerSizeInches  = "MarkerSizeInches"
	KeyOriginMaxAge      = "OriginMaxAge"
	KeyPrintRate         = "PrintRate"
	KeyRecordPath        = "RecordPath"
	KeyRotation          = "Rotation"
	KeySuppress          = "Suppress"
	KeyVariant           = "Variant"
	KeyVerticalFlip      = "VerticalFlip"
	KeyWidth             = "Width"
)

// Config map parameter types.
const (
	typeString   = "string"
	typeUint     = "uint"
	typeBool     = "bool"
	typeFloat    = "float"
	typeFloats   = "floats"
	typeDuration = "duration"
)

// Default variable values.
const (
	defaultInput      = InputV4L
	defaultVerbosity  = logging.Info
	defaultWidth      = 640
	defaultHeight     = 480
	defaultFrameRate  = 30
	defaultKeyTimeout = time.Millisecond
	maxFrameRate      = 60
	maxDistortion     = 5
	maxRotation       = 359
	cameraMatrixSize  = 9
)

var (
	defaultVariant      = marker.DefaultVariant.String()
	defaultCameraMatrix = []float64{
		pose.DefaultFx, 0, pose.DefaultCx,
		0, pose.DefaultFy, pose.DefaultCy,
		0, 0, 1,
	}
)

// Variables describes the variables that can be used for session control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:     KeyAlphaX,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.AlphaX = parseFloat(KeyAlphaX, v, c) },
		Validate: func(c *Config) { c.AlphaX = unitInterval(KeyAlphaX, c.AlphaX, c, track.DefaultAlphaX) },
	},
	{
		Name:     KeyAlphaY,
		Type:     typeFloat,
		Update:   func(c *Config, v string) { c.AlphaY = parseFloat(KeyAlphaY, v, c) },
		Validate: func(c *Config) { c.AlphaY = unitInterval(KeyAlphaY, c.AlphaY, c, track.DefaultAlphaY) },
	},
	{
		Name:   KeyAngles,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Angles = parseBool(KeyAngles, v, c) },
	},
	{
		Name:   KeyCalibrationFactor,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.CalibrationFactor = parseFloat(KeyCalibrationFactor, v, c) },
		Validate: func(c *Config) {
			c.CalibrationFactor = positive(KeyCalibrationFactor, c.CalibrationFactor, c, track.DefaultCalibrationFactor)
		},
	},
	{
		Name:   KeyCalibrationFloor,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.CalibrationFloor = parseFloat(KeyCalibrationFloor, v, c) },
		Validate: func(c *Config) {
			c.CalibrationFloor = positive(KeyCalibrationFloor, c.CalibrationFloor, c, track.DefaultCalibrationFloor)
		},
	},
	{
		Name:   KeyCalibrationStep,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.CalibrationStep = parseFloat(KeyCalibrationStep, v, c) },
		Validate: func(c *Config) {
			c.CalibrationStep = positive(KeyCalibrationStep, c.CalibrationStep, c, track.DefaultCalibrationStep)
		},
	},
	{
		Name:   KeyCameraMatrix,
		Type:   typeFloats,
		Update: func(c *Config, v string) { c.CameraMatrix = parseFloats(KeyCameraMatrix, v, c) },
		Validate: func(c *Config) {
			if len(c.CameraMatrix) != cameraMatrixSize || c.CameraMatrix[0] == 0 || c.CameraMatrix[4] == 0 || !finite(c.CameraMatrix...) {
				c.LogInvalidField(KeyCameraMatrix, defaultCameraMatrix)
				c.CameraMatrix = append([]float64(nil), defaultCameraMatrix...)
			}
		},
	},
	{
		Name:   KeyDistortion,
		Type:   typeFloats,
		Update: func(c *Config, v string) { c.Distortion = parseFloats(KeyDistortion, v, c) },
		Validate: func(c *Config) {
			if c.Distortion == nil || len(c.Distortion) > maxDistortion || !finite(c.Distortion...) {
				c.LogInvalidField(KeyDistortion, pose.DefaultDistortion)
				c.Distortion = append([]float64(nil), pose.DefaultDistortion...)
			}
		},
	},
	{
		Name:   KeyFrameRate,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FrameRate = parseUint(KeyFrameRate, v, c) },
		Validate: func(c *Config) {
			if c.FrameRate <= 0 || c.FrameRate > maxFrameRate {
				c.LogInvalidField(KeyFrameRate, defaultFrameRate)
				c.FrameRate = defaultFrameRate
			}
		},
	},
	{
		Name:   KeyHeadless,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Headless = parseBool(KeyHeadless, v, c) },
	},
	{
		Name:     KeyHeight,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.Height = parseUint(KeyHeight, v, c) },
		Validate: func(c *Config) { c.Height = lessThanOrEqual(KeyHeight, c.Height, 0, c, defaultHeight) },
	},
	{
		Name:   KeyHorizontalFlip,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.HorizontalFlip = parseBool(KeyHorizontalFlip, v, c) },
	},
	{
		Name: KeyInput,
		Type: "enum:v4l,raspivid,file,manual",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"v4l":      InputV4L,
					"raspivid": InputRaspivid,
					"file":     InputFile,
					"manual":   InputManual,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputV4L, InputRaspivid, InputFile, InputManual:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:   KeyKeyTimeout,
		Type:   typeDuration,
		Update: func(c *Config, v string) { c.KeyTimeout = parseDuration(KeyKeyTimeout, v, c) },
		Validate: func(c *Config) {
			if c.KeyTimeout <= 0 {
				c.LogInvalidField(KeyKeyTimeout, defaultKeyTimeout)
				c.KeyTimeout = defaultKeyTimeout
			}
		},
	},
	{
		Name: KeyLogging,
		Type: "enum:Debug,Info,Warning,Error,Fatal",
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyLoop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Loop = parseBool(KeyLoop, v, c) },
	},
	{
		Name:   KeyMarkerPixels,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MarkerPixels = parseFloat(KeyMarkerPixels, v, c) },
		Validate: func(c *Config) {
			c.MarkerPixels = positive(KeyMarkerPixels, c.MarkerPixels, c, track.DefaultMarkerPixels)
		},
	},
	{
		Name:   KeyMarkerSizeInches,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MarkerSizeInches = parseFloat(KeyMarkerSizeInches, v, c) },
		Validate: func(c *Config) {
			c.MarkerSizeInches = positive(KeyMarkerSizeInches, c.MarkerSizeInches, c, track.DefaultMarkerSizeInches)
		},
	},
	{
		Name:   KeyOriginMaxAge,
		Type:   typeDuration,
		Update: func(c *Config, v string) { c.OriginMaxAge = parseDuration(KeyOriginMaxAge, v, c) },
		Validate: func(c *Config) {
			if c.OriginMaxAge < 0 {
				c.LogInvalidField(KeyOriginMaxAge, 0)
				c.OriginMaxAge = 0
			}
		},
	},
	{
		Name:   KeyPrintRate,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.PrintRate = parseFloat(KeyPrintRate, v, c) },
		Validate: func(c *Config) {
			c.PrintRate = positive(KeyPrintRate, c.PrintRate, c, track.DefaultReportRate)
		},
	},
	{
		Name:   KeyRecordPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.RecordPath = v },
	},
	{
		Name:   KeyRotation,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Rotation = parseUint(KeyRotation, v, c) },
		Validate: func(c *Config) {
			if c.Rotation > maxRotation {
				c.LogInvalidField(KeyRotation, 0)
				c.Rotation = 0
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyVariant,
		Type:   typeString,
		Update: func(c *Config, v string) { c.Variant = v },
		Validate: func(c *Config) {
			_, err := marker.ParseVariant(c.Variant)
			if err != nil {
				c.LogInvalidField(KeyVariant, defaultVariant)
				c.Variant = defaultVariant
			}
		},
	},
	{
		Name:   KeyVerticalFlip,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.VerticalFlip = parseBool(KeyVerticalFlip, v, c) },
	},
	{
		Name:     KeyWidth,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.Width = parseUint(KeyWidth, v, c) },
		Validate: func(c *Config) { c.Width = lessThanOrEqual(KeyWidth, c.Width, 0, c, defaultWidth) },
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return f
}

// parseFloats parses a comma separated list of floats. Bad elements are
// logged and parsed as zero.
func parseFloats(n, v string, c *Config) []float64 {
	v = strings.Replace(v, " ", "", -1)
	vals := make([]float64, 0)
	if v == "" {
		return vals
	}
	for _, e := range strings.Split(v, ",") {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil {
			c.Logger.Warning(fmt.Sprintf("invalid %s element", n), "value", e)
		}
		vals = append(vals, f)
	}
	return vals
}

func parseDuration(n, v string, c *Config) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected duration for param %s", n), "value", v)
	}
	return d
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(v) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(v)]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

// positive returns v if it is finite and greater than zero, def otherwise.
func positive(n string, v float64, c *Config, def float64) float64 {
	if !(v > 0) || !finite(v) {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

// unitInterval returns v if it lies in (0, 1], def otherwise.
func unitInterval(n string, v float64, c *Config, def float64) float64 {
	if !(v > 0 && v <= 1) {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

// finite returns true if none of vs is NaN or infinite.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
