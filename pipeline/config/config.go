/*
DESCRIPTION
  config.go provides the configuration settings for a skywatch pipeline.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for a skywatch pipeline.
package config

import (
	"github.com/ausocean/utils/logging"
)

// Enums to define inputs, outputs and algorithm strategies.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Inputs.
	InputFile    // Concatenated JPEG (MJPEG) file.
	InputCapture // Any video file or device OpenCV can decode.
	InputManual  // Frames written by the caller.

	// Outputs.
	OutputLog    // Log each cycle's tracks.
	OutputSQLite // Persist tracks to a SQLite database.
	OutputVideo  // Write moving foreground masks to a video file.

	// Registration strategies.
	RegistrationFeatures
	RegistrationPhase
	RegistrationNone

	// Foreground strategies.
	ForegroundRecompute
	ForegroundCached
)

// Config provides parameters relevant to a pipeline instance. A new config
// must be passed to the constructor. Default values for these fields are
// defined in variables.go.
type Config struct {
	// Input defines the frame source.
	//
	// Valid values are defined by enums:
	// InputFile:
	//		Read a concatenated JPEG file. Location must be specified in the
	//		InputPath field.
	// InputCapture:
	//		Read with OpenCV from the file or device at InputPath.
	// InputManual:
	//		Frames are written to the pipeline's manual source by the caller.
	Input uint8

	InputPath string // Location of the input for file and capture inputs.
	Loop      bool   // If true will restart reading of input after an io.EOF.
	FileFPS   uint   // Rate at which frames from a file source are processed; 0 is unpaced.

	// Logger holds an implementation of the Logger interface.
	// This must be set for the pipeline to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	// HistoryFrames is the number of frames N, including the current frame,
	// compared by the background model. Level thresholds are derived from it.
	HistoryFrames uint

	// Registration defines how history frames are aligned to the current
	// frame: RegistrationFeatures, RegistrationPhase or RegistrationNone.
	Registration uint8

	MaxFeatures      uint    // Maximum features detected per frame.
	GoodMatchPercent float64 // Fraction of best feature matches kept, in (0,1].
	FASTThreshold    uint    // Intensity difference of the FAST segment test.
	RANSACThreshold  float64 // Maximum inlier reprojection error in pixels.

	QuantizationScale uint  // Number of intensity buckets of the background model.
	Foreground        uint8 // ForegroundRecompute or ForegroundCached.
	Workers           uint  // Bound on concurrent registration and quantization.

	MotionMinArea uint // Blobs with fewer pixels are ignored.

	Particles      uint    // Particles per tracked identity.
	MatchThreshold float64 // Minimum match probability for a detection to keep an identity.
	MaxMisses      uint    // Cycles without a matched detection before an identity is retired.
	Seed           int64   // Tracker random seed; 0 seeds from the clock.

	// Outputs define the sinks each cycle's results are handed to.
	//
	// Valid outputs are defined by enums:
	// OutputLog:
	//		Tracks are logged at info level.
	// OutputSQLite:
	//		Tracks are stored in the database at OutputPath.
	// OutputVideo:
	//		Moving foreground masks are written to MaskVideoPath. Requires OpenCV.
	Outputs []uint8

	OutputPath    string // SQLite database location.
	MaskVideoPath string // Mask video location.
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

// HasOutput reports whether o is one of the configured outputs.
func (c *Config) HasOutput(o uint8) bool {
	for _, out := range c.Outputs {
		if out == o {
			return true
		}
	}
	return false
}

func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
