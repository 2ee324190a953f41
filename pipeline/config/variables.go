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
	"runtime"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyFASTThreshold     = "FASTThreshold"
	KeyFileFPS           = "FileFPS"
	KeyForeground        = "Foreground"
	KeyGoodMatchPercent  = "GoodMatchPercent"
	KeyHistoryFrames     = "HistoryFrames"
	KeyInput             = "Input"
	KeyInputPath         = "InputPath"
	KeyLogging           = "logging"
	KeyLoop              = "Loop"
	KeyMaskVideoPath     = "MaskVideoPath"
	KeyMatchThreshold    = "MatchThreshold"
	KeyMaxFeatures       = "MaxFeatures"
	KeyMaxMisses         = "MaxMisses"
	KeyMotionMinArea     = "MotionMinArea"
	KeyOutputPath        = "OutputPath"
	KeyOutputs           = "Outputs"
	KeyParticles         = "Particles"
	KeyQuantizationScale = "QuantizationScale"
	KeyRANSACThreshold   = "RANSACThreshold"
	KeyRegistration      = "Registration"
	KeySeed              = "Seed"
	KeyWorkers           = "Workers"
)

// Config map parameter types.
const (
	typeString = "string"
	typeInt    = "int"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	// General defaults.
	defaultInput         = InputFile
	defaultOutput        = OutputLog
	defaultVerbosity     = logging.Info
	defaultFileFPS       = 0
	defaultOutputPath    = "skywatch.db"
	defaultMaskVideoPath = "mask.avi"

	// Registration defaults.
	defaultRegistration     = RegistrationFeatures
	defaultMaxFeatures      = 500
	defaultGoodMatchPercent = 0.15
	defaultFASTThreshold    = 20
	defaultRANSACThreshold  = 3.0

	// Background model defaults.
	defaultHistoryFrames     = 10
	minHistoryFrames         = 3
	maxHistoryFrames         = 255
	defaultQuantizationScale = 10
	defaultForeground        = ForegroundRecompute
	defaultMotionMinArea     = 4

	// Tracker defaults.
	defaultParticles      = 5
	defaultMatchThreshold = 0.6
	defaultMaxMisses      = 5
)

// Variables describes the variables that can be used for pipeline control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
var Variables = []struct {
	Name     string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	// Input and Outputs come first since other validations depend on them.
	{
		Name: KeyInput,
		Type: "enum:file,capture,manual",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"file":    InputFile,
					"capture": InputCapture,
					"manual":  InputManual,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputCapture, InputManual:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name: KeyOutputs,
		Type: "enums:Log,SQLite,Video",
		Update: func(c *Config, v string) {
			outputs := strings.Split(v, ",")
			c.Outputs = make([]uint8, 0, len(outputs))
			for _, output := range outputs {
				switch strings.ToLower(strings.TrimSpace(output)) {
				case "log":
					c.Outputs = append(c.Outputs, OutputLog)
				case "sqlite":
					c.Outputs = append(c.Outputs, OutputSQLite)
				case "video":
					c.Outputs = append(c.Outputs, OutputVideo)
				default:
					c.Logger.Warning("invalid outputs param", "value", output)
				}
			}
		},
		Validate: func(c *Config) {
			if len(c.Outputs) == 0 {
				c.LogInvalidField(KeyOutputs, defaultOutput)
				c.Outputs = append(c.Outputs, defaultOutput)
			}
		},
	},
	{
		Name:   KeyFASTThreshold,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FASTThreshold = parseUint(KeyFASTThreshold, v, c) },
		Validate: func(c *Config) {
			if c.FASTThreshold == 0 || c.FASTThreshold > 255 {
				c.LogInvalidField(KeyFASTThreshold, defaultFASTThreshold)
				c.FASTThreshold = defaultFASTThreshold
			}
		},
	},
	{
		Name:   KeyFileFPS,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FileFPS = parseUint(KeyFileFPS, v, c) },
		Validate: func(c *Config) {
			if c.FileFPS > 0 && c.Input != InputFile {
				c.LogInvalidField(KeyFileFPS, defaultFileFPS)
				c.FileFPS = defaultFileFPS
			}
		},
	},
	{
		Name: KeyForeground,
		Type: "enum:recompute,cached",
		Update: func(c *Config, v string) {
			c.Foreground = parseEnum(
				KeyForeground,
				v,
				map[string]uint8{
					"recompute": ForegroundRecompute,
					"cached":    ForegroundCached,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Foreground {
			case ForegroundRecompute, ForegroundCached:
			default:
				c.LogInvalidField(KeyForeground, defaultForeground)
				c.Foreground = defaultForeground
			}
		},
	},
	{
		Name:   KeyGoodMatchPercent,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.GoodMatchPercent = parseFloat(KeyGoodMatchPercent, v, c) },
		Validate: func(c *Config) {
			c.GoodMatchPercent = inUnitInterval(KeyGoodMatchPercent, c.GoodMatchPercent, c, defaultGoodMatchPercent)
		},
	},
	{
		Name:   KeyHistoryFrames,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.HistoryFrames = parseUint(KeyHistoryFrames, v, c) },
		Validate: func(c *Config) {
			if c.HistoryFrames < minHistoryFrames || c.HistoryFrames > maxHistoryFrames {
				c.LogInvalidField(KeyHistoryFrames, defaultHistoryFrames)
				c.HistoryFrames = defaultHistoryFrames
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
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
		Name:   KeyMaskVideoPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.MaskVideoPath = v },
		Validate: func(c *Config) {
			if c.MaskVideoPath == "" && c.HasOutput(OutputVideo) {
				c.LogInvalidField(KeyMaskVideoPath, defaultMaskVideoPath)
				c.MaskVideoPath = defaultMaskVideoPath
			}
		},
	},
	{
		Name:   KeyMatchThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.MatchThreshold = parseFloat(KeyMatchThreshold, v, c) },
		Validate: func(c *Config) {
			c.MatchThreshold = inUnitInterval(KeyMatchThreshold, c.MatchThreshold, c, defaultMatchThreshold)
		},
	},
	{
		Name:   KeyMaxFeatures,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MaxFeatures = parseUint(KeyMaxFeatures, v, c) },
		Validate: func(c *Config) {
			c.MaxFeatures = lessThanOrEqual(KeyMaxFeatures, c.MaxFeatures, 0, c, defaultMaxFeatures)
		},
	},
	{
		Name:     KeyMaxMisses,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.MaxMisses = parseUint(KeyMaxMisses, v, c) },
		Validate: func(c *Config) { c.MaxMisses = lessThanOrEqual(KeyMaxMisses, c.MaxMisses, 0, c, defaultMaxMisses) },
	},
	{
		Name:   KeyMotionMinArea,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.MotionMinArea = parseUint(KeyMotionMinArea, v, c) },
		Validate: func(c *Config) {
			c.MotionMinArea = lessThanOrEqual(KeyMotionMinArea, c.MotionMinArea, 0, c, defaultMotionMinArea)
		},
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
		Validate: func(c *Config) {
			if c.OutputPath == "" && c.HasOutput(OutputSQLite) {
				c.LogInvalidField(KeyOutputPath, defaultOutputPath)
				c.OutputPath = defaultOutputPath
			}
		},
	},
	{
		Name:     KeyParticles,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.Particles = parseUint(KeyParticles, v, c) },
		Validate: func(c *Config) { c.Particles = lessThanOrEqual(KeyParticles, c.Particles, 0, c, defaultParticles) },
	},
	{
		Name:   KeyQuantizationScale,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.QuantizationScale = parseUint(KeyQuantizationScale, v, c) },
		Validate: func(c *Config) {
			if c.QuantizationScale < 2 || c.QuantizationScale > 255 {
				c.LogInvalidField(KeyQuantizationScale, defaultQuantizationScale)
				c.QuantizationScale = defaultQuantizationScale
			}
		},
	},
	{
		Name:   KeyRANSACThreshold,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.RANSACThreshold = parseFloat(KeyRANSACThreshold, v, c) },
		Validate: func(c *Config) {
			if c.RANSACThreshold <= 0 {
				c.LogInvalidField(KeyRANSACThreshold, defaultRANSACThreshold)
				c.RANSACThreshold = defaultRANSACThreshold
			}
		},
	},
	{
		Name: KeyRegistration,
		Type: "enum:features,phase,none",
		Update: func(c *Config, v string) {
			c.Registration = parseEnum(
				KeyRegistration,
				v,
				map[string]uint8{
					"features": RegistrationFeatures,
					"phase":    RegistrationPhase,
					"none":     RegistrationNone,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Registration {
			case RegistrationFeatures, RegistrationPhase, RegistrationNone:
			default:
				c.LogInvalidField(KeyRegistration, defaultRegistration)
				c.Registration = defaultRegistration
			}
		},
	},
	{
		Name:   KeySeed,
		Type:   typeInt,
		Update: func(c *Config, v string) { c.Seed = int64(parseInt(KeySeed, v, c)) },
	},
	{
		Name:   KeyWorkers,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.Workers = parseUint(KeyWorkers, v, c) },
		Validate: func(c *Config) {
			if c.Workers == 0 {
				def := uint(runtime.NumCPU())
				c.LogInvalidField(KeyWorkers, def)
				c.Workers = def
			}
		},
	},
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

func parseInt(n, v string, c *Config) int {
	_v, err := strconv.Atoi(v)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected integer for param %s", n), "value", v)
	}
	return _v
}

func parseFloat(n, v string, c *Config) float64 {
	_v, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return _v
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

func inUnitInterval(n string, v float64, c *Config, def float64) float64 {
	if v <= 0 || v > 1 {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
