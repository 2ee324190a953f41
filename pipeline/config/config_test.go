/*
DESCRIPTION
  config_test.go provides testing for the Config struct methods (Validate and Update).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"runtime"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestValidate(t *testing.T) {
	dl := &dumbLogger{}

	want := Config{
		Logger:            dl,
		Input:             defaultInput,
		Outputs:           []uint8{defaultOutput},
		FileFPS:           defaultFileFPS,
		HistoryFrames:     defaultHistoryFrames,
		Registration:      defaultRegistration,
		MaxFeatures:       defaultMaxFeatures,
		GoodMatchPercent:  defaultGoodMatchPercent,
		FASTThreshold:     defaultFASTThreshold,
		RANSACThreshold:   defaultRANSACThreshold,
		QuantizationScale: defaultQuantizationScale,
		Foreground:        defaultForeground,
		Workers:           uint(runtime.NumCPU()),
		MotionMinArea:     defaultMotionMinArea,
		Particles:         defaultParticles,
		MatchThreshold:    defaultMatchThreshold,
		MaxMisses:         defaultMaxMisses,
	}

	got := Config{Logger: dl}
	err := (&got).Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	if !cmp.Equal(got, want) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}

func TestValidateOutputPaths(t *testing.T) {
	got := Config{Logger: &dumbLogger{}, Outputs: []uint8{OutputSQLite, OutputVideo}}
	err := got.Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if got.OutputPath != defaultOutputPath {
		t.Errorf("unexpected output path.\nwant: %v\ngot: %v", defaultOutputPath, got.OutputPath)
	}
	if got.MaskVideoPath != defaultMaskVideoPath {
		t.Errorf("unexpected mask video path.\nwant: %v\ngot: %v", defaultMaskVideoPath, got.MaskVideoPath)
	}
}

func TestValidateOutOfRange(t *testing.T) {
	got := Config{
		Logger:            &dumbLogger{},
		Input:             InputCapture,
		FileFPS:           25,
		HistoryFrames:     2,
		GoodMatchPercent:  1.5,
		QuantizationScale: 300,
		MatchThreshold:    -1,
	}
	err := got.Validate()
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}

	tests := []struct {
		name      string
		got, want interface{}
	}{
		{KeyFileFPS, got.FileFPS, uint(defaultFileFPS)},
		{KeyHistoryFrames, got.HistoryFrames, uint(defaultHistoryFrames)},
		{KeyGoodMatchPercent, got.GoodMatchPercent, defaultGoodMatchPercent},
		{KeyQuantizationScale, got.QuantizationScale, uint(defaultQuantizationScale)},
		{KeyMatchThreshold, got.MatchThreshold, defaultMatchThreshold},
		{KeyInput, got.Input, uint8(InputCapture)},
	}
	for _, test := range tests {
		if !cmp.Equal(test.got, test.want) {
			t.Errorf("unexpected %s.\nwant: %v\ngot: %v", test.name, test.want, test.got)
		}
	}
}

func TestUpdate(t *testing.T) {
	updateMap := map[string]string{
		"FASTThreshold":     "30",
		"FileFPS":           "15",
		"Foreground":        "cached",
		"GoodMatchPercent":  "0.25",
		"HistoryFrames":     "8",
		"Input":             "capture",
		"InputPath":         "/inputpath",
		"logging":           "Debug",
		"Loop":              "true",
		"MaskVideoPath":     "/mask.avi",
		"MatchThreshold":    "0.7",
		"MaxFeatures":       "800",
		"MaxMisses":         "9",
		"MotionMinArea":     "12",
		"OutputPath":        "/out.db",
		"Outputs":           "SQLite, Video,Log",
		"Particles":         "7",
		"QuantizationScale": "16",
		"RANSACThreshold":   "2.5",
		"Registration":      "phase",
		"Seed":              "-42",
		"Workers":           "3",
	}

	dl := &dumbLogger{}

	want := Config{
		Logger:            dl,
		FASTThreshold:     30,
		FileFPS:           15,
		Foreground:        ForegroundCached,
		GoodMatchPercent:  0.25,
		HistoryFrames:     8,
		Input:             InputCapture,
		InputPath:         "/inputpath",
		LogLevel:          logging.Debug,
		Loop:              true,
		MaskVideoPath:     "/mask.avi",
		MatchThreshold:    0.7,
		MaxFeatures:       800,
		MaxMisses:         9,
		MotionMinArea:     12,
		OutputPath:        "/out.db",
		Outputs:           []uint8{OutputSQLite, OutputVideo, OutputLog},
		Particles:         7,
		QuantizationScale: 16,
		RANSACThreshold:   2.5,
		Registration:      RegistrationPhase,
		Seed:              -42,
		Workers:           3,
	}

	got := Config{Logger: dl}
	got.Update(updateMap)
	if !cmp.Equal(want, got) {
		t.Errorf("configs not equal\nwant: %v\ngot: %v", want, got)
	}
}
