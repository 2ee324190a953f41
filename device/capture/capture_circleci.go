//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV capture source when building without OpenCV, e.g. on
  Circle-CI. The replacement can be configured but never started.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package capture

import (
	"errors"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/device"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/pipeline/config"
)

// Video is a stand in for the OpenCV capture source.
type Video struct{ log logging.Logger }

// New returns a new Video source.
func New(l logging.Logger) *Video { return &Video{log: l} }

// Name returns the name of the source.
func (v *Video) Name() string { return "Capture" }

// Set implements Source.
func (v *Video) Set(c config.Config) error { return nil }

// Start always fails; capture requires OpenCV.
func (v *Video) Start() error { return errors.New("capture source requires building with withcv") }

// Stop implements Source.
func (v *Video) Stop() error { return nil }

// IsRunning always returns false.
func (v *Video) IsRunning() bool { return false }

// Read implements Source.
func (v *Video) Read() (frame.Frame, bool, error) { return frame.Frame{}, false, device.ErrNotStarted }
