//go:build withcv
// +build withcv

/*
DESCRIPTION
  capture.go provides an implementation of the Source interface that reads
  any video file or device OpenCV can decode.

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
	"fmt"
	"sync"

	"github.com/ausocean/utils/logging"
	"gocv.io/x/gocv"

	"github.com/ausocean/skywatch/device"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/pipeline/config"
)

// Video is a Source reading through an OpenCV VideoCapture.
type Video struct {
	mu        sync.Mutex
	log       logging.Logger
	path      string
	loop      bool
	set       bool
	vc        *gocv.VideoCapture
	img, gray gocv.Mat
	index     uint64
}

// New returns a new Video source.
func New(l logging.Logger) *Video { return &Video{log: l} }

// Name returns the name of the source.
func (v *Video) Name() string { return "Capture" }

// Set uses the InputPath and Loop fields of the config.
func (v *Video) Set(c config.Config) error {
	if c.InputPath == "" {
		return errors.New("no input path for capture source")
	}
	v.path = c.InputPath
	v.loop = c.Loop
	v.set = true
	return nil
}

// Start opens the video.
func (v *Video) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.set {
		return errors.New("capture source has not been set with config")
	}
	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("could not open video capture: %w", err)
	}
	v.vc = vc
	v.img, v.gray = gocv.NewMat(), gocv.NewMat()
	return nil
}

// Stop closes the video. It has to be done manually, due to gocv using c-go.
func (v *Video) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		return nil
	}
	err := v.vc.Close()
	v.img.Close()
	v.gray.Close()
	v.vc = nil
	return err
}

// IsRunning is used to determine if the source is running.
func (v *Video) IsRunning() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vc != nil
}

// Read implements Source.
func (v *Video) Read() (frame.Frame, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.vc == nil {
		if v.set {
			return frame.Frame{}, false, nil
		}
		return frame.Frame{}, false, device.ErrNotStarted
	}

	if !v.vc.Read(&v.img) || v.img.Empty() {
		if !v.loop {
			return frame.Frame{}, false, nil
		}
		v.log.Info("looping input video")
		v.vc.Set(gocv.VideoCapturePosFrames, 0)
		if !v.vc.Read(&v.img) || v.img.Empty() {
			return frame.Frame{}, false, nil
		}
	}

	if v.img.Channels() == 1 {
		v.img.CopyTo(&v.gray)
	} else {
		gocv.CvtColor(v.img, &v.gray, gocv.ColorBGRToGray)
	}
	img, err := v.gray.ToImage()
	if err != nil {
		return frame.Frame{}, false, fmt.Errorf("could not convert mat to image: %w", err)
	}
	f := frame.FromImage(v.index, img)
	v.index++
	return f, true, nil
}
