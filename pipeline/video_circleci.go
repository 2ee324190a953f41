//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  video_circleci.go replaces video.go when OpenCV is not available.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"errors"

	"github.com/ausocean/utils/logging"
)

// VideoSink is a placeholder; building with withcv is required.
type VideoSink struct{}

// NewVideoSink returns an error since mask video needs OpenCV.
func NewVideoSink(path string, fps float64, l logging.Logger) (*VideoSink, error) {
	return nil, errors.New("mask video output requires building with withcv")
}

func (s *VideoSink) Consume(c *Cycle) error { return nil }

func (s *VideoSink) Close() error { return nil }
