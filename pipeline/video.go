//go:build withcv
// +build withcv

/*
DESCRIPTION
  video.go provides VideoSink, which writes each cycle's moving foreground
  mask to a video file using OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"fmt"

	"github.com/ausocean/utils/logging"
	"gocv.io/x/gocv"
)

const maskCodec = "MJPG"

// VideoSink writes moving foreground masks to a video file. The writer is
// opened on the first mask so that the frame size is known.
type VideoSink struct {
	log  logging.Logger
	path string
	fps  float64
	vw   *gocv.VideoWriter
}

// NewVideoSink returns a VideoSink writing to path at fps frames a second.
func NewVideoSink(path string, fps float64, l logging.Logger) (*VideoSink, error) {
	if path == "" {
		return nil, fmt.Errorf("no mask video path")
	}
	return &VideoSink{log: l, path: path, fps: fps}, nil
}

func (s *VideoSink) Consume(c *Cycle) error {
	if c.Mask == nil {
		return nil
	}
	if s.vw == nil {
		b := c.Mask.Bounds()
		vw, err := gocv.VideoWriterFile(s.path, maskCodec, s.fps, b.Dx(), b.Dy(), false)
		if err != nil {
			return fmt.Errorf("could not open mask video: %w", err)
		}
		s.vw = vw
		s.log.Info("writing mask video", "path", s.path, "width", b.Dx(), "height", b.Dy())
	}
	mat, err := gocv.ImageGrayToMatGray(c.Mask)
	if err != nil {
		return fmt.Errorf("could not convert mask: %w", err)
	}
	defer mat.Close()
	return s.vw.Write(mat)
}

func (s *VideoSink) Close() error {
	if s.vw == nil {
		return nil
	}
	return s.vw.Close()
}
