/*
DESCRIPTION
  stages.go provides the stages of a skywatch cycle.

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
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/blob"
	"github.com/ausocean/skywatch/device"
	"github.com/ausocean/skywatch/filter"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/register"
	"github.com/ausocean/skywatch/track"
)

// SourceStage reads the next frame. The end of the stream halts the
// pipeline; a read error skips the cycle.
type SourceStage struct {
	Source device.Source
}

func (s *SourceStage) Name() string { return "source" }

func (s *SourceStage) Execute(c *Cycle) (Status, error) {
	f, ok, err := s.Source.Read()
	if err != nil {
		return skip, fmt.Errorf("could not read from %s: %w", s.Source.Name(), err)
	}
	if !ok {
		return halt, nil
	}
	c.Frame = f
	return proceed, nil
}

// RegisterStage pushes the current frame into the history and aligns the
// history onto it. Until the history is full the rest of the cycle is
// skipped.
type RegisterStage struct {
	History   *frame.History
	Registrar *register.Registrar
	Log       logging.Logger
}

func (s *RegisterStage) Name() string { return "register" }

func (s *RegisterStage) Execute(c *Cycle) (Status, error) {
	if n, ok := s.History.Newest(); ok && (n.Width() != c.Frame.Width() || n.Height() != c.Frame.Height()) {
		s.Log.Warning("frame size changed, resetting history", "frame", c.Frame.Index)
		s.History.Reset()
	}
	s.History.Push(c.Frame)
	if !s.History.Full() {
		s.Log.Debug("accumulating history", "frame", c.Frame.Index, "have", s.History.Len(), "want", s.History.Cap())
		return skip, nil
	}
	c.Aligned = s.Registrar.ShiftAll(s.History.Frames(), c.Frame)
	return proceed, nil
}

// ForegroundStage classifies the moving foreground of the aligned frames.
type ForegroundStage struct {
	Foreground filter.Foreground
}

func (s *ForegroundStage) Name() string { return "foreground" }

func (s *ForegroundStage) Execute(c *Cycle) (Status, error) {
	m, err := s.Foreground.Extract(c.Aligned)
	if errors.Is(err, filter.ErrNotReady) {
		return skip, nil
	}
	if err != nil {
		return skip, err
	}
	c.Maps = m
	c.Mask = m.Mask
	return proceed, nil
}

// BlobStage extracts detections from the moving foreground mask.
type BlobStage struct {
	Extractor blob.Extractor
}

func (s *BlobStage) Name() string { return "blob" }

func (s *BlobStage) Execute(c *Cycle) (Status, error) {
	dets, err := s.Extractor.Extract(c.Mask, c.Frame.Index)
	if err != nil {
		return skip, err
	}
	c.Detections = dets
	return proceed, nil
}

// TrackStage stamps identities on the cycle's detections.
type TrackStage struct {
	Tracker *track.Tracker
}

func (s *TrackStage) Name() string { return "track" }

func (s *TrackStage) Execute(c *Cycle) (Status, error) {
	c.Tracks = s.Tracker.Update(c.Detections, c.Frame.Index)
	return proceed, nil
}

// SinkStage hands the cycle to every sink. A failing sink does not prevent
// the others from consuming the cycle.
type SinkStage struct {
	Sinks []Sink
}

func (s *SinkStage) Name() string { return "sink" }

func (s *SinkStage) Execute(c *Cycle) (Status, error) {
	var errs []error
	for _, sink := range s.Sinks {
		err := sink.Consume(c)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return proceed, errors.Join(errs...)
}
