/*
DESCRIPTION
  stage.go provides the stage call contract, the per-cycle result carrier
  and the scheduler that runs stages in order.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline runs frames from a source through registration,
// foreground extraction, blob extraction and tracking, and hands the
// identity stamped regions to sinks.
package pipeline

import (
	"fmt"
	"image"

	"github.com/ausocean/skywatch/filter"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/register"
)

// Status is returned by a stage after each execution. If Continue is false
// the pipeline halts. If Proceed is false the remaining stages of the cycle
// are skipped but the next cycle still runs.
type Status struct {
	Continue bool
	Proceed  bool
}

// Common statuses.
var (
	proceed = Status{Continue: true, Proceed: true}
	skip    = Status{Continue: true, Proceed: false}
	halt    = Status{Continue: false, Proceed: false}
)

// Stage is one step of a cycle. It reads the outputs of earlier stages from
// the cycle and writes its own.
type Stage interface {
	Name() string
	Execute(c *Cycle) (Status, error)
}

// Cycle carries the outputs of each stage for one frame.
type Cycle struct {
	Frame      frame.Frame        // Set by SourceStage.
	Aligned    []register.Aligned // Set by RegisterStage, oldest first, current last.
	Maps       *filter.Maps       // Set by ForegroundStage.
	Mask       *image.Gray        // Moving foreground mask; set by ForegroundStage.
	Detections []frame.Region     // Set by BlobStage.
	Tracks     []frame.Region     // Set by TrackStage.
}

// Scheduler executes a fixed sequence of stages.
type Scheduler struct {
	stages []Stage
}

// NewScheduler returns a Scheduler running stages in the given order.
func NewScheduler(stages ...Stage) *Scheduler { return &Scheduler{stages: stages} }

// Run executes one cycle. cont is false when a stage has halted the
// pipeline. An error from a stage skips the remainder of the cycle.
func (s *Scheduler) Run(c *Cycle) (cont bool, err error) {
	for _, st := range s.stages {
		status, err := st.Execute(c)
		if err != nil {
			return status.Continue, fmt.Errorf("%s stage failed on frame %d: %w", st.Name(), c.Frame.Index, err)
		}
		if !status.Continue {
			return false, nil
		}
		if !status.Proceed {
			return true, nil
		}
	}
	return true, nil
}
