/*
DESCRIPTION
  filter.go provides the Foreground interface, its shared parameters and the
  strategies that extract a moving foreground mask from a window of aligned
  history frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package filter provides the history based background model that
// classifies each pixel of the current frame as static background,
// transient noise or moving foreground.
package filter

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/register"
)

// Errors returned by foreground extraction.
var (
	ErrNotReady     = errors.New("not enough history frames")
	ErrSizeMismatch = errors.New("frame size mismatch")
)

// Mask values.
const (
	Still  = 0
	Moving = 255
)

// Defaults.
const (
	DefaultScale   = 10
	DefaultHistory = 10
	minHistory     = 3
)

// Strategy selects how the per pair results of the background model are
// obtained each cycle.
type Strategy uint8

// Foreground strategies.
const (
	StrategyRecompute Strategy = iota // Recompute everything every cycle.
	StrategyCached                    // Reuse pair results while their transforms are unchanged.
)

func (s Strategy) String() string {
	switch s {
	case StrategyRecompute:
		return "recompute"
	case StrategyCached:
		return "cached"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Maps holds the intermediate and final per pixel maps of one cycle.
type Maps struct {
	Union         *image.Gray // Background estimate from the pairwise intersections.
	Weights       *image.Gray // Number of agreeing consecutive pairs.
	Dissimilarity *image.Gray // Mean absolute change over disagreeing pairs.
	Foreground    *image.Gray // |current - union| after background zeroing.
	Mask          *image.Gray // Moving (255) or Still (0), after edge cleanup.
}

// Foreground extracts the moving foreground from aligned history frames. The
// aligned frames are ordered oldest to newest and the newest is the current
// frame.
type Foreground interface {
	Extract(aligned []register.Aligned) (*Maps, error)
}

// Params configures a Foreground.
type Params struct {
	History int // Number of history frames N, including the current frame.
	Scale   int // Quantization scale.
	Workers int // Bound on concurrent quantization.
}

func (p *Params) validate(log logging.Logger) error {
	if p.History < minHistory || p.History > 255 {
		return fmt.Errorf("history frame count out of range [%d,255]: %d", minHistory, p.History)
	}
	if p.Scale == 0 {
		log.Info("quantization scale not set, defaulting", "scale", DefaultScale)
		p.Scale = DefaultScale
	}
	if p.Scale < 2 || p.Scale > 255 {
		return fmt.Errorf("quantization scale out of range [2,255]: %d", p.Scale)
	}
	if p.Workers < 1 {
		p.Workers = runtime.NumCPU()
	}
	return nil
}

// New returns the Foreground implementing strategy s.
func New(s Strategy, p Params, log logging.Logger) (Foreground, error) {
	err := p.validate(log)
	if err != nil {
		return nil, err
	}
	switch s {
	case StrategyRecompute:
		return &Recompute{params: p, log: log}, nil
	case StrategyCached:
		return NewCached(p, log), nil
	default:
		return nil, fmt.Errorf("invalid foreground strategy: %v", s)
	}
}

// check verifies there are enough aligned frames of a consistent size,
// returning the last N of them.
func check(aligned []register.Aligned, n int) ([]register.Aligned, error) {
	if len(aligned) < n {
		return nil, fmt.Errorf("have %d of %d: %w", len(aligned), n, ErrNotReady)
	}
	aligned = aligned[len(aligned)-n:]
	r := aligned[n-1].Warped.Rect
	for _, a := range aligned {
		if a.Warped.Rect != r || a.Valid.Rect != r {
			return nil, fmt.Errorf("frame %d is %v, want %v: %w", a.Frame.Index, a.Warped.Rect, r, ErrSizeMismatch)
		}
	}
	return aligned, nil
}

// finish completes a cycle from the union, weights and dissimilarity maps.
func finish(aligned []register.Aligned, union, weights, dissim *image.Gray) *Maps {
	n := len(aligned)
	cur, bg := ZeroBackground(aligned[n-1].Warped, union, weights, n)
	fg := AbsDiff(cur, bg)
	mask := Classify(weights, fg, dissim, n)

	valid := make([]*image.Gray, n)
	for i, a := range aligned {
		valid[i] = a.Valid
	}
	CleanEdges(mask, valid...)
	return &Maps{Union: union, Weights: weights, Dissimilarity: dissim, Foreground: fg, Mask: mask}
}
