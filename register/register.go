/*
DESCRIPTION
  register.go provides Registrar, which aligns the frames of a history
  buffer onto the current frame despite camera motion, using either local
  feature matching with a RANSAC homography or frequency domain phase
  correlation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package register provides frame registration: estimating the transform
// mapping a historical frame onto the current frame and warping it there.
package register

import (
	"fmt"
	"image"
	"math/rand"
	"runtime"
	"sync"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/skywatch/frame"
)

// Errors returned by registration.
var (
	ErrTooFewMatches = errors.New("too few feature matches for homography")
	ErrDegenerate    = errors.New("degenerate transform")
)

// defaultMinPhaseResponse is the lowest phase correlation peak accepted as a
// lock. Correct locks between overlapping frames peak near 1; a peak below
// one half is a lock onto the window or noise.
const defaultMinPhaseResponse = 0.5

// Strategy selects how transforms are estimated.
type Strategy uint8

// Registration strategies.
const (
	StrategyFeatures Strategy = iota // Local features, Hamming matching and RANSAC homography.
	StrategyPhase                    // Translation from phase correlation.
	StrategyNone                     // Frames are already aligned; always Identity.
)

func (s Strategy) String() string {
	switch s {
	case StrategyFeatures:
		return "features"
	case StrategyPhase:
		return "phase"
	case StrategyNone:
		return "none"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Aligned is a historical frame warped onto the current frame.
type Aligned struct {
	Frame     frame.Frame // The historical frame before warping.
	Warped    *image.Gray // Frame resampled on the current frame's grid.
	Valid     *image.Gray // Valid (255) where Warped holds data, else Invalid (0).
	Transform Transform   // Historical to current coordinates; zero if registration failed.
}

// Registrar estimates transforms between frames, caching the features of
// each frame until it leaves the history buffer.
type Registrar struct {
	log       logging.Logger
	strategy  Strategy
	detector  Detector
	cache     *FeatureCache
	good      float64
	threshold float64
	minResp   float64
	workers   int
}

// Option configures a Registrar.
type Option func(*Registrar) error

// WithStrategy sets the registration strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Registrar) error {
		if s > StrategyNone {
			return fmt.Errorf("invalid registration strategy: %v", s)
		}
		r.strategy = s
		return nil
	}
}

// WithDetector sets the feature detector used by StrategyFeatures.
func WithDetector(d Detector) Option {
	return func(r *Registrar) error {
		if d == nil {
			return errors.New("nil detector")
		}
		r.detector = d
		return nil
	}
}

// WithGoodMatchPercent sets the fraction of best matches kept.
func WithGoodMatchPercent(p float64) Option {
	return func(r *Registrar) error {
		if p <= 0 || p > 1 {
			return fmt.Errorf("good match percent out of range (0,1]: %v", p)
		}
		r.good = p
		return nil
	}
}

// WithRANSACThreshold sets the maximum inlier reprojection error in pixels.
func WithRANSACThreshold(t float64) Option {
	return func(r *Registrar) error {
		if t <= 0 {
			return fmt.Errorf("invalid RANSAC threshold: %v", t)
		}
		r.threshold = t
		return nil
	}
}

// WithMinPhaseResponse sets the lowest correlation peak, in [0,1], that
// StrategyPhase accepts. Weaker peaks fail with ErrDegenerate.
func WithMinPhaseResponse(resp float64) Option {
	return func(r *Registrar) error {
		if resp < 0 || resp > 1 {
			return fmt.Errorf("minimum phase response out of range [0,1]: %v", resp)
		}
		r.minResp = resp
		return nil
	}
}

// WithWorkers bounds the number of frames registered concurrently.
func WithWorkers(n int) Option {
	return func(r *Registrar) error {
		if n < 1 {
			return fmt.Errorf("invalid worker count: %d", n)
		}
		r.workers = n
		return nil
	}
}

// New returns a Registrar. By default it uses StrategyFeatures with the
// pure Go FAST detector.
func New(log logging.Logger, opts ...Option) (*Registrar, error) {
	r := &Registrar{
		log:       log,
		strategy:  StrategyFeatures,
		cache:     NewFeatureCache(),
		good:      defaultGoodMatchPercent,
		threshold: defaultRANSACThreshold,
		minResp:   defaultMinPhaseResponse,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		err := opt(r)
		if err != nil {
			return nil, err
		}
	}
	if r.detector == nil {
		r.detector = NewFAST(defaultMaxFeatures, defaultFASTThreshold)
	}
	return r, nil
}

// Watch ties the feature cache to h so that features of evicted frames are
// released.
func (r *Registrar) Watch(h *frame.History) { h.OnEvict(r.cache.Evict) }

// Cache returns the registrar's feature cache.
func (r *Registrar) Cache() *FeatureCache { return r.cache }

// Strategy returns the registration strategy in use.
func (r *Registrar) Strategy() Strategy { return r.strategy }

// Close releases the detector.
func (r *Registrar) Close() error { return r.detector.Close() }

// Register returns the transform mapping target's coordinates onto
// reference's. On failure the degenerate zero Transform is returned with the
// error; it is not retried.
func (r *Registrar) Register(reference, target frame.Frame) (Transform, error) {
	switch r.strategy {
	case StrategyNone:
		return Identity(), nil
	case StrategyPhase:
		dx, dy, resp := PhaseCorrelate(reference.Img, target.Img)
		r.log.Debug("phase correlation", "reference", reference.Index, "target", target.Index, "dx", dx, "dy", dy, "response", resp)
		if resp < r.minResp {
			return Transform{}, errors.Wrapf(ErrDegenerate, "phase response %.2f below %.2f for frame %d", resp, r.minResp, target.Index)
		}
		return Translation(dx, dy), nil
	}

	fr, err := r.cache.Lookup(reference, r.detector)
	if err != nil {
		return Transform{}, fmt.Errorf("could not detect reference features: %w", err)
	}
	ft, err := r.cache.Lookup(target, r.detector)
	if err != nil {
		return Transform{}, fmt.Errorf("could not detect target features: %w", err)
	}

	matches := MatchFeatures(ft, fr, r.good)
	src := make([]Point, len(matches))
	dst := make([]Point, len(matches))
	for i, m := range matches {
		kt, kr := ft.Keypoints[m.Query], fr.Keypoints[m.Train]
		src[i] = Point{kt.X, kt.Y}
		dst[i] = Point{kr.X, kr.Y}
	}

	rng := rand.New(rand.NewSource(int64(reference.Index)<<20 ^ int64(target.Index)))
	fit, err := FindHomography(src, dst, r.threshold, rng)
	if err != nil {
		return Transform{}, fmt.Errorf("could not register frame %d onto %d with %d matches: %w", target.Index, reference.Index, len(matches), err)
	}
	r.log.Debug("registered frame", "reference", reference.Index, "target", target.Index, "matches", len(matches), "inliers", fit.NInliers, "rmse", fit.RMSE)
	return fit.Transform, nil
}

// ShiftAll registers and warps every frame of history onto current. The
// current frame itself, if present, is aligned with the identity transform.
// Registration failures are logged and propagated as degenerate transforms.
func (r *Registrar) ShiftAll(history []frame.Frame, current frame.Frame) []Aligned {
	w, h := current.Width(), current.Height()
	out := make([]Aligned, len(history))

	// Detect current features once, before the fan out.
	if r.strategy == StrategyFeatures {
		_, err := r.cache.Lookup(current, r.detector)
		if err != nil {
			r.log.Warning("could not detect current frame features", "frame", current.Index, "error", err.Error())
		}
	}

	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup
	for i, f := range history {
		if f.Index == current.Index {
			out[i] = Aligned{Frame: f, Warped: f.Img, Valid: frame.Filled(w, h, Valid), Transform: Identity()}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f frame.Frame) {
			defer func() { <-sem; wg.Done() }()
			t, err := r.Register(current, f)
			if err != nil {
				r.log.Warning("registration failed, propagating degenerate transform", "frame", f.Index, "error", err.Error())
			}
			warped, valid := Warp(f.Img, t, w, h)
			out[i] = Aligned{Frame: f, Warped: warped, Valid: valid, Transform: t}
		}(i, f)
	}
	wg.Wait()
	return out
}
