/*
DESCRIPTION
  track.go provides Tracker, which maintains one particle filter per tracked
  identity and labels each cycle's detections with stable identities.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package track provides a particle filter multi-target tracker.
package track

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/frame"
)

// Defaults.
const (
	DefaultParticles      = 5
	DefaultMatchThreshold = 0.6
	DefaultMaxMisses      = 5
)

// Params configures a Tracker.
type Params struct {
	Particles      int     // Particles per filter.
	MatchThreshold float64 // Minimum match probability for a detection to belong to a filter.
	MaxMisses      int     // Consecutive cycles without adoption before a filter is retired.
	Seed           int64   // Seed of the random source; 0 seeds from the clock.
}

// Tracker assigns identities to detections across frames.
type Tracker struct {
	params  Params
	log     logging.Logger
	rng     *rand.Rand
	filters []*ParticleFilter
}

// New returns a new Tracker, defaulting unset parameters.
func New(p Params, log logging.Logger) (*Tracker, error) {
	if p.Particles == 0 {
		p.Particles = DefaultParticles
	}
	if p.MatchThreshold == 0 {
		p.MatchThreshold = DefaultMatchThreshold
	}
	if p.MaxMisses == 0 {
		p.MaxMisses = DefaultMaxMisses
	}
	switch {
	case p.Particles < 1:
		return nil, fmt.Errorf("invalid particle count: %d", p.Particles)
	case p.MatchThreshold < 0 || p.MatchThreshold > 1:
		return nil, fmt.Errorf("match threshold out of range [0,1]: %v", p.MatchThreshold)
	case p.MaxMisses < 1:
		return nil, fmt.Errorf("invalid max misses: %d", p.MaxMisses)
	}
	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Tracker{params: p, log: log, rng: rand.New(rand.NewSource(seed))}, nil
}

// Filters returns the active particle filters.
func (t *Tracker) Filters() []*ParticleFilter { return append([]*ParticleFilter(nil), t.filters...) }

// Update runs one tracking cycle for the detections of frame index and
// returns one region per active identity.
func (t *Tracker) Update(dets []frame.Region, index uint64) []frame.Region {
	var wg sync.WaitGroup
	for _, f := range t.filters {
		wg.Add(1)
		go func(f *ParticleFilter) {
			defer wg.Done()
			f.step(dets)
		}(f)
	}
	wg.Wait()

	matched := make([]bool, len(dets))
	for _, f := range t.filters {
		if f.misses > 0 {
			continue
		}
		for j := range dets {
			if !matched[j] && f.share(j) >= t.params.MatchThreshold {
				matched[j] = true
			}
		}
	}

	active := t.filters[:0]
	for _, f := range t.filters {
		if f.misses >= t.params.MaxMisses {
			t.log.Debug("retiring track", "id", f.id, "misses", f.misses)
			continue
		}
		active = append(active, f)
	}
	t.filters = active

	for j, d := range dets {
		if matched[j] {
			continue
		}
		f := newParticleFilter(d.Rect, t.params.Particles, t.rng.Int63())
		t.filters = append(t.filters, f)
		t.log.Debug("new track", "id", f.id, "frame", index, "rect", d.Rect.String())
	}

	out := make([]frame.Region, len(t.filters))
	for i, f := range t.filters {
		out[i] = frame.Region{Rect: f.Estimate(), ID: f.id, Frame: index}
	}
	return out
}
