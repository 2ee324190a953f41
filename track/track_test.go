/*
DESCRIPTION
  track_test.go provides testing for the particle filter tracker.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package track

import (
	"image"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausocean/skywatch/frame"
)

func newTracker(t *testing.T, p Params) *Tracker {
	if p.Seed == 0 {
		p.Seed = 1
	}
	tr, err := New(p, (*logging.TestLogger)(t))
	require.NoError(t, err)
	return tr
}

func TestDominance(t *testing.T) {
	r := image.Rect(40, 40, 60, 60)
	f := newParticleFilter(r, 5, 7)
	for i, d := range []image.Point{{3, 0}, {0, 3}, {-3, 0}, {0, -3}} {
		f.particles[i+1].Rect = r.Add(d)
	}

	f.step([]frame.Region{{Rect: r}})

	aggs := aggregates(f.Particles())
	require.NotEmpty(t, aggs)
	assert.Equal(t, r, aggs[0].rect)
	for _, a := range aggs[1:] {
		assert.Greater(t, aggs[0].weight, a.weight)
	}
	assert.Equal(t, r, f.Estimate())
	assert.Len(t, f.Particles(), 5)
	assert.Equal(t, 0, f.Misses())
}

func TestResampleRounding(t *testing.T) {
	a, b, c := image.Rect(0, 0, 4, 4), image.Rect(10, 0, 14, 4), image.Rect(20, 0, 24, 4)
	f := &ParticleFilter{n: 5, particles: []Particle{
		{Rect: a, Weight: 0.6},
		{Rect: b, Weight: 0.3},
		{Rect: c, Weight: 0.05},
		{Rect: a, Weight: 0.05},
	}}
	f.resample()

	var na, nb int
	for _, p := range f.particles {
		switch p.Rect {
		case a:
			na++
		case b:
			nb++
		default:
			t.Errorf("share rounding to zero should be dropped, got particle at %v", p.Rect)
		}
		assert.InDelta(t, 0.2, p.Weight, 1e-12)
	}
	// a holds 0.65 of the weight, b 0.3: 3 and 2 particles.
	assert.Equal(t, 3, na)
	assert.Equal(t, 2, nb)
}

func TestIdentityStability(t *testing.T) {
	tr := newTracker(t, Params{Particles: 5, MatchThreshold: 0.6})

	var id uint64
	for i := 0; i < 20; i++ {
		det := frame.Region{Rect: image.Rect(10+2*i, 20+i, 30+2*i, 40+i), Frame: uint64(i)}
		out := tr.Update([]frame.Region{det}, uint64(i))
		require.Len(t, out, 1, "cycle %d", i)
		if i == 0 {
			id = out[0].ID
		}
		assert.Equal(t, id, out[0].ID, "identity changed at cycle %d", i)
		assert.Equal(t, det.Rect, out[0].Rect, "cycle %d", i)
		assert.Equal(t, uint64(i), out[0].Frame)
	}
}

func TestZeroDetections(t *testing.T) {
	tr := newTracker(t, Params{})
	tr.Update([]frame.Region{{Rect: image.Rect(5, 5, 15, 15)}}, 0)
	require.Len(t, tr.Filters(), 1)
	f := tr.Filters()[0]
	before := f.Particles()

	out := tr.Update(nil, 1)
	require.Len(t, out, 1)
	assert.Equal(t, before, f.Particles())
	assert.Equal(t, 1, f.Misses())
	assert.Equal(t, f.ID(), out[0].ID)
}

func TestRetirement(t *testing.T) {
	tr := newTracker(t, Params{MaxMisses: 3})
	tr.Update([]frame.Region{{Rect: image.Rect(5, 5, 15, 15)}}, 0)

	for i := 1; i <= 2; i++ {
		tr.Update(nil, uint64(i))
		require.Len(t, tr.Filters(), 1, "cycle %d", i)
	}
	out := tr.Update(nil, 3)
	assert.Empty(t, out)
	assert.Empty(t, tr.Filters())
}

func TestNewIdentities(t *testing.T) {
	tr := newTracker(t, Params{})
	a := frame.Region{Rect: image.Rect(0, 0, 10, 10)}
	b := frame.Region{Rect: image.Rect(50, 50, 60, 60)}

	out := tr.Update([]frame.Region{a}, 0)
	require.Len(t, out, 1)
	first := out[0].ID

	// The far detection cannot be matched by the existing filter.
	out = tr.Update([]frame.Region{a, b}, 1)
	require.Len(t, out, 2)
	assert.Equal(t, first, out[0].ID)
	assert.Greater(t, out[1].ID, first)
	assert.Equal(t, b.Rect, out[1].Rect)

	other := newTracker(t, Params{})
	out = other.Update([]frame.Region{a}, 0)
	require.Len(t, out, 1)
	assert.Greater(t, out[0].ID, first, "identities must be unique across trackers")
}

func TestBadParams(t *testing.T) {
	for _, p := range []Params{
		{Particles: -1},
		{MatchThreshold: 1.5},
		{MaxMisses: -2},
	} {
		_, err := New(p, (*logging.TestLogger)(t))
		assert.Error(t, err, "params %+v", p)
	}
}
