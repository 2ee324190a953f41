/*
DESCRIPTION
  particle.go provides ParticleFilter, a set of weighted rectangle
  hypotheses sharing one identity, and its predict, update and resample
  steps.

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
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/ausocean/skywatch/frame"
)

// Prediction noise.
const (
	translationSigma = 0.05 // Standard deviation of translation as a fraction of the diagonal.
	cornerJitter     = 1    // Maximum per corner jitter in pixels.
)

// lastID is the most recently assigned identity.
var lastID uint64

func nextID() uint64 { return atomic.AddUint64(&lastID, 1) }

// Particle is one weighted hypothesis of a tracked object's rectangle.
type Particle struct {
	Rect   image.Rectangle
	Weight float64
}

// ParticleFilter tracks one identity.
type ParticleFilter struct {
	id        uint64
	n         int
	particles []Particle
	rng       *rand.Rand
	misses    int

	// shares[j] is the fraction of post update weight that adopted
	// detection j in the most recent cycle.
	shares []float64
}

// newParticleFilter returns a filter with a fresh identity and all n
// particles at r.
func newParticleFilter(r image.Rectangle, n int, seed int64) *ParticleFilter {
	f := &ParticleFilter{id: nextID(), n: n, rng: rand.New(rand.NewSource(seed))}
	f.particles = make([]Particle, n)
	for i := range f.particles {
		f.particles[i] = Particle{Rect: r, Weight: 1 / float64(n)}
	}
	return f
}

// ID returns the filter's identity.
func (f *ParticleFilter) ID() uint64 { return f.id }

// Misses returns the number of consecutive cycles without an adopted detection.
func (f *ParticleFilter) Misses() int { return f.misses }

// Particles returns a copy of the particle set.
func (f *ParticleFilter) Particles() []Particle {
	return append([]Particle(nil), f.particles...)
}

// step runs predict, update and resample against dets. If no particle adopts
// a detection the particle set from before prediction is kept and the
// cycle counts as a miss.
func (f *ParticleFilter) step(dets []frame.Region) {
	prev := f.Particles()
	f.predict()
	if !f.update(dets) {
		f.particles = prev
		f.misses++
		return
	}
	f.misses = 0
	f.resample()
}

// predict perturbs every particle by a Gaussian translation scaled to its
// diagonal and independent jitter of each corner.
func (f *ParticleFilter) predict() {
	for i, p := range f.particles {
		r := p.Rect
		sigma := translationSigma * math.Hypot(float64(r.Dx()), float64(r.Dy()))
		d := image.Pt(int(math.Round(f.rng.NormFloat64()*sigma)), int(math.Round(f.rng.NormFloat64()*sigma)))
		r = r.Add(d)
		r = image.Rect(r.Min.X+f.jitter(), r.Min.Y+f.jitter(), r.Max.X+f.jitter(), r.Max.Y+f.jitter())
		if r.Dx() == 0 {
			r.Max.X++
		}
		if r.Dy() == 0 {
			r.Max.Y++
		}
		f.particles[i].Rect = r
	}
}

func (f *ParticleFilter) jitter() int { return f.rng.Intn(2*cornerJitter+1) - cornerJitter }

// update matches each particle with its best IoU detection. A particle with
// a non-zero best IoU adopts the detection's rectangle and has its weight
// multiplied by the IoU; others are left unchanged. It reports whether any
// particle adopted a detection with non-zero weight.
func (f *ParticleFilter) update(dets []frame.Region) bool {
	adopted := make([]float64, len(dets))
	var sum, total float64
	for i, p := range f.particles {
		best, bestIoU := -1, 0.0
		for j, d := range dets {
			if iou := frame.IoU(p.Rect, d.Rect); iou > bestIoU {
				best, bestIoU = j, iou
			}
		}
		if best >= 0 {
			p = Particle{Rect: dets[best].Rect, Weight: p.Weight * bestIoU}
			f.particles[i] = p
			adopted[best] += p.Weight
			total += p.Weight
		}
		sum += p.Weight
	}

	f.shares = adopted
	if sum > 0 {
		for j := range f.shares {
			f.shares[j] /= sum
		}
	}
	return total > 0
}

// share returns the fraction of the filter's post update weight held by
// particles that adopted detection j in the most recent cycle.
func (f *ParticleFilter) share(j int) float64 {
	if j >= len(f.shares) {
		return 0
	}
	return f.shares[j]
}

// aggregate is the total weight of the particles at one rectangle.
type aggregate struct {
	rect   image.Rectangle
	weight float64
}

// aggregates returns the weight of each distinct rectangle, heaviest first.
func aggregates(ps []Particle) []aggregate {
	var aggs []aggregate
	index := make(map[image.Rectangle]int)
	for _, p := range ps {
		i, ok := index[p.Rect]
		if !ok {
			i = len(aggs)
			index[p.Rect] = i
			aggs = append(aggs, aggregate{rect: p.Rect})
		}
		aggs[i].weight += p.Weight
	}
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].weight > aggs[j].weight })
	return aggs
}

// resample rebuilds the particle set in proportion to the normalized weight
// of each distinct rectangle, heaviest first. Shares rounding to zero are
// dropped, the set is capped at n and any shortfall is made up with the
// heaviest rectangle.
func (f *ParticleFilter) resample() {
	aggs := aggregates(f.particles)
	var sum float64
	for _, a := range aggs {
		sum += a.weight
	}

	w := 1 / float64(f.n)
	out := make([]Particle, 0, f.n)
	for _, a := range aggs {
		k := int(math.Round(a.weight / sum * float64(f.n)))
		for ; k > 0 && len(out) < f.n; k-- {
			out = append(out, Particle{Rect: a.rect, Weight: w})
		}
	}
	for len(out) < f.n {
		out = append(out, Particle{Rect: aggs[0].rect, Weight: w})
	}
	f.particles = out
}

// Estimate returns the filter's weighted majority rectangle.
func (f *ParticleFilter) Estimate() image.Rectangle { return aggregates(f.particles)[0].rect }
