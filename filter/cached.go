/*
DESCRIPTION
  cached.go provides Cached, a Foreground strategy that keeps the results of
  each consecutive frame pair between cycles and reuses them while neither
  frame's transform has changed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"image"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/register"
)

type pairKey struct{ older, newer uint64 }

// pairResult is everything the model needs from one consecutive pair.
type pairResult struct {
	olderT, newerT register.Transform
	inter          *image.Gray // Older raw value where the pair agrees.
	agree          []bool
	diff           []int // |newer - older| where the pair disagrees.
}

// Cached extracts the foreground, caching per pair results. Entries are
// released by Evict, which should observe the history buffer.
type Cached struct {
	params Params
	log    logging.Logger

	mu     sync.Mutex
	pairs  map[pairKey]*pairResult
	hits   int
	misses int
}

// NewCached returns a new Cached foreground strategy.
func NewCached(p Params, log logging.Logger) *Cached {
	return &Cached{params: p, log: log, pairs: make(map[pairKey]*pairResult)}
}

// Watch ties the pair cache to h.
func (c *Cached) Watch(h *frame.History) { h.OnEvict(c.Evict) }

// Evict releases all pairs involving the frame with the given index.
func (c *Cached) Evict(index uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.pairs {
		if k.older == index || k.newer == index {
			delete(c.pairs, k)
		}
	}
}

// Len returns the number of cached pairs.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pairs)
}

// Stats returns the number of pair lookups served from and missing the cache.
func (c *Cached) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Extract implements Foreground.
func (c *Cached) Extract(aligned []register.Aligned) (*Maps, error) {
	aligned, err := check(aligned, c.params.History)
	if err != nil {
		return nil, err
	}
	n := len(aligned)

	results := make([]*pairResult, n-1)
	var (
		missing []int
		quant   = make([]*image.Gray, n)
	)
	c.mu.Lock()
	for i := range results {
		a, b := aligned[i], aligned[i+1]
		r, ok := c.pairs[pairKey{a.Frame.Index, b.Frame.Index}]
		if ok && r.olderT == a.Transform && r.newerT == b.Transform {
			results[i] = r
			c.hits++
			continue
		}
		missing = append(missing, i)
		c.misses++
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.params.Workers)
	var qmu sync.Mutex
	quantOf := func(i int) *image.Gray {
		qmu.Lock()
		defer qmu.Unlock()
		if quant[i] == nil {
			quant[i] = Quantize(aligned[i].Warped, c.params.Scale)
		}
		return quant[i]
	}
	for _, i := range missing {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer func() { <-sem; wg.Done() }()
			results[i] = computePair(aligned[i], aligned[i+1], quantOf(i), quantOf(i+1))
		}(i)
	}
	wg.Wait()

	c.mu.Lock()
	for _, i := range missing {
		c.pairs[pairKey{aligned[i].Frame.Index, aligned[i+1].Frame.Index}] = results[i]
	}
	c.mu.Unlock()

	w, h := aligned[0].Warped.Rect.Dx(), aligned[0].Warped.Rect.Dy()
	inters := make([]*image.Gray, len(results))
	weights := frame.NewGray(w, h)
	sum := make([]int, w*h)
	for i, r := range results {
		inters[i] = r.inter
		for p, ok := range r.agree {
			if ok {
				weights.Pix[p]++
			}
			sum[p] += r.diff[p]
		}
	}

	m := finish(aligned, Union(inters), weights, meanClamped(sum, w, h, n))
	c.log.Debug("extracted foreground", "frame", aligned[n-1].Frame.Index, "reused", n-1-len(missing), "moving", count(m.Mask))
	return m, nil
}

func computePair(older, newer register.Aligned, qo, qn *image.Gray) *pairResult {
	r := &pairResult{
		olderT: older.Transform,
		newerT: newer.Transform,
		inter:  Intersect(older.Warped, qo, qn),
		agree:  make([]bool, len(qo.Pix)),
		diff:   make([]int, len(qo.Pix)),
	}
	for p := range r.agree {
		r.agree[p] = agree(qo.Pix[p], qn.Pix[p])
	}
	addDisagreement(r.diff, older.Warped, newer.Warped, qo, qn)
	return r
}
