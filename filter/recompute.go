/*
DESCRIPTION
  recompute.go provides Recompute, the Foreground strategy that rebuilds the
  whole background model from the aligned history every cycle.

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

	"github.com/ausocean/skywatch/register"
)

// Recompute extracts the foreground without any state between cycles.
type Recompute struct {
	params Params
	log    logging.Logger
}

// Extract implements Foreground.
func (r *Recompute) Extract(aligned []register.Aligned) (*Maps, error) {
	aligned, err := check(aligned, r.params.History)
	if err != nil {
		return nil, err
	}

	raw := make([]*image.Gray, len(aligned))
	for i, a := range aligned {
		raw[i] = a.Warped
	}
	quant := quantizeAll(raw, r.params.Scale, r.params.Workers)

	// Union, weights and dissimilarity only read raw and quant.
	var (
		wg                     sync.WaitGroup
		union, weights, dissim *image.Gray
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		union = Union(Intersections(raw, quant))
	}()
	go func() {
		defer wg.Done()
		weights = Weights(quant)
	}()
	go func() {
		defer wg.Done()
		dissim = Dissimilarity(raw, quant)
	}()
	wg.Wait()

	m := finish(aligned, union, weights, dissim)
	r.log.Debug("extracted foreground", "frame", aligned[len(aligned)-1].Frame.Index, "moving", count(m.Mask))
	return m, nil
}

// count returns the number of non-zero pixels of img.
func count(img *image.Gray) int {
	var n int
	for _, v := range img.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}
