/*
DESCRIPTION
  background.go provides the building blocks of the background model:
  pairwise intersection of quantized history frames, their union, the
  commonality weights, the dissimilarity history and background zeroing.

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

	"github.com/ausocean/skywatch/frame"
)

// tolerance is the largest quantized difference at which two frames agree.
const tolerance = 1

func agree(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -tolerance && d <= tolerance
}

// Intersect returns raw where the quantized frames q and next agree and zero
// where they do not.
func Intersect(raw, q, next *image.Gray) *image.Gray {
	out := frame.NewGray(raw.Rect.Dx(), raw.Rect.Dy())
	for i := range out.Pix {
		if agree(q.Pix[i], next.Pix[i]) {
			out.Pix[i] = raw.Pix[i]
		}
	}
	return out
}

// Intersections returns the intersection of every consecutive pair (i, i+1)
// of frames, ordered as the pairs are.
func Intersections(raw, quant []*image.Gray) []*image.Gray {
	if len(raw) < 2 {
		return nil
	}
	out := make([]*image.Gray, len(raw)-1)
	for i := range out {
		out[i] = Intersect(raw[i], quant[i], quant[i+1])
	}
	return out
}

// Union combines pairwise intersections into one background estimate. Pairs
// are visited newest first and the first non-zero value wins.
func Union(inters []*image.Gray) *image.Gray {
	if len(inters) == 0 {
		return nil
	}
	out := frame.NewGray(inters[0].Rect.Dx(), inters[0].Rect.Dy())
	for i := range out.Pix {
		for j := len(inters) - 1; j >= 0; j-- {
			if v := inters[j].Pix[i]; v != 0 {
				out.Pix[i] = v
				break
			}
		}
	}
	return out
}

// Weights returns, for each pixel, the number of consecutive pairs of quant
// that agree. The result lies in [0, len(quant)-1].
func Weights(quant []*image.Gray) *image.Gray {
	out := frame.NewGray(quant[0].Rect.Dx(), quant[0].Rect.Dy())
	for i := 0; i+1 < len(quant); i++ {
		a, b := quant[i].Pix, quant[i+1].Pix
		for p := range out.Pix {
			if agree(a[p], b[p]) {
				out.Pix[p]++
			}
		}
	}
	return out
}

// Dissimilarity returns, for each pixel, the sum of |raw[i] - raw[i-1]| over
// the consecutive pairs that disagree, divided by the number of frames and
// clamped to 255.
func Dissimilarity(raw, quant []*image.Gray) *image.Gray {
	n := len(raw)
	sum := make([]int, len(raw[0].Pix))
	for i := 1; i < n; i++ {
		addDisagreement(sum, raw[i-1], raw[i], quant[i-1], quant[i])
	}
	return meanClamped(sum, raw[0].Rect.Dx(), raw[0].Rect.Dy(), n)
}

// addDisagreement adds |b - a| to sum wherever qa and qb disagree.
func addDisagreement(sum []int, a, b, qa, qb *image.Gray) {
	for p := range sum {
		if agree(qa.Pix[p], qb.Pix[p]) {
			continue
		}
		d := int(b.Pix[p]) - int(a.Pix[p])
		if d < 0 {
			d = -d
		}
		sum[p] += d
	}
}

func meanClamped(sum []int, w, h, n int) *image.Gray {
	out := frame.NewGray(w, h)
	for p, s := range sum {
		v := s / n
		if v > 255 {
			v = 255
		}
		out.Pix[p] = uint8(v)
	}
	return out
}

// ZeroBackground returns copies of current and union with every pixel whose
// weight is at least n-1 set to zero.
func ZeroBackground(current, union, weights *image.Gray, n int) (cur, bg *image.Gray) {
	cur, bg = frame.Clone(current), frame.Clone(union)
	for p, w := range weights.Pix {
		if int(w) >= n-1 {
			cur.Pix[p], bg.Pix[p] = 0, 0
		}
	}
	return cur, bg
}

// AbsDiff returns the saturating absolute difference |a - b|.
func AbsDiff(a, b *image.Gray) *image.Gray {
	out := frame.NewGray(a.Rect.Dx(), a.Rect.Dy())
	for p := range out.Pix {
		x, y := a.Pix[p], b.Pix[p]
		if x > y {
			out.Pix[p] = x - y
		} else {
			out.Pix[p] = y - x
		}
	}
	return out
}
