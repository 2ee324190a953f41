/*
DESCRIPTION
  phase.go provides translation-only registration from the peak of the
  normalised cross-power spectrum of two frames. It is less accurate than
  feature based registration but does not depend on local features being
  present.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package register

import (
	"image"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// PhaseCorrelate returns the translation (dx, dy) such that content at p in
// target appears at p+(dx, dy) in ref, and the height of the correlation
// peak in [0, 1] as a measure of confidence.
func PhaseCorrelate(ref, target *image.Gray) (dx, dy, response float64) {
	w := ref.Rect.Dx()
	if tw := target.Rect.Dx(); tw < w {
		w = tw
	}
	h := ref.Rect.Dy()
	if th := target.Rect.Dy(); th < h {
		h = th
	}
	if w == 0 || h == 0 {
		return 0, 0, 0
	}
	pw, ph := nextPow2(w), nextPow2(h)

	fr := fft.FFT2Real(windowed(ref, w, h, pw, ph))
	ft := fft.FFT2Real(windowed(target, w, h, pw, ph))

	cross := make([][]complex128, ph)
	for y := range cross {
		cross[y] = make([]complex128, pw)
		for x := range cross[y] {
			c := fr[y][x] * cmplx.Conj(ft[y][x])
			if m := cmplx.Abs(c); m > 1e-12 {
				cross[y][x] = c / complex(m, 0)
			}
		}
	}
	corr := fft.IFFT2(cross)

	px, py, peak := 0, 0, math.Inf(-1)
	for y := range corr {
		for x := range corr[y] {
			if v := real(corr[y][x]); v > peak {
				px, py, peak = x, y, v
			}
		}
	}

	// Refine with the weighted centroid of the 3x3 neighbourhood.
	var sx, sy, sw float64
	for oy := -1; oy <= 1; oy++ {
		for ox := -1; ox <= 1; ox++ {
			v := real(corr[(py+oy+ph)%ph][(px+ox+pw)%pw])
			if v <= 0 {
				continue
			}
			sx += float64(ox) * v
			sy += float64(oy) * v
			sw += v
		}
	}
	fx, fy := float64(px), float64(py)
	if sw > 0 {
		fx += sx / sw
		fy += sy / sw
	}
	if fx > float64(pw)/2 {
		fx -= float64(pw)
	}
	if fy > float64(ph)/2 {
		fy -= float64(ph)
	}
	return fx, fy, peak
}

// windowed returns the top-left w×h region of img multiplied by a 2D Hann
// window and zero padded to pw×ph.
func windowed(img *image.Gray, w, h, pw, ph int) [][]float64 {
	wx, wy := window.Hann(w), window.Hann(h)
	out := make([][]float64, ph)
	for y := range out {
		out[y] = make([]float64, pw)
		if y >= h {
			continue
		}
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y][x] = float64(row[x]) * wx[x] * wy[y]
		}
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
