/*
DESCRIPTION
  warp.go provides Warp, which resamples a historical frame onto the current
  frame's pixel grid and produces the mask of pixels that remain valid.

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

	"github.com/ausocean/skywatch/frame"
)

// Valid mask values.
const (
	Invalid = 0
	Valid   = 255
)

// Warp maps img through t onto a w×h grid. Pixels whose source lies inside
// img are bilinearly sampled and marked Valid in the returned mask; all
// others are zero and Invalid. The mask is the all-Valid frame warped by the
// same transform. A degenerate t gives an all-zero image and mask.
func Warp(img *image.Gray, t Transform, w, h int) (warped, valid *image.Gray) {
	warped, valid = frame.NewGray(w, h), frame.NewGray(w, h)
	inv, err := t.Inverse()
	if err != nil {
		return warped, valid
	}

	sw, sh := img.Rect.Dx(), img.Rect.Dy()
	maxX, maxY := float64(sw-1), float64(sh-1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy, ok := inv.Apply(float64(x), float64(y))
			if !ok || sx < 0 || sy < 0 || sx > maxX || sy > maxY {
				continue
			}
			warped.Pix[y*warped.Stride+x] = bilinear(img, sx, sy)
			valid.Pix[y*valid.Stride+x] = Valid
		}
	}
	return warped, valid
}

// bilinear samples img at (x, y), which must lie within its bounds.
func bilinear(img *image.Gray, x, y float64) uint8 {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)
	at := func(px, py int) float64 { return float64(img.Pix[py*img.Stride+px]) }
	if fx == 0 && fy == 0 {
		return img.Pix[y0*img.Stride+x0]
	}
	x1, y1 := x0+1, y0+1
	if x1 > img.Rect.Dx()-1 {
		x1 = x0
	}
	if y1 > img.Rect.Dy()-1 {
		y1 = y0
	}
	top := at(x0, y0)*(1-fx) + at(x1, y0)*fx
	bot := at(x0, y1)*(1-fx) + at(x1, y1)*fx
	return uint8(math.Round(top*(1-fy) + bot*fy))
}
