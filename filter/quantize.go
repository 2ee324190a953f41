/*
DESCRIPTION
  quantize.go provides intensity quantization of frames into a small number
  of buckets and its inverse.

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

	"github.com/ausocean/skywatch/frame"
)

// Quantize returns img with every pixel p replaced by floor(p*scale/255).
func Quantize(img *image.Gray, scale int) *image.Gray {
	out := frame.NewGray(img.Rect.Dx(), img.Rect.Dy())
	for i, p := range img.Pix {
		out.Pix[i] = uint8(int(p) * scale / 255)
	}
	return out
}

// Dequantize maps quantized values back onto the 8-bit range with
// ceil(q*255/scale), the smallest intensity quantizing to q.
func Dequantize(img *image.Gray, scale int) *image.Gray {
	out := frame.NewGray(img.Rect.Dx(), img.Rect.Dy())
	for i, q := range img.Pix {
		v := (int(q)*255 + scale - 1) / scale
		if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}
	return out
}

// quantizeAll quantizes imgs using at most workers goroutines.
func quantizeAll(imgs []*image.Gray, scale, workers int) []*image.Gray {
	out := make([]*image.Gray, len(imgs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, img := range imgs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, img *image.Gray) {
			defer func() { <-sem; wg.Done() }()
			out[i] = Quantize(img, scale)
		}(i, img)
	}
	wg.Wait()
	return out
}
