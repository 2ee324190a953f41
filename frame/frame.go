/*
DESCRIPTION
  frame.go provides Frame, an immutable 8-bit grayscale video frame
  identified by its monotonically increasing index.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the frame, history buffer and region types shared
// by the registration, background model and tracking packages.
package frame

import (
	"image"
	"image/color"
)

// Frame is a single grayscale video frame. The pixel buffer must not be
// modified once the frame has been created; every consumer treats it as
// read-only.
type Frame struct {
	Index uint64      // Position of the frame in the video, used as its identity.
	Img   *image.Gray // Pixel data, origin at (0,0).
}

// New returns a frame wrapping img. Unless img is packed, with its origin at
// (0,0) and Stride equal to its width, it is copied so that pixel (x,y) is
// always at Pix[y*Width+x]. Decoders such as image/jpeg pad each row.
func New(index uint64, img *image.Gray) Frame {
	if !packed(img) {
		img = Clone(img)
	}
	return Frame{Index: index, Img: img}
}

func packed(img *image.Gray) bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	return img.Rect.Min == (image.Point{}) && img.Stride == w && len(img.Pix) == w*h
}

// FromImage converts any image into a grayscale frame.
func FromImage(index uint64, img image.Image) Frame {
	if g, ok := img.(*image.Gray); ok {
		return New(index, g)
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return Frame{Index: index, Img: dst}
}

// Width returns the width of the frame in pixels.
func (f Frame) Width() int { return f.Img.Rect.Dx() }

// Height returns the height of the frame in pixels.
func (f Frame) Height() int { return f.Img.Rect.Dy() }

// Empty reports whether the frame holds no pixel data.
func (f Frame) Empty() bool { return f.Img == nil || f.Img.Rect.Empty() }

// Pix returns the pixel at (x,y) without bounds checking.
func (f Frame) Pix(x, y int) uint8 { return f.Img.Pix[y*f.Img.Stride+x] }

// NewGray returns a new zeroed w×h grayscale image.
func NewGray(w, h int) *image.Gray { return image.NewGray(image.Rect(0, 0, w, h)) }

// Filled returns a w×h grayscale image with every pixel set to v.
func Filled(w, h int, v uint8) *image.Gray {
	img := NewGray(w, h)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// Clone returns a deep copy of img with its origin at (0,0).
func Clone(img *image.Gray) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	dst := NewGray(w, h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], img.Pix[off:off+w])
	}
	return dst
}
