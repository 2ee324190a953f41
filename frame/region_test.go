/*
DESCRIPTION
  region_test.go provides testing for region helpers.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		a, b image.Rectangle
		want float64
	}{
		{a: image.Rect(0, 0, 10, 10), b: image.Rect(0, 0, 10, 10), want: 1},
		{a: image.Rect(0, 0, 10, 10), b: image.Rect(20, 20, 30, 30), want: 0},
		{a: image.Rect(0, 0, 10, 10), b: image.Rect(5, 0, 15, 10), want: 50.0 / 150.0},
		{a: image.Rect(0, 0, 10, 10), b: image.Rect(10, 0, 20, 10), want: 0},
		{a: image.Rectangle{}, b: image.Rectangle{}, want: 0},
	}

	for i, test := range tests {
		got := IoU(test.a, test.b)
		if math.Abs(got-test.want) > 1e-9 {
			t.Errorf("did not get expected result for test %d\ngot: %v\nwant: %v", i, got, test.want)
		}
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.RGBA{255, 255, 255, 255})
	f := FromImage(7, src)
	if f.Width() != 3 || f.Height() != 2 {
		t.Fatalf("unexpected size %dx%d", f.Width(), f.Height())
	}
	if f.Pix(0, 0) != 255 || f.Pix(1, 0) != 0 {
		t.Errorf("unexpected pixels: %v", f.Img.Pix)
	}
	if f.Index != 7 {
		t.Errorf("unexpected index %d", f.Index)
	}
}

// gradient returns a w×h image whose pixel (x,y) holds (x+2y)%256.
func gradient(w, h int) *image.Gray {
	img := NewGray(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*img.Stride+x] = uint8((x + 2*y) % 256)
		}
	}
	return img
}

func TestNewPacksPaddedRows(t *testing.T) {
	const w, h = 100, 100

	padded := &image.Gray{Pix: make([]uint8, 104*h), Stride: 104, Rect: image.Rect(0, 0, w, h)}
	src := gradient(w, h)
	for y := 0; y < h; y++ {
		copy(padded.Pix[y*padded.Stride:], src.Pix[y*src.Stride:y*src.Stride+w])
	}

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 100})
	if err != nil {
		t.Fatalf("could not encode jpeg: %v", err)
	}
	dec, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("could not decode jpeg: %v", err)
	}
	decoded, ok := dec.(*image.Gray)
	if !ok {
		t.Fatalf("expected *image.Gray from decoder, got %T", dec)
	}

	tests := []struct {
		name string
		img  *image.Gray
	}{
		{name: "padded", img: padded},
		{name: "jpeg", img: decoded},
		{name: "offset", img: gradient(w+10, h+10).SubImage(image.Rect(10, 10, w+10, h+10)).(*image.Gray)},
	}

	for _, test := range tests {
		f := New(1, test.img)
		if f.Width() != w || f.Height() != h {
			t.Fatalf("%s: unexpected size %dx%d", test.name, f.Width(), f.Height())
		}
		if f.Img.Stride != w || len(f.Img.Pix) != w*h {
			t.Errorf("%s: frame buffer not packed.\nwant: stride %d, len %d\ngot: stride %d, len %d", test.name, w, w*h, f.Img.Stride, len(f.Img.Pix))
		}
		b := test.img.Rect.Min
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				want := test.img.GrayAt(b.X+x, b.Y+y).Y
				if got := f.Img.Pix[y*w+x]; got != want {
					t.Fatalf("%s: unexpected pixel at (%d,%d).\nwant: %d\ngot: %d", test.name, x, y, want, got)
				}
			}
		}
	}
}

func TestNewKeepsPackedBuffer(t *testing.T) {
	img := gradient(8, 4)
	f := New(2, img)
	if &f.Img.Pix[0] != &img.Pix[0] {
		t.Error("expected packed image to be wrapped without copying")
	}
}
