/*
DESCRIPTION
  blob_test.go provides testing for connected region extraction.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package blob

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/skywatch/frame"
)

func paint(img *image.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[y*img.Stride+x] = 255
		}
	}
}

func TestComponents(t *testing.T) {
	mask := frame.NewGray(50, 40)
	paint(mask, image.Rect(30, 5, 40, 12))
	paint(mask, image.Rect(2, 20, 6, 24))
	// Diagonal neighbours join a component.
	paint(mask, image.Rect(6, 24, 8, 26))
	// Too small.
	paint(mask, image.Rect(45, 35, 46, 36))

	tests := []struct {
		ex   Extractor
		want []frame.Region
	}{
		{
			ex: &Components{MinArea: 4},
			want: []frame.Region{
				{Rect: image.Rect(30, 5, 40, 12), Frame: 3},
				{Rect: image.Rect(2, 20, 8, 26), Frame: 3},
			},
		},
		{
			ex: &Components{MinArea: 1},
			want: []frame.Region{
				{Rect: image.Rect(30, 5, 40, 12), Frame: 3},
				{Rect: image.Rect(2, 20, 8, 26), Frame: 3},
				{Rect: image.Rect(45, 35, 46, 36), Frame: 3},
			},
		},
		{
			ex: &Components{MinArea: 100},
		},
	}

	for i, test := range tests {
		got, err := test.ex.Extract(mask, 3)
		if err != nil {
			t.Errorf("did not expect error for test %d: %v", i, err)
			continue
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("unexpected regions for test %d.\nwant: %v\ngot: %v", i, test.want, got)
		}
	}
}

func TestComponentsEmpty(t *testing.T) {
	got, err := (&Components{MinArea: 1}).Extract(frame.NewGray(10, 10), 0)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no regions, got: %v", got)
	}
}
