/*
DESCRIPTION
  plot_test.go provides testing for track plotting.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"image"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/plot/plotter"

	"github.com/ausocean/skywatch/frame"
)

var regions = []frame.Region{
	{Rect: image.Rect(0, 0, 10, 10), ID: 1, Frame: 9},
	{Rect: image.Rect(20, 20, 30, 40), ID: 2, Frame: 9},
	{Rect: image.Rect(2, 0, 12, 10), ID: 1, Frame: 10},
	{Rect: image.Rect(4, 2, 14, 12), ID: 1, Frame: 12},
}

func TestTrajectories(t *testing.T) {
	want := map[uint64]plotter.XYs{
		1: {{X: 5, Y: 5}, {X: 7, Y: 5}, {X: 9, Y: 7}},
		2: {{X: 25, Y: 30}},
	}
	got := trajectories(regions)
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected trajectories.\nwant: %v\ngot: %v", want, got)
	}
}

func TestCounts(t *testing.T) {
	want := plotter.XYs{{X: 9, Y: 2}, {X: 10, Y: 1}, {X: 12, Y: 1}}
	got := counts(regions)
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected counts.\nwant: %v\ngot: %v", want, got)
	}
}

func TestPlotRun(t *testing.T) {
	files, err := plotRun(regions, "run", t.TempDir())
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	for _, f := range files {
		fi, err := os.Stat(f)
		if err != nil {
			t.Errorf("plot not written: %v", err)
			continue
		}
		if fi.Size() == 0 {
			t.Errorf("empty plot %s", f)
		}
	}

	_, err = plotRun(nil, "run", t.TempDir())
	if err == nil {
		t.Error("expected error plotting no regions")
	}
}
