/*
DESCRIPTION
  plot.go provides plotting of track trajectories and per-frame track counts.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/skywatch/frame"
)

// Plot dimensions.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// trajectories returns the centre of each identity's regions in frame order,
// keyed by identity.
func trajectories(regions []frame.Region) map[uint64]plotter.XYs {
	t := make(map[uint64]plotter.XYs)
	for _, r := range regions {
		c := r.Rect.Min.Add(r.Rect.Max).Div(2)
		t[r.ID] = append(t[r.ID], plotter.XY{X: float64(c.X), Y: float64(c.Y)})
	}
	return t
}

// counts returns the number of tracks emitted for each frame that has any.
func counts(regions []frame.Region) plotter.XYs {
	var (
		xys  plotter.XYs
		last uint64
	)
	for i, r := range regions {
		if i == 0 || r.Frame != last {
			xys = append(xys, plotter.XY{X: float64(r.Frame)})
			last = r.Frame
		}
		xys[len(xys)-1].Y++
	}
	return xys
}

// plotRun writes a trajectory plot and a track count plot for a run to dir,
// returning the file names.
func plotRun(regions []frame.Region, runID, dir string) ([]string, error) {
	if len(regions) == 0 {
		return nil, errors.New("no regions to plot")
	}

	pt := plot.New()
	pt.Title.Text = "Track trajectories " + runID
	pt.X.Label.Text = "x (px)"
	pt.Y.Label.Text = "y (px)"

	traj := trajectories(regions)
	ids := make([]uint64, 0, len(traj))
	for id := range traj {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		l, err := plotter.NewLine(traj[id])
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", id, err)
		}
		l.Width = vg.Points(1)
		l.Color = plotutil.Color(i)
		pt.Add(l)
		pt.Legend.Add(fmt.Sprintf("%d", id), l)
	}

	pc := plot.New()
	pc.Title.Text = "Tracks per frame " + runID
	pc.X.Label.Text = "frame"
	pc.Y.Label.Text = "tracks"
	l, err := plotter.NewLine(counts(regions))
	if err != nil {
		return nil, fmt.Errorf("track counts: %w", err)
	}
	l.Width = vg.Points(1)
	pc.Add(l)

	trajFile := filepath.Join(dir, "trajectories.png")
	err = pt.Save(plotWidth, plotHeight, trajFile)
	if err != nil {
		return nil, fmt.Errorf("save trajectory plot: %w", err)
	}
	countFile := filepath.Join(dir, "counts.png")
	err = pc.Save(plotWidth, plotHeight, countFile)
	if err != nil {
		return nil, fmt.Errorf("save count plot: %w", err)
	}
	return []string{trajFile, countFile}, nil
}
