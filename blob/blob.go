/*
DESCRIPTION
  blob.go provides extraction of connected regions from a binary moving
  foreground mask as bounding rectangles.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package blob turns moving foreground masks into detections.
package blob

import (
	"image"
	"sort"

	"github.com/ausocean/skywatch/frame"
)

// DefaultMinArea is the default minimum blob area in pixels.
const DefaultMinArea = 4

// Extractor finds the regions of non-zero pixels of a mask. The returned
// regions are unlabelled and stamped with the given frame index.
type Extractor interface {
	Extract(mask *image.Gray, index uint64) ([]frame.Region, error)
}

// Components is an Extractor using 8-connected component labelling.
type Components struct {
	MinArea int // Components with fewer pixels are discarded.
}

// Extract implements Extractor. Regions are ordered top to bottom, then left
// to right, by their bounding rectangle's minimum point.
func (c *Components) Extract(mask *image.Gray, index uint64) ([]frame.Region, error) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	visited := make([]bool, w*h)

	var regions []frame.Region
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || mask.Pix[y*mask.Stride+x] == 0 {
				continue
			}
			r, area := fill(mask, visited, x, y)
			if area < c.MinArea {
				continue
			}
			regions = append(regions, frame.Region{Rect: r, Frame: index})
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Rect.Min, regions[j].Rect.Min
		return a.Y < b.Y || (a.Y == b.Y && a.X < b.X)
	})
	return regions, nil
}

// fill marks the component containing (x, y) as visited and returns its
// bounding rectangle and pixel count.
func fill(mask *image.Gray, visited []bool, x, y int) (image.Rectangle, int) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	r := image.Rect(x, y, x+1, y+1)
	var area int

	visited[y*w+x] = true
	stack := []image.Point{{X: x, Y: y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				i := ny*w + nx
				if visited[i] || mask.Pix[ny*mask.Stride+nx] == 0 {
					continue
				}
				visited[i] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}
	return r, area
}
