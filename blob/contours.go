//go:build withcv
// +build withcv

/*
DESCRIPTION
  contours.go provides an Extractor using OpenCV external contours.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package blob

import (
	"fmt"
	"image"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ausocean/skywatch/frame"
)

// Contours is an Extractor that takes the bounding rectangles of the
// external contours of a mask.
type Contours struct {
	MinArea float64 // Contours enclosing less area are discarded.
}

// NewContours returns an Extractor using OpenCV contours.
func NewContours(minArea int) Extractor { return &Contours{MinArea: float64(minArea)} }

// Extract implements Extractor.
func (c *Contours) Extract(mask *image.Gray, index uint64) ([]frame.Region, error) {
	m, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return nil, fmt.Errorf("could not convert mask to mat: %w", err)
	}
	defer m.Close()

	contours := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []frame.Region
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		// Contour area of a single pixel or line is zero, so also accept
		// contours whose bounding box is large enough.
		r := gocv.BoundingRect(contour)
		if gocv.ContourArea(contour) < c.MinArea && float64(r.Dx()*r.Dy()) < c.MinArea {
			continue
		}
		regions = append(regions, frame.Region{Rect: r, Frame: index})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i].Rect.Min, regions[j].Rect.Min
		return a.Y < b.Y || (a.Y == b.Y && a.X < b.X)
	})
	return regions, nil
}
