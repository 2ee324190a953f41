//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV contour extractor when building without OpenCV, e.g. on
  Circle-CI.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package blob

// NewContours returns a connected components Extractor with the same
// minimum area.
func NewContours(minArea int) Extractor { return &Components{MinArea: minArea} }
