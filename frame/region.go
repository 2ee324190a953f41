/*
DESCRIPTION
  region.go provides Region, a rectangle optionally labelled with a track
  identity, and the intersection over union measure used to compare them.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"fmt"
	"image"
)

// NoID is the identity of a region that has not been assigned to a track.
const NoID = 0

// Region is a rectangle (x1,y1)-(x2,y2), max exclusive, found in a frame.
type Region struct {
	Rect  image.Rectangle
	ID    uint64 // Track identity, NoID if unlabelled.
	Frame uint64 // Index of the frame the region belongs to.
}

// Labelled reports whether the region carries a track identity.
func (r Region) Labelled() bool { return r.ID != NoID }

func (r Region) String() string {
	return fmt.Sprintf("frame %d id %d %v", r.Frame, r.ID, r.Rect)
}

// IoU returns the intersection over union of a and b, in [0,1].
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := inter.Dx() * inter.Dy()
	union := a.Dx()*a.Dy() + b.Dx()*b.Dy() - ia
	if union <= 0 {
		return 0
	}
	return float64(ia) / float64(union)
}
