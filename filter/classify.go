/*
DESCRIPTION
  classify.go provides the three level classification of weights, foreground
  and dissimilarity into a moving foreground mask, and edge cleanup of that
  mask with warp validity masks.

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

	"github.com/ausocean/skywatch/frame"
)

// Level is a three way bucketing of a per pixel quantity.
type Level uint8

// Levels, ordered.
const (
	Low Level = iota
	Medium
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "invalid"
	}
}

// Intensity level thresholds.
const (
	lowIntensity  = 255 / 3
	highIntensity = 2 * 255 / 3
)

// WeightLevel buckets a commonality weight for a history of n frames. Low is
// at most (n-1)/3, Medium is up to n-2, and High means the pixel agreed in
// every pair and is background.
func WeightLevel(w uint8, n int) Level {
	switch {
	case int(w) <= (n-1)/3:
		return Low
	case int(w) <= n-2:
		return Medium
	default:
		return High
	}
}

// IntensityLevel buckets a foreground or dissimilarity value.
func IntensityLevel(v uint8) Level {
	switch {
	case v <= lowIntensity:
		return Low
	case v >= highIntensity:
		return High
	default:
		return Medium
	}
}

// IsMoving applies the classification rule to the levels of a pixel's weight,
// foreground and dissimilarity.
func IsMoving(weight, fg, dissim Level) bool {
	switch weight {
	case Medium:
		return fg >= dissim
	case Low:
		return dissim == Low && fg > dissim
	default:
		return false
	}
}

// Classify returns the moving foreground mask of a history of n frames.
func Classify(weights, fg, dissim *image.Gray, n int) *image.Gray {
	out := frame.NewGray(weights.Rect.Dx(), weights.Rect.Dy())
	for p := range out.Pix {
		if IsMoving(WeightLevel(weights.Pix[p], n), IntensityLevel(fg.Pix[p]), IntensityLevel(dissim.Pix[p])) {
			out.Pix[p] = Moving
		}
	}
	return out
}

// CleanEdges clears every pixel of mask that is invalid in any of the
// validity masks.
func CleanEdges(mask *image.Gray, valid ...*image.Gray) {
	for _, v := range valid {
		for p := range mask.Pix {
			mask.Pix[p] &= v.Pix[p]
		}
	}
}
