//go:build withcv
// +build withcv

/*
DESCRIPTION
  orb.go provides an OpenCV ORB feature detector producing the same Features
  as the pure Go detector, for use where OpenCV is available.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package register

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ORB parameters other than feature count and FAST threshold.
const (
	orbScaleFactor   = 1.2
	orbLevels        = 8
	orbEdgeThreshold = 31
	orbWTAK          = 2
	orbPatchSize     = 31
)

// ORB wraps gocv's ORB detector.
type ORB struct {
	orb gocv.ORB
}

// NewORB returns an ORB detector limited to maxFeatures features.
func NewORB(maxFeatures, threshold int) (Detector, error) {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}
	if threshold <= 0 {
		threshold = defaultFASTThreshold
	}
	o := gocv.NewORBWithParams(maxFeatures, orbScaleFactor, orbLevels, orbEdgeThreshold, 0, orbWTAK, gocv.ORBScoreTypeHarris, orbPatchSize, threshold)
	return &ORB{orb: o}, nil
}

// Close frees resources used by gocv. It has to be done manually,
// due to gocv using c-go.
func (d *ORB) Close() error { return d.orb.Close() }

// Detect implements Detector.
func (d *ORB) Detect(img *image.Gray) (Features, error) {
	m, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return Features{}, fmt.Errorf("could not convert image to mat: %w", err)
	}
	defer m.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	kps, desc := d.orb.DetectAndCompute(m, mask)
	defer desc.Close()

	if desc.Empty() {
		return Features{}, nil
	}
	if desc.Cols() != 32 {
		return Features{}, fmt.Errorf("unexpected ORB descriptor width: %d bytes", desc.Cols())
	}

	b := desc.ToBytes()
	f := Features{
		Keypoints:   make([]Keypoint, len(kps)),
		Descriptors: make([]Descriptor, len(kps)),
	}
	for i, kp := range kps {
		f.Keypoints[i] = Keypoint{X: kp.X, Y: kp.Y, Angle: kp.Angle * math.Pi / 180, Response: kp.Response}
		row := b[i*32 : (i+1)*32]
		for j := range f.Descriptors[i] {
			f.Descriptors[i][j] = binary.LittleEndian.Uint64(row[j*8:])
		}
	}
	return f, nil
}
