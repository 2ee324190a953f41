/*
DESCRIPTION
  features.go provides the keypoint and binary descriptor types produced by
  feature detectors and a cache of detected features keyed by frame index.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package register

import (
	"image"
	"math/bits"
	"sync"

	"github.com/ausocean/skywatch/frame"
)

// Keypoint is an oriented local feature location.
type Keypoint struct {
	X, Y     float64
	Angle    float64 // Radians.
	Response float64
}

// Descriptor is a 256 bit binary feature descriptor.
type Descriptor [4]uint64

// Distance returns the Hamming distance between d and o.
func (d Descriptor) Distance(o Descriptor) int {
	return bits.OnesCount64(d[0]^o[0]) + bits.OnesCount64(d[1]^o[1]) +
		bits.OnesCount64(d[2]^o[2]) + bits.OnesCount64(d[3]^o[3])
}

// Features holds the keypoints of a frame and their descriptors; the i'th
// descriptor describes the i'th keypoint.
type Features struct {
	Keypoints   []Keypoint
	Descriptors []Descriptor
}

// Len returns the number of features.
func (f Features) Len() int { return len(f.Keypoints) }

// Detector detects a bounded number of oriented features with binary
// descriptors in a grayscale image.
type Detector interface {
	Detect(img *image.Gray) (Features, error)
	Close() error
}

// FeatureCache maps frame indices to their detected features. Entries are
// removed by Evict, which is registered as a History eviction observer.
type FeatureCache struct {
	mu sync.Mutex
	m  map[uint64]Features
}

// NewFeatureCache returns an empty FeatureCache.
func NewFeatureCache() *FeatureCache {
	return &FeatureCache{m: make(map[uint64]Features)}
}

// Get returns the cached features of the frame with the given index.
func (c *FeatureCache) Get(index uint64) (Features, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.m[index]
	return f, ok
}

// Put caches f for the frame with the given index.
func (c *FeatureCache) Put(index uint64, f Features) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[index] = f
}

// Evict removes the entry for the frame with the given index.
func (c *FeatureCache) Evict(index uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, index)
}

// Len returns the number of cached entries.
func (c *FeatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Lookup returns the cached features for f, detecting and caching them with
// d on a miss.
func (c *FeatureCache) Lookup(f frame.Frame, d Detector) (Features, error) {
	if feat, ok := c.Get(f.Index); ok {
		return feat, nil
	}
	feat, err := d.Detect(f.Img)
	if err != nil {
		return Features{}, err
	}
	c.Put(f.Index, feat)
	return feat, nil
}
