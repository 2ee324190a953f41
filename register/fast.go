/*
DESCRIPTION
  fast.go provides FAST, a pure Go detector of oriented FAST corners with
  rotated BRIEF descriptors. It ranks corners by Harris response and orients
  them by intensity centroid, producing features comparable to OpenCV's ORB
  at a single scale.

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
	"math"
	"math/rand"
	"sort"
)

const (
	defaultMaxFeatures   = 500
	defaultFASTThreshold = 20

	arcLength    = 9    // Contiguous circle pixels needed for a corner.
	harrisRadius = 3    // Half size of the Harris response window.
	harrisK      = 0.04 // Harris detector free parameter.
	centroidR    = 15   // Radius of the orientation patch.
	briefRange   = 13   // Sample offsets lie in [-briefRange, briefRange].
	boxRadius    = 2    // Samples are 5x5 box sums.
	border       = 21   // ceil(briefRange*sqrt2) + boxRadius + 1.
	patternSeed  = 0x0b1ef
)

// circle is the Bresenham circle of radius 3 used by the FAST test.
var circle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// pattern holds the 256 BRIEF sample pairs (x1, y1, x2, y2).
var pattern [256][4]int

func init() {
	rng := rand.New(rand.NewSource(patternSeed))
	sample := func() int {
		v := int(math.Round(rng.NormFloat64() * 31 / 5))
		if v < -briefRange {
			return -briefRange
		}
		if v > briefRange {
			return briefRange
		}
		return v
	}
	for i := range pattern {
		for j := range pattern[i] {
			pattern[i][j] = sample()
		}
	}
}

// FAST detects oriented FAST corners and computes steered BRIEF descriptors.
type FAST struct {
	MaxFeatures int // Maximum number of keypoints kept, strongest first.
	Threshold   int // Intensity difference for the segment test.
}

// NewFAST returns a FAST detector, defaulting non-positive parameters.
func NewFAST(maxFeatures, threshold int) *FAST {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}
	if threshold <= 0 {
		threshold = defaultFASTThreshold
	}
	return &FAST{MaxFeatures: maxFeatures, Threshold: threshold}
}

// Close implements Detector; FAST holds no resources.
func (d *FAST) Close() error { return nil }

// Detect implements Detector.
func (d *FAST) Detect(img *image.Gray) (Features, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 2*border || h <= 2*border {
		return Features{}, nil
	}
	g := gray{pix: img.Pix, stride: img.Stride}

	score := make([]float64, w*h)
	var cand []Keypoint
	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			if !g.corner(x, y, d.Threshold) {
				continue
			}
			r := g.harris(x, y)
			if r <= 0 {
				continue
			}
			score[y*w+x] = r
			cand = append(cand, Keypoint{X: float64(x), Y: float64(y), Response: r})
		}
	}

	// Non-maximum suppression over 3x3 neighbourhoods, ties going to the
	// earlier pixel in raster order.
	kps := cand[:0]
	for _, kp := range cand {
		x, y := int(kp.X), int(kp.Y)
		s := score[y*w+x]
		keep := true
		for dy := -1; dy <= 1 && keep; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				n := score[(y+dy)*w+x+dx]
				if n > s || (n == s && (dy < 0 || (dy == 0 && dx < 0))) {
					keep = false
					break
				}
			}
		}
		if keep {
			kps = append(kps, kp)
		}
	}

	sort.SliceStable(kps, func(i, j int) bool { return kps[i].Response > kps[j].Response })
	if len(kps) > d.MaxFeatures {
		kps = kps[:d.MaxFeatures]
	}

	ii := newIntegral(img)
	f := Features{
		Keypoints:   make([]Keypoint, len(kps)),
		Descriptors: make([]Descriptor, len(kps)),
	}
	for i, kp := range kps {
		x, y := int(kp.X), int(kp.Y)
		kp.Angle = g.orientation(x, y)
		f.Keypoints[i] = kp
		f.Descriptors[i] = ii.brief(x, y, kp.Angle)
	}
	return f, nil
}

type gray struct {
	pix    []uint8
	stride int
}

func (g gray) at(x, y int) int { return int(g.pix[y*g.stride+x]) }

// corner performs the FAST-9 segment test at (x, y).
func (g gray) corner(x, y, t int) bool {
	p := g.at(x, y)
	hi, lo := p+t, p-t

	// At least two of the four compass points lie on any arc of nine.
	var nb, nd int
	for i := 0; i < 16; i += 4 {
		v := g.at(x+circle[i][0], y+circle[i][1])
		if v > hi {
			nb++
		} else if v < lo {
			nd++
		}
	}
	if nb < 2 && nd < 2 {
		return false
	}

	var state [16]int
	for i, c := range circle {
		v := g.at(x+c[0], y+c[1])
		switch {
		case v > hi:
			state[i] = 1
		case v < lo:
			state[i] = -1
		}
	}
	run, prev := 0, 0
	for i := 0; i < 16+arcLength; i++ {
		s := state[i%16]
		if s != 0 && s == prev {
			run++
		} else if s != 0 {
			run = 1
		} else {
			run = 0
		}
		prev = s
		if run >= arcLength {
			return true
		}
	}
	return false
}

// harris returns the Harris corner response of the window around (x, y).
func (g gray) harris(x, y int) float64 {
	var sxx, syy, sxy float64
	for dy := -harrisRadius; dy <= harrisRadius; dy++ {
		for dx := -harrisRadius; dx <= harrisRadius; dx++ {
			px, py := x+dx, y+dy
			ix := float64(g.at(px+1, py)-g.at(px-1, py)) / 2
			iy := float64(g.at(px, py+1)-g.at(px, py-1)) / 2
			sxx += ix * ix
			syy += iy * iy
			sxy += ix * iy
		}
	}
	tr := sxx + syy
	return sxx*syy - sxy*sxy - harrisK*tr*tr
}

// orientation returns the intensity centroid angle of the patch at (x, y).
func (g gray) orientation(x, y int) float64 {
	var m01, m10 int
	for dy := -centroidR; dy <= centroidR; dy++ {
		for dx := -centroidR; dx <= centroidR; dx++ {
			if dx*dx+dy*dy > centroidR*centroidR {
				continue
			}
			v := g.at(x+dx, y+dy)
			m10 += dx * v
			m01 += dy * v
		}
	}
	return math.Atan2(float64(m01), float64(m10))
}

// integral is a summed area table with one row and column of padding.
type integral struct {
	sum    []uint32
	stride int
}

func newIntegral(img *image.Gray) integral {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	ii := integral{sum: make([]uint32, (w+1)*(h+1)), stride: w + 1}
	for y := 0; y < h; y++ {
		var row uint32
		for x := 0; x < w; x++ {
			row += uint32(img.Pix[y*img.Stride+x])
			ii.sum[(y+1)*ii.stride+x+1] = ii.sum[y*ii.stride+x+1] + row
		}
	}
	return ii
}

// box returns the sum of the 5x5 box centred on (x, y).
func (ii integral) box(x, y int) uint32 {
	x0, y0 := x-boxRadius, y-boxRadius
	x1, y1 := x+boxRadius+1, y+boxRadius+1
	return ii.sum[y1*ii.stride+x1] - ii.sum[y0*ii.stride+x1] - ii.sum[y1*ii.stride+x0] + ii.sum[y0*ii.stride+x0]
}

// brief computes the steered BRIEF descriptor at (x, y) for angle a.
func (ii integral) brief(x, y int, a float64) Descriptor {
	c, s := math.Cos(a), math.Sin(a)
	rot := func(px, py int) (int, int) {
		fx, fy := float64(px), float64(py)
		return x + int(math.Round(c*fx-s*fy)), y + int(math.Round(s*fx+c*fy))
	}
	var d Descriptor
	for i, p := range pattern {
		x1, y1 := rot(p[0], p[1])
		x2, y2 := rot(p[2], p[3])
		if ii.box(x1, y1) < ii.box(x2, y2) {
			d[i/64] |= 1 << uint(i%64)
		}
	}
	return d
}
