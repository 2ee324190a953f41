/*
DESCRIPTION
  homography.go provides robust homography estimation from point
  correspondences using the normalised direct linear transform inside a
  random sample consensus loop.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package register

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// RANSAC parameters.
const (
	defaultRANSACThreshold = 3.0 // Maximum reprojection error of an inlier in pixels.
	ransacConfidence       = 0.995
	ransacMaxIters         = 2000
	minCorrespondences     = 4
)

// Point is a 2D point in pixel coordinates.
type Point struct{ X, Y float64 }

// Fit describes the result of a homography estimation.
type Fit struct {
	Transform Transform
	Inliers   []bool  // Inliers[i] reports whether correspondence i supports the fit.
	NInliers  int     // Number of inliers.
	RMSE      float64 // Root mean square reprojection error over the inliers.
}

// FindHomography estimates the transform mapping src[i] onto dst[i] with
// RANSAC. If fewer than four correspondences are given, or no consensus
// exists, the zero Transform is returned along with an error.
func FindHomography(src, dst []Point, threshold float64, rng *rand.Rand) (Fit, error) {
	n := len(src)
	if n != len(dst) {
		return Fit{}, errors.New("mismatched correspondence counts")
	}
	if n < minCorrespondences {
		return Fit{}, ErrTooFewMatches
	}
	if threshold <= 0 {
		threshold = defaultRANSACThreshold
	}

	var (
		best      Transform
		bestCount int
		sample    [minCorrespondences]int
		s, d      [minCorrespondences]Point
	)
	iters := ransacMaxIters
	for it := 0; it < iters && it < ransacMaxIters; it++ {
		pick(rng, n, sample[:])
		for i, idx := range sample {
			s[i], d[i] = src[idx], dst[idx]
		}
		h, err := dlt(s[:], d[:])
		if err != nil {
			continue
		}
		count := countInliers(h, src, dst, threshold, nil)
		if count > bestCount {
			best, bestCount = h, count
			iters = adaptiveIters(float64(count) / float64(n))
		}
	}
	if bestCount < minCorrespondences {
		return Fit{}, ErrDegenerate
	}

	inliers := make([]bool, n)
	countInliers(best, src, dst, threshold, inliers)
	var is, id []Point
	for i, ok := range inliers {
		if ok {
			is = append(is, src[i])
			id = append(id, dst[i])
		}
	}
	if h, err := dlt(is, id); err == nil {
		if refined := countInliers(h, src, dst, threshold, nil); refined >= bestCount {
			best = h
			countInliers(best, src, dst, threshold, inliers)
		}
	}

	var sq []float64
	for i, ok := range inliers {
		if ok {
			e := reprojErr(best, src[i], dst[i])
			sq = append(sq, e*e)
		}
	}
	return Fit{Transform: best, Inliers: inliers, NInliers: len(sq), RMSE: math.Sqrt(stat.Mean(sq, nil))}, nil
}

// adaptiveIters returns the iterations needed to draw an all-inlier sample
// with ransacConfidence given inlier ratio w.
func adaptiveIters(w float64) int {
	p := math.Pow(w, minCorrespondences)
	if p >= 1 {
		return 1
	}
	if p <= 0 {
		return ransacMaxIters
	}
	k := math.Log(1-ransacConfidence) / math.Log(1-p)
	if k > ransacMaxIters {
		return ransacMaxIters
	}
	return int(math.Ceil(k))
}

// pick fills dst with distinct random indices in [0, n).
func pick(rng *rand.Rand, n int, dst []int) {
	for i := range dst {
		for {
			v := rng.Intn(n)
			dup := false
			for _, u := range dst[:i] {
				if u == v {
					dup = true
					break
				}
			}
			if !dup {
				dst[i] = v
				break
			}
		}
	}
}

func reprojErr(h Transform, s, d Point) float64 {
	x, y, ok := h.Apply(s.X, s.Y)
	if !ok {
		return math.Inf(1)
	}
	return math.Hypot(x-d.X, y-d.Y)
}

func countInliers(h Transform, src, dst []Point, threshold float64, mark []bool) int {
	var count int
	for i := range src {
		ok := reprojErr(h, src[i], dst[i]) < threshold
		if ok {
			count++
		}
		if mark != nil {
			mark[i] = ok
		}
	}
	return count
}

// normalization returns the similarity transform moving the centroid of pts
// to the origin with a mean distance of sqrt(2).
func normalization(pts []Point) Transform {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))
	var md float64
	for _, p := range pts {
		md += math.Hypot(p.X-cx, p.Y-cy)
	}
	md /= float64(len(pts))
	if md == 0 {
		return Transform{}
	}
	s := math.Sqrt2 / md
	return Transform{s, 0, -s * cx, 0, s, -s * cy, 0, 0, 1}
}

// dlt solves for the homography mapping src onto dst in the least squares
// sense using the normalised direct linear transform.
func dlt(src, dst []Point) (Transform, error) {
	if len(src) < minCorrespondences {
		return Transform{}, ErrTooFewMatches
	}
	ts, td := normalization(src), normalization(dst)
	if ts.Degenerate() || td.Degenerate() {
		return Transform{}, ErrDegenerate
	}

	rows := 2 * len(src)
	if rows < 9 {
		rows = 9 // Zero padding keeps the null vector in the thin SVD.
	}
	a := mat.NewDense(rows, 9, nil)
	for i := range src {
		x, y, _ := ts.Apply(src[i].X, src[i].Y)
		u, v, _ := td.Apply(dst[i].X, dst[i].Y)
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return Transform{}, errors.New("svd factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	var hn Transform
	for i := 0; i < 9; i++ {
		hn[i] = v.At(i, 8)
	}

	tdInv, err := td.Inverse()
	if err != nil {
		return Transform{}, err
	}
	h := tdInv.Mul(hn).Mul(ts)
	if h.Degenerate() {
		return Transform{}, ErrDegenerate
	}
	return h, nil
}
