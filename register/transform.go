/*
DESCRIPTION
  transform.go provides Transform, the 3x3 projective matrix mapping a
  historical frame's coordinates into the current frame's coordinates.

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

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// detEpsilon is the smallest determinant magnitude of a usable transform.
const detEpsilon = 1e-9

// Transform is a row-major 3x3 homography. An affine transform has a last
// row of (0, 0, 1). The zero Transform is the degenerate result of a failed
// registration.
type Transform [9]float64

// Identity returns the identity transform.
func Identity() Transform { return Transform{1, 0, 0, 0, 1, 0, 0, 0, 1} }

// Translation returns a transform moving points by (dx, dy).
func Translation(dx, dy float64) Transform { return Transform{1, 0, dx, 0, 1, dy, 0, 0, 1} }

// Dense returns t as a gonum matrix.
func (t Transform) Dense() *mat.Dense {
	d := make([]float64, 9)
	copy(d, t[:])
	return mat.NewDense(3, 3, d)
}

func fromDense(m mat.Matrix) Transform {
	var t Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t[r*3+c] = m.At(r, c)
		}
	}
	return t
}

// Affine reports whether t has no projective component.
func (t Transform) Affine() bool { return t[6] == 0 && t[7] == 0 && t[8] == 1 }

// Degenerate reports whether t cannot be used to map points, i.e. it is the
// zero matrix, contains non-finite values or is singular.
func (t Transform) Degenerate() bool {
	for _, v := range t {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	if t == (Transform{}) {
		return true
	}
	return math.Abs(mat.Det(t.Dense())) < detEpsilon
}

// Apply maps (x, y) through t. ok is false if the point maps to infinity.
func (t Transform) Apply(x, y float64) (float64, float64, bool) {
	w := t[6]*x + t[7]*y + t[8]
	if w == 0 || math.IsNaN(w) {
		return 0, 0, false
	}
	return (t[0]*x + t[1]*y + t[2]) / w, (t[3]*x + t[4]*y + t[5]) / w, true
}

// Mul returns t·o, the transform applying o first and then t.
func (t Transform) Mul(o Transform) Transform {
	var m mat.Dense
	m.Mul(t.Dense(), o.Dense())
	return fromDense(&m).normalize()
}

// Inverse returns the inverse of t.
func (t Transform) Inverse() (Transform, error) {
	if t.Degenerate() {
		return Transform{}, ErrDegenerate
	}
	if t.Affine() {
		a, b, c, d, e, f := t[0], t[1], t[2], t[3], t[4], t[5]
		det := a*e - b*d
		return Transform{
			e / det, -b / det, (b*f - c*e) / det,
			-d / det, a / det, (c*d - a*f) / det,
			0, 0, 1,
		}, nil
	}

	var inv mat.Dense
	err := inv.Inverse(t.Dense())
	if err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return Transform{}, errors.Wrap(err, "could not invert transform")
		}
	}
	return fromDense(&inv).normalize(), nil
}

// normalize scales t so that t[8] is 1 when possible.
func (t Transform) normalize() Transform {
	if t[8] == 0 || t[8] == 1 {
		return t
	}
	s := t[8]
	for i := range t {
		t[i] /= s
	}
	return t
}
