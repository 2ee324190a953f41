/*
DESCRIPTION
  filter_test.go provides testing for the background model and the
  foreground strategies.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/skywatch/device/file"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/register"
)

// aligned wraps pre-aligned images as identity registered history.
func aligned(imgs ...*image.Gray) []register.Aligned {
	out := make([]register.Aligned, len(imgs))
	for i, img := range imgs {
		out[i] = register.Aligned{
			Frame:     frame.New(uint64(i), img),
			Warped:    img,
			Valid:     frame.Filled(img.Rect.Dx(), img.Rect.Dy(), register.Valid),
			Transform: register.Identity(),
		}
	}
	return out
}

func random(w, h int, rng *rand.Rand) *image.Gray {
	img := frame.NewGray(w, h)
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

// ramp returns a 256x1 image holding every intensity in order.
func ramp() *image.Gray {
	img := frame.NewGray(256, 1)
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	return img
}

func TestQuantizeMonotone(t *testing.T) {
	for _, scale := range []int{2, 10, 37, 255} {
		q := Quantize(ramp(), scale)
		for i := 1; i < len(q.Pix); i++ {
			if q.Pix[i] < q.Pix[i-1] {
				t.Fatalf("quantization not monotone at %d for scale %d", i, scale)
			}
		}
		if q.Pix[0] != 0 || int(q.Pix[255]) != scale {
			t.Errorf("unexpected range for scale %d: [%d, %d]", scale, q.Pix[0], q.Pix[255])
		}
	}
}

func TestQuantizeStable(t *testing.T) {
	for _, scale := range []int{2, 10, 37, 255} {
		q := Quantize(ramp(), scale)
		again := Quantize(Dequantize(q, scale), scale)
		if !cmp.Equal(q.Pix, again.Pix) {
			t.Errorf("quantization not stable for scale %d", scale)
		}
	}
}

func TestIntersectAndUnion(t *testing.T) {
	raw := []*image.Gray{frame.Filled(2, 1, 100), frame.Filled(2, 1, 120), frame.Filled(2, 1, 200)}
	raw[2].Pix[1] = 130
	quant := []*image.Gray{Quantize(raw[0], 10), Quantize(raw[1], 10), Quantize(raw[2], 10)}

	inters := Intersections(raw, quant)
	want := [][]uint8{{100, 100}, {0, 120}}
	for i, in := range inters {
		if !cmp.Equal(in.Pix, want[i]) {
			t.Errorf("unexpected intersection %d.\nwant: %v\ngot: %v", i, want[i], in.Pix)
		}
	}

	// Newest pair first: pixel 1 takes pair 1's value.
	got := Union(inters).Pix
	if !cmp.Equal(got, []uint8{100, 120}) {
		t.Errorf("unexpected union.\nwant: %v\ngot: %v", []uint8{100, 120}, got)
	}
}

func TestWeightsBound(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 10
	quant := make([]*image.Gray, n)
	for i := range quant {
		base := random(32, 32, rng)
		quant[i] = Quantize(base, 3)
	}
	for _, w := range Weights(quant).Pix {
		if int(w) > n-1 {
			t.Fatalf("weight %d exceeds %d", w, n-1)
		}
	}
}

func TestDissimilarity(t *testing.T) {
	raw := []*image.Gray{frame.Filled(1, 1, 0), frame.Filled(1, 1, 250), frame.Filled(1, 1, 0), frame.Filled(1, 1, 5)}
	quant := make([]*image.Gray, len(raw))
	for i, r := range raw {
		quant[i] = Quantize(r, 10)
	}
	// Pairs (0,1) and (1,2) disagree, (2,3) agrees: (250 + 250) / 4.
	got := Dissimilarity(raw, quant).Pix[0]
	if got != 125 {
		t.Errorf("unexpected dissimilarity.\nwant: 125\ngot: %d", got)
	}
}

func TestIsMoving(t *testing.T) {
	tests := []struct {
		w, f, d Level
		want    bool
	}{
		{Medium, Low, Low, true},
		{Medium, Low, Medium, false},
		{Medium, Low, High, false},
		{Medium, Medium, Low, true},
		{Medium, Medium, Medium, true},
		{Medium, Medium, High, false},
		{Medium, High, Low, true},
		{Medium, High, Medium, true},
		{Medium, High, High, true},
		{Low, Low, Low, false},
		{Low, Low, Medium, false},
		{Low, Low, High, false},
		{Low, Medium, Low, true},
		{Low, Medium, Medium, false},
		{Low, Medium, High, false},
		{Low, High, Low, true},
		{Low, High, Medium, false},
		{Low, High, High, false},
	}

	for _, test := range tests {
		got := IsMoving(test.w, test.f, test.d)
		if got != test.want {
			t.Errorf("unexpected result for weight %v, foreground %v, dissimilarity %v.\nwant: %v\ngot: %v", test.w, test.f, test.d, test.want, got)
		}
	}

	for _, f := range []Level{Low, Medium, High} {
		for _, d := range []Level{Low, Medium, High} {
			if IsMoving(High, f, d) {
				t.Errorf("background weight should never be moving (%v, %v)", f, d)
			}
		}
	}
}

func TestLevels(t *testing.T) {
	const n = 10
	weights := []struct {
		w    uint8
		want Level
	}{{0, Low}, {3, Low}, {4, Medium}, {8, Medium}, {9, High}}
	for _, test := range weights {
		if got := WeightLevel(test.w, n); got != test.want {
			t.Errorf("unexpected level for weight %d.\nwant: %v\ngot: %v", test.w, test.want, got)
		}
	}

	intensities := []struct {
		v    uint8
		want Level
	}{{0, Low}, {85, Low}, {86, Medium}, {169, Medium}, {170, High}, {255, High}}
	for _, test := range intensities {
		if got := IntensityLevel(test.v); got != test.want {
			t.Errorf("unexpected level for %d.\nwant: %v\ngot: %v", test.v, test.want, got)
		}
	}
}

func TestCleanEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	mask := frame.NewGray(8, 8)
	for i := range mask.Pix {
		if rng.Intn(2) == 1 {
			mask.Pix[i] = Moving
		}
	}
	orig := frame.Clone(mask)

	CleanEdges(mask, frame.Filled(8, 8, register.Valid))
	if !cmp.Equal(mask.Pix, orig.Pix) {
		t.Error("all valid mask should leave the mask unchanged")
	}

	CleanEdges(mask, frame.Filled(8, 8, register.Valid), frame.NewGray(8, 8))
	for _, v := range mask.Pix {
		if v != Still {
			t.Fatal("all invalid mask should clear the mask")
		}
	}
}

func strategies(t *testing.T, n int) map[string]Foreground {
	out := make(map[string]Foreground)
	for _, s := range []Strategy{StrategyRecompute, StrategyCached} {
		fg, err := New(s, Params{History: n, Scale: DefaultScale, Workers: 2}, (*logging.TestLogger)(t))
		if err != nil {
			t.Fatalf("could not create %v foreground: %v", s, err)
		}
		out[s.String()] = fg
	}
	return out
}

func TestIdenticalFrames(t *testing.T) {
	const n = 6
	img := random(40, 30, rand.New(rand.NewSource(3)))
	imgs := make([]*image.Gray, n)
	for i := range imgs {
		imgs[i] = frame.Clone(img)
	}

	for name, fg := range strategies(t, n) {
		m, err := fg.Extract(aligned(imgs...))
		if err != nil {
			t.Fatalf("%s: did not expect error: %v", name, err)
		}
		if count(m.Foreground) != 0 || count(m.Mask) != 0 {
			t.Errorf("%s: identical frames should give no foreground, got %d foreground and %d moving pixels", name, count(m.Foreground), count(m.Mask))
		}
	}
}

func TestEndToEnd(t *testing.T) {
	const (
		n    = 10
		base = 50
	)
	block := image.Rect(40, 40, 50, 50)
	imgs := make([]*image.Gray, n)
	for i := range imgs {
		imgs[i] = frame.Filled(100, 100, base)
	}
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			imgs[n-1].Pix[y*imgs[n-1].Stride+x] = 255
		}
	}

	for name, fg := range strategies(t, n) {
		m, err := fg.Extract(aligned(imgs...))
		if err != nil {
			t.Fatalf("%s: did not expect error: %v", name, err)
		}
		for y := 0; y < 100; y++ {
			for x := 0; x < 100; x++ {
				want := uint8(Still)
				if image.Pt(x, y).In(block) {
					want = Moving
				}
				if got := m.Mask.Pix[y*m.Mask.Stride+x]; got != want {
					t.Fatalf("%s: unexpected mask value at (%d,%d).\nwant: %d\ngot: %d", name, x, y, want, got)
				}
			}
		}
	}
}

// TestDecodedJPEG runs frames read from a grayscale MJPEG file, whose
// decoded rows are padded past the image width, through both strategies.
func TestDecodedJPEG(t *testing.T) {
	const (
		n = 3
		w = 100
		h = 100
	)
	img := random(w, h, rand.New(rand.NewSource(9)))
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
		if err != nil {
			t.Fatalf("could not encode frame: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "gray.mjpeg")
	err := os.WriteFile(path, buf.Bytes(), 0o644)
	if err != nil {
		t.Fatalf("could not write file: %v", err)
	}

	src := file.NewWith((*logging.TestLogger)(t), path, false, 0)
	err = src.Start()
	if err != nil {
		t.Fatalf("could not start source: %v", err)
	}
	defer src.Stop()

	var frames []frame.Frame
	for i := 0; i < n; i++ {
		f, ok, err := src.Read()
		if err != nil || !ok {
			t.Fatalf("could not read frame %d: ok=%v err=%v", i, ok, err)
		}
		if f.Width() != w || f.Height() != h {
			t.Fatalf("unexpected frame size %dx%d", f.Width(), f.Height())
		}
		frames = append(frames, f)
	}

	r, err := register.New((*logging.TestLogger)(t), register.WithStrategy(register.StrategyNone))
	if err != nil {
		t.Fatalf("could not create registrar: %v", err)
	}
	hist := r.ShiftAll(frames, frames[n-1])

	for name, fg := range strategies(t, n) {
		m, err := fg.Extract(hist)
		if err != nil {
			t.Fatalf("%s: did not expect error: %v", name, err)
		}
		if count(m.Mask) != 0 {
			t.Errorf("%s: identical decoded frames should give no moving pixels, got %d", name, count(m.Mask))
		}
	}
}

func TestNotReady(t *testing.T) {
	for name, fg := range strategies(t, 5) {
		_, err := fg.Extract(aligned(frame.NewGray(4, 4), frame.NewGray(4, 4)))
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("%s: unexpected error.\nwant: %v\ngot: %v", name, ErrNotReady, err)
		}
	}
}

func TestSizeMismatch(t *testing.T) {
	for name, fg := range strategies(t, 3) {
		_, err := fg.Extract(aligned(frame.NewGray(4, 4), frame.NewGray(5, 4), frame.NewGray(4, 4)))
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("%s: unexpected error.\nwant: %v\ngot: %v", name, ErrSizeMismatch, err)
		}
	}
}

func TestCachedReuse(t *testing.T) {
	const n = 5
	rng := rand.New(rand.NewSource(4))
	imgs := make([]*image.Gray, n+1)
	for i := range imgs {
		imgs[i] = random(16, 16, rng)
	}
	log := (*logging.TestLogger)(t)
	c := NewCached(Params{History: n, Scale: DefaultScale, Workers: 2}, log)
	r := &Recompute{params: Params{History: n, Scale: DefaultScale, Workers: 2}, log: log}

	hist := aligned(imgs...)
	first, err := c.Extract(hist[:n])
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want, err := r.Extract(hist[:n])
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	if !cmp.Equal(first.Mask.Pix, want.Mask.Pix) || !cmp.Equal(first.Union.Pix, want.Union.Pix) {
		t.Error("cached and recomputed results differ")
	}

	// Sliding the window by one frame reuses all but the newest pair.
	_, err = c.Extract(hist[1:])
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	hits, misses := c.Stats()
	if hits != n-2 || misses != n {
		t.Errorf("unexpected cache stats.\nwant: hits %d, misses %d\ngot: hits %d, misses %d", n-2, n, hits, misses)
	}

	// A changed transform invalidates the pairs of that frame.
	moved := append([]register.Aligned(nil), hist[1:]...)
	moved[0].Transform = register.Translation(1, 0)
	_, err = c.Extract(moved)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	hits, misses = c.Stats()
	if hits != 2*(n-2) || misses != n+1 {
		t.Errorf("unexpected cache stats after transform change.\nwant: hits %d, misses %d\ngot: hits %d, misses %d", 2*(n-2), n+1, hits, misses)
	}

	c.Evict(hist[2].Frame.Index)
	for k := range c.pairs {
		if k.older == hist[2].Frame.Index || k.newer == hist[2].Frame.Index {
			t.Errorf("pair %v should have been evicted", k)
		}
	}
}
