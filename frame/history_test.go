/*
DESCRIPTION
  history_test.go provides testing for the History frame buffer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func indices(frames []Frame) []uint64 {
	out := make([]uint64, len(frames))
	for i, f := range frames {
		out[i] = f.Index
	}
	return out
}

func TestHistoryEviction(t *testing.T) {
	h, err := NewHistory(3)
	if err != nil {
		t.Fatalf("could not create history: %v", err)
	}

	var evicted []uint64
	h.OnEvict(func(i uint64) { evicted = append(evicted, i) })

	for i := uint64(0); i < 5; i++ {
		h.Push(New(i, NewGray(2, 2)))
		if h.Len() > h.Cap() {
			t.Fatalf("history length %d exceeds capacity %d", h.Len(), h.Cap())
		}
	}

	if want := []uint64{2, 3, 4}; !cmp.Equal(indices(h.Frames()), want) {
		t.Errorf("unexpected frames\nwant: %v\ngot: %v", want, indices(h.Frames()))
	}
	if want := []uint64{0, 1}; !cmp.Equal(evicted, want) {
		t.Errorf("unexpected evictions\nwant: %v\ngot: %v", want, evicted)
	}
	if !h.Full() {
		t.Error("expected history to be full")
	}
	if f, _ := h.Newest(); f.Index != 4 {
		t.Errorf("unexpected newest frame: %d", f.Index)
	}

	h.Reset()
	if want := []uint64{0, 1, 2, 3, 4}; !cmp.Equal(evicted, want) {
		t.Errorf("unexpected evictions after reset\nwant: %v\ngot: %v", want, evicted)
	}
	if h.Len() != 0 {
		t.Errorf("expected empty history after reset, got %d", h.Len())
	}
}

func TestHistoryBadCapacity(t *testing.T) {
	if _, err := NewHistory(0); err == nil {
		t.Error("expected error for zero capacity")
	}
}
