/*
DESCRIPTION
  history.go provides History, a fixed capacity FIFO of recent frames that
  notifies observers whenever a frame is evicted so that per-frame cached
  data can be released.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"errors"
	"sync"
)

// EvictFunc is called with the index of a frame leaving a History.
type EvictFunc func(index uint64)

var errBadCapacity = errors.New("history capacity must be at least 1")

// History stores the last n frames, oldest first. The newest frame is the
// current frame of the processing cycle.
type History struct {
	mu        sync.Mutex
	capacity  int
	frames    []Frame
	observers []EvictFunc
}

// NewHistory returns a new History holding at most capacity frames.
func NewHistory(capacity int) (*History, error) {
	if capacity < 1 {
		return nil, errBadCapacity
	}
	return &History{capacity: capacity, frames: make([]Frame, 0, capacity)}, nil
}

// OnEvict registers fn to be called, synchronously, each time a frame is
// evicted.
func (h *History) OnEvict(fn EvictFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, fn)
}

// Push appends f as the newest frame. If the history is full the oldest
// frame is evicted first.
func (h *History) Push(f Frame) {
	h.mu.Lock()
	var evicted []uint64
	for len(h.frames) >= h.capacity {
		evicted = append(evicted, h.frames[0].Index)
		copy(h.frames, h.frames[1:])
		h.frames = h.frames[:len(h.frames)-1]
	}
	h.frames = append(h.frames, f)
	obs := h.observers
	h.mu.Unlock()

	h.notify(obs, evicted)
}

// Reset evicts every frame.
func (h *History) Reset() {
	h.mu.Lock()
	evicted := make([]uint64, len(h.frames))
	for i, f := range h.frames {
		evicted[i] = f.Index
	}
	h.frames = h.frames[:0]
	obs := h.observers
	h.mu.Unlock()

	h.notify(obs, evicted)
}

func (h *History) notify(obs []EvictFunc, evicted []uint64) {
	for _, idx := range evicted {
		for _, fn := range obs {
			fn(idx)
		}
	}
}

// Frames returns the stored frames ordered oldest to newest. The returned
// slice is a copy; the frames themselves are shared and read-only.
func (h *History) Frames() []Frame {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Frame, len(h.frames))
	copy(out, h.frames)
	return out
}

// Newest returns the most recently pushed frame.
func (h *History) Newest() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) == 0 {
		return Frame{}, false
	}
	return h.frames[len(h.frames)-1], true
}

// Len returns the number of stored frames.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

// Cap returns the capacity of the history.
func (h *History) Cap() int { return h.capacity }

// Full reports whether the history holds capacity frames.
func (h *History) Full() bool { return h.Len() == h.capacity }
