/*
DESCRIPTION
  device.go provides the Source interface for frame sources and the Manual
  source, to which frames are written by software.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for frame sources
// that can be started and stopped and from which grayscale frames can be read.
package device

import (
	"errors"
	"image"
	"sync"

	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/pipeline/config"
)

// ErrNotStarted is returned when reading from or writing to a source that
// has not been started.
var ErrNotStarted = errors.New("source has not been started")

// Source describes a configurable source of video frames.
type Source interface {
	// Name returns the name of the Source.
	Name() string

	// Set allows for configuration of the Source using a Config struct. An
	// implementation should specify which fields are considered.
	Set(c config.Config) error

	// Start will start the Source; after which Read may be called.
	Start() error

	// Stop will stop the Source. From this point Reads will report the end
	// of the stream.
	Stop() error

	// Read returns the next frame. ok is false at the end of the stream.
	// Frame indices increase monotonically from zero.
	Read() (f frame.Frame, ok bool, err error)

	// IsRunning is used to determine if the source is running.
	IsRunning() bool
}

// Manual is an implementation of the Source interface whose frames are
// written through software. Each Write blocks until the frame has been read
// or the source is stopped.
type Manual struct {
	mu        sync.Mutex
	isRunning bool
	frames    chan image.Image
	done      chan struct{}
	index     uint64
}

// NewManual provides a new Manual source.
func NewManual() *Manual { return &Manual{} }

// Name returns the name of Manual i.e. "Manual".
func (m *Manual) Name() string { return "Manual" }

// Set is a stub to satisfy the Source interface; no configuration fields are
// required by Manual.
func (m *Manual) Set(c config.Config) error { return nil }

// Start prepares the source to accept writes.
func (m *Manual) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isRunning {
		return nil
	}
	m.frames = make(chan image.Image)
	m.done = make(chan struct{})
	m.isRunning = true
	return nil
}

// Stop ends the stream; blocked reads and writes return.
func (m *Manual) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil
	}
	close(m.done)
	m.isRunning = false
	return nil
}

// IsRunning returns true if Start has been called and Stop has not been
// called since.
func (m *Manual) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Write hands img to the next Read, converting it to grayscale.
func (m *Manual) Write(img image.Image) error {
	m.mu.Lock()
	frames, done, running := m.frames, m.done, m.isRunning
	m.mu.Unlock()
	if !running {
		return ErrNotStarted
	}
	select {
	case frames <- img:
		return nil
	case <-done:
		return ErrNotStarted
	}
}

// Read implements Source.
func (m *Manual) Read() (frame.Frame, bool, error) {
	m.mu.Lock()
	frames, done := m.frames, m.done
	m.mu.Unlock()
	if frames == nil {
		return frame.Frame{}, false, ErrNotStarted
	}
	select {
	case img := <-frames:
		f := frame.FromImage(m.index, img)
		m.index++
		return f, true, nil
	case <-done:
		return frame.Frame{}, false, nil
	}
}
