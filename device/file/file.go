/*
DESCRIPTION
  file.go provides an implementation of the Source interface for files of
  concatenated JPEG images, such as MJPEG streams.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of Source for MJPEG files.
package file

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/device"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/pipeline/config"
)

// JPEG markers.
var (
	soi = []byte{0xff, 0xd8}
	eoi = []byte{0xff, 0xd9}
)

// MJPEG is an implementation of the Source interface for a file of
// concatenated JPEG images.
type MJPEG struct {
	f         *os.File
	r         *bufio.Reader
	path      string
	loop      bool
	fps       uint
	ticker    *time.Ticker
	index     uint64
	isRunning bool
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new MJPEG source.
func New(l logging.Logger) *MJPEG { return &MJPEG{log: l} }

// NewWith returns a new MJPEG source with required params provided i.e. the
// Set method does not need to be called.
func NewWith(l logging.Logger, path string, loop bool, fps uint) *MJPEG {
	return &MJPEG{log: l, path: path, loop: loop, fps: fps, set: true}
}

// Name returns the name of the source.
func (m *MJPEG) Name() string { return "File" }

// Set uses the InputPath, Loop and FileFPS fields of the config.
func (m *MJPEG) Set(c config.Config) error {
	if c.InputPath == "" {
		return errors.New("no input path for file source")
	}
	m.path = c.InputPath
	m.loop = c.Loop
	m.fps = c.FileFPS
	m.set = true
	return nil
}

// Start will open the file at the configured path.
func (m *MJPEG) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return errors.New("MJPEG source has not been set with config")
	}
	var err error
	m.f, err = os.Open(m.path)
	if err != nil {
		return fmt.Errorf("could not open media file: %w", err)
	}
	m.r = bufio.NewReader(m.f)
	if m.fps > 0 {
		m.ticker = time.NewTicker(time.Second / time.Duration(m.fps))
	}
	m.isRunning = true
	return nil
}

// Stop will close the file such that any further reads end the stream.
func (m *MJPEG) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
	if m.f == nil {
		m.isRunning = false
		return nil
	}
	err := m.f.Close()
	if err != nil {
		return err
	}
	m.f = nil
	m.isRunning = false
	return nil
}

// IsRunning is used to determine if the source is running.
func (m *MJPEG) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f != nil && m.isRunning
}

// Read implements Source. At the end of the file the stream ends unless
// looping, in which case reading restarts from the beginning.
func (m *MJPEG) Read() (frame.Frame, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		if m.set && m.f == nil && m.r != nil {
			return frame.Frame{}, false, nil
		}
		return frame.Frame{}, false, device.ErrNotStarted
	}

	buf, err := next(m.r)
	if err == io.EOF && m.loop {
		m.log.Info("looping input file")
		_, err = m.f.Seek(0, io.SeekStart)
		if err != nil {
			return frame.Frame{}, false, fmt.Errorf("could not seek to start of file for input loop: %w", err)
		}
		m.r.Reset(m.f)
		buf, err = next(m.r)
	}
	if err == io.EOF {
		return frame.Frame{}, false, nil
	}
	if err != nil {
		return frame.Frame{}, false, err
	}

	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return frame.Frame{}, false, fmt.Errorf("image can't be decoded: %w", err)
	}
	if m.ticker != nil {
		<-m.ticker.C
	}
	f := frame.FromImage(m.index, img)
	m.index++
	return f, true, nil
}

// next returns the next complete JPEG image from r, from its start of image
// marker up to and including the matching end of image marker. Nested images
// such as thumbnails are kept within the outer image. io.EOF is returned if r
// holds no further images.
func next(r *bufio.Reader) ([]byte, error) {
	buf := make([]byte, 2, 4<<10)
	n, err := io.ReadFull(r, buf)
	if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	if !bytes.Equal(buf, soi) {
		return nil, fmt.Errorf("not JPEG frame start: %#v", buf)
	}

	nImg := 1
	var last byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, b)

		if last == soi[0] && b == soi[1] {
			nImg++
		}
		if last == eoi[0] && b == eoi[1] {
			nImg--
		}
		if nImg == 0 {
			return buf, nil
		}
		last = b
	}
}
