/*
DESCRIPTION
  sinks.go provides the Sink interface and the log and SQLite sinks.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"errors"
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/store"
)

// Sink consumes the results of a cycle.
type Sink interface {
	Consume(c *Cycle) error
	Close() error
}

// LogSink logs each cycle's tracks.
type LogSink struct {
	log logging.Logger
}

// NewLogSink returns a LogSink writing to l.
func NewLogSink(l logging.Logger) *LogSink { return &LogSink{log: l} }

func (s *LogSink) Consume(c *Cycle) error {
	if c.Tracks == nil {
		return nil
	}
	for _, r := range c.Tracks {
		s.log.Info("track", "frame", r.Frame, "id", r.ID, "rect", r.Rect.String())
	}
	return nil
}

func (s *LogSink) Close() error { return nil }

// StoreSink records each cycle's tracks to a region store.
type StoreSink struct {
	store *store.Store
}

// NewStoreSink opens the store at path.
func NewStoreSink(path string, l logging.Logger) (*StoreSink, error) {
	s, err := store.Open(path, l)
	if err != nil {
		return nil, fmt.Errorf("could not open region store: %w", err)
	}
	return &StoreSink{store: s}, nil
}

// Store returns the underlying store.
func (s *StoreSink) Store() *store.Store { return s.store }

func (s *StoreSink) Consume(c *Cycle) error { return s.store.Record(c.Tracks) }

func (s *StoreSink) Close() error { return s.store.Close() }

// closeAll closes every sink, joining their errors.
func closeAll(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		err := s.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
