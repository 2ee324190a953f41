/*
DESCRIPTION
  pipeline.go provides Pipeline, which controls a skywatch session;
  providing methods to start, stop and reconfigure an instance.

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
	"image"
	"sync"

	"github.com/ausocean/skywatch/blob"
	"github.com/ausocean/skywatch/device"
	"github.com/ausocean/skywatch/device/capture"
	"github.com/ausocean/skywatch/device/file"
	"github.com/ausocean/skywatch/filter"
	"github.com/ausocean/skywatch/frame"
	"github.com/ausocean/skywatch/pipeline/config"
	"github.com/ausocean/skywatch/register"
	"github.com/ausocean/skywatch/track"
)

// Frame rate of the mask video when the input is not paced.
const defaultMaskFPS = 25

// Pipeline provides methods to control a skywatch session; providing
// methods to start, stop and change the state of an instance using the
// Config struct.
type Pipeline struct {
	// cfg holds the pipeline configuration, including the logger.
	cfg config.Config

	// source provides the frames of each cycle.
	source device.Source

	// registrar is kept so that its detector can be released on Stop.
	registrar *register.Registrar

	// sched runs the stages of each cycle.
	sched *Scheduler

	// sinks consume the results of each cycle; probe is an extra sink set
	// by the caller.
	sinks []Sink
	probe Sink

	// mu guards running and done.
	mu      sync.Mutex
	running bool

	// wg is used to wait for the processing routine to finish.
	wg sync.WaitGroup

	// err channels errors from the processing routine to the handle errors
	// routine.
	err chan error

	// stop signals the processing routine to finish after its current cycle.
	stop chan struct{}

	// done is closed when the processing routine returns.
	done chan struct{}
}

// New returns a pointer to a new Pipeline with the desired configuration,
// and/or an error if construction of the new instance was not successful.
func New(c config.Config) (*Pipeline, error) {
	p := Pipeline{err: make(chan error)}
	err := p.setConfig(c)
	if err != nil {
		return nil, fmt.Errorf("could not set config, failed with error: %w", err)
	}
	go p.handleErrors()
	return &p, nil
}

// Config returns a copy of the pipeline's current config.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Write hands img to a manual source.
func (p *Pipeline) Write(img image.Image) error {
	p.mu.Lock()
	m, ok := p.source.(*device.Manual)
	p.mu.Unlock()
	if !ok {
		return errors.New("cannot write to anything but a manual source")
	}
	return m.Write(img)
}

// SetProbe adds a sink consuming every cycle in addition to the configured
// outputs. Its Close is called on Stop, after which it is released; set it
// again before a restart to keep consuming.
func (p *Pipeline) SetProbe(s Sink) error {
	if p.Running() {
		return errors.New("cannot set probe when pipeline is running")
	}
	p.probe = s
	return nil
}

// Start builds the stages for the current config and starts processing
// frames from the configured input.
func (p *Pipeline) Start() error {
	if p.Running() {
		p.cfg.Logger.Warning("start called, but pipeline already running")
		return nil
	}

	p.cfg.Logger.Debug("resetting pipeline")
	err := p.reset()
	if err != nil {
		p.cleanup()
		return err
	}
	p.cfg.Logger.Info("pipeline reset")

	err = p.source.Start()
	if err != nil {
		p.cleanup()
		return fmt.Errorf("could not start %s source: %w", p.source.Name(), err)
	}

	p.mu.Lock()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.running = true
	p.mu.Unlock()

	p.cfg.Logger.Debug("starting processing routine")
	p.wg.Add(1)
	go p.process()
	return nil
}

// Stop stops the pipeline once the current cycle completes, then closes
// the source and sinks.
func (p *Pipeline) Stop() {
	if !p.Running() {
		p.cfg.Logger.Warning("stop called but pipeline isn't running")
		return
	}

	close(p.stop)

	p.cfg.Logger.Debug("stopping input")
	err := p.source.Stop()
	if err != nil {
		p.cfg.Logger.Error("could not stop input", "error", err.Error())
	} else {
		p.cfg.Logger.Info("input stopped")
	}

	p.cfg.Logger.Debug("waiting for routines to finish")
	p.wg.Wait()
	p.cfg.Logger.Info("routines finished")

	p.cleanup()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Running reports whether Start has been called without a following Stop.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done returns a channel closed when the processing routine finishes,
// either because the input was exhausted or because Stop was called. It is
// nil if the pipeline has never been started.
func (p *Pipeline) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters. A running
// pipeline is stopped; the caller restarts it.
func (p *Pipeline) Update(vars map[string]string) error {
	if p.Running() {
		p.cfg.Logger.Debug("pipeline running; stopping for re-config")
		p.Stop()
		p.cfg.Logger.Info("pipeline was running; stopped for re-config")
	}

	p.cfg.Logger.Debug("checking vars", "vars", vars)
	p.cfg.Update(vars)
	err := p.setConfig(p.cfg)
	if err != nil {
		return err
	}
	p.cfg.Logger.Info("finished reconfig")
	p.cfg.Logger.Debug("config changed", "config", p.cfg)
	return nil
}

// process runs cycles until the stage sequence halts or stop is closed.
func (p *Pipeline) process() {
	defer p.wg.Done()
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			p.cfg.Logger.Info("stop requested, processing finished")
			return
		default:
		}

		var c Cycle
		cont, err := p.sched.Run(&c)
		if err != nil {
			p.err <- err
		}
		if !cont {
			p.cfg.Logger.Info("input exhausted, processing finished")
			return
		}
	}
}

func (p *Pipeline) handleErrors() {
	for err := range p.err {
		if err != nil {
			p.cfg.Logger.Error("async error", "error", err.Error())
		}
	}
}

// setConfig takes a config, checks its validity and then replaces the
// current config.
func (p *Pipeline) setConfig(c config.Config) error {
	if c.Logger == nil {
		return errors.New("no logger in config")
	}
	p.cfg.Logger = c.Logger
	p.cfg.Logger.Debug("validating config")
	err := c.Validate()
	if err != nil {
		return errors.New("Config struct is bad: " + err.Error())
	}
	p.cfg.Logger.Info("config validated")
	p.cfg = c
	p.cfg.Logger.SetLevel(p.cfg.LogLevel)
	return nil
}

// reset creates the source, stages and sinks for the current config.
func (p *Pipeline) reset() error {
	c := p.cfg
	l := c.Logger

	var src device.Source
	switch c.Input {
	case config.InputFile:
		l.Debug("using file input")
		src = file.New(l)
	case config.InputCapture:
		l.Debug("using capture input")
		src = capture.New(l)
	case config.InputManual:
		l.Debug("using manual input")
		src = device.NewManual()
	default:
		return fmt.Errorf("unrecognised input: %d", c.Input)
	}
	err := src.Set(c)
	if err != nil {
		return fmt.Errorf("could not set %s source: %w", src.Name(), err)
	}
	p.mu.Lock()
	p.source = src
	p.mu.Unlock()

	history, err := frame.NewHistory(int(c.HistoryFrames))
	if err != nil {
		return fmt.Errorf("could not create history: %w", err)
	}

	opts := []register.Option{
		register.WithGoodMatchPercent(c.GoodMatchPercent),
		register.WithRANSACThreshold(c.RANSACThreshold),
		register.WithWorkers(int(c.Workers)),
	}
	switch c.Registration {
	case config.RegistrationFeatures:
		det, err := register.NewORB(int(c.MaxFeatures), int(c.FASTThreshold))
		if err != nil {
			return fmt.Errorf("could not create feature detector: %w", err)
		}
		opts = append(opts, register.WithStrategy(register.StrategyFeatures), register.WithDetector(det))
	case config.RegistrationPhase:
		opts = append(opts, register.WithStrategy(register.StrategyPhase))
	case config.RegistrationNone:
		opts = append(opts, register.WithStrategy(register.StrategyNone))
	}
	reg, err := register.New(l, opts...)
	if err != nil {
		return fmt.Errorf("could not create registrar: %w", err)
	}
	reg.Watch(history)
	p.registrar = reg

	strategy := filter.StrategyRecompute
	if c.Foreground == config.ForegroundCached {
		strategy = filter.StrategyCached
	}
	fg, err := filter.New(strategy, filter.Params{History: int(c.HistoryFrames), Scale: int(c.QuantizationScale), Workers: int(c.Workers)}, l)
	if err != nil {
		return fmt.Errorf("could not create foreground: %w", err)
	}
	if cached, ok := fg.(*filter.Cached); ok {
		cached.Watch(history)
	}

	tr, err := track.New(track.Params{
		Particles:      int(c.Particles),
		MatchThreshold: c.MatchThreshold,
		MaxMisses:      int(c.MaxMisses),
		Seed:           c.Seed,
	}, l)
	if err != nil {
		return fmt.Errorf("could not create tracker: %w", err)
	}

	p.sinks = p.sinks[:0]
	for _, out := range c.Outputs {
		switch out {
		case config.OutputLog:
			l.Debug("using log output")
			p.sinks = append(p.sinks, NewLogSink(l))
		case config.OutputSQLite:
			l.Debug("using SQLite output")
			s, err := NewStoreSink(c.OutputPath, l)
			if err != nil {
				return err
			}
			p.sinks = append(p.sinks, s)
		case config.OutputVideo:
			l.Debug("using mask video output")
			fps := float64(c.FileFPS)
			if fps == 0 {
				fps = defaultMaskFPS
			}
			s, err := NewVideoSink(c.MaskVideoPath, fps, l)
			if err != nil {
				return err
			}
			p.sinks = append(p.sinks, s)
		}
	}
	if p.probe != nil {
		p.sinks = append(p.sinks, p.probe)
	}

	p.sched = NewScheduler(
		&SourceStage{Source: src},
		&RegisterStage{History: history, Registrar: reg, Log: l},
		&ForegroundStage{Foreground: fg},
		&BlobStage{Extractor: blob.NewContours(int(c.MotionMinArea))},
		&TrackStage{Tracker: tr},
		&SinkStage{Sinks: p.sinks},
	)
	return nil
}

// cleanup releases the registrar and closes the sinks.
func (p *Pipeline) cleanup() {
	if p.registrar != nil {
		err := p.registrar.Close()
		if err != nil {
			p.cfg.Logger.Error("could not close registrar", "error", err.Error())
		}
		p.registrar = nil
	}
	err := closeAll(p.sinks)
	if err != nil {
		p.cfg.Logger.Error("failed to close sinks", "error", err.Error())
	} else {
		p.cfg.Logger.Info("sinks closed")
	}
	p.sinks = nil
	p.probe = nil
}
