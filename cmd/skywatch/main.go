/*
DESCRIPTION
  skywatch detects and tracks moving objects in aerial video. Its behaviour
  is controlled by a vars file which is watched for changes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package skywatch is the command line client for the skywatch pipeline.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/skywatch/pipeline"
	"github.com/ausocean/skywatch/pipeline/config"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

// Misc constants.
const (
	defaultLogPath  = "/var/log/skywatch/skywatch.log"
	defaultVarsPath = "/etc/skywatch/vars.yaml"
	profilePath     = "skywatch.prof"
	pkg             = "skywatch: "
)

// This is set to true if the 'profile' build tag is provided on build.
var canProfile = false

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		showVars    = flag.Bool("vars", false, "list recognised variables and their types")
		logPath     = flag.String("log", defaultLogPath, "log file path")
		varsPath    = flag.String("config", defaultVarsPath, "vars file path")
		watch       = flag.Bool("watch", true, "reconfigure when the vars file changes")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if *showVars {
		for name, typ := range varTypes() {
			fmt.Printf("%s\t%s\n", name, typ)
		}
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting skywatch", "version", version)

	// If skywatch has been built with the profile tag, then we'll start a CPU profile.
	if canProfile {
		profile(log)
		defer pprof.StopCPUProfile()
		log.Info("profiling started")
	}

	log.Debug("initialising pipeline")
	p, err := pipeline.New(config.Config{Logger: log})
	if err != nil {
		log.Fatal(pkg+"could not initialise pipeline", "error", err.Error())
	}

	err = configure(p, *varsPath, log)
	if err != nil {
		log.Fatal(pkg+"could not configure pipeline", "error", err.Error())
	}

	var events <-chan fsnotify.Event
	if *watch {
		w, err := watchVars(*varsPath)
		if err != nil {
			log.Fatal(pkg+"could not watch vars file", "error", err.Error())
		}
		defer w.Close()
		events = w.Events
		go func() {
			for err := range w.Errors {
				log.Warning(pkg+"vars watcher error", "error", err.Error())
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	notify(log, daemon.SdNotifyReady)
	run(p, *varsPath, events, sig, log)
	notify(log, daemon.SdNotifyStopping)
	if p.Running() {
		p.Stop()
	}
	log.Info("skywatch finished")
}

// run waits for the pipeline to finish, a signal, or a change to the vars
// file, in which case the pipeline is reconfigured and restarted.
func run(p *pipeline.Pipeline, path string, events <-chan fsnotify.Event, sig <-chan os.Signal, l logging.Logger) {
	for {
		// A pipeline left stopped by a failed reconfig waits for the next change.
		var done <-chan struct{}
		if p.Running() {
			done = p.Done()
		}

		select {
		case <-done:
			l.Info("pipeline finished")
			return

		case s := <-sig:
			l.Info("received signal, stopping", "signal", s.String())
			return

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !changed(ev, path) {
				continue
			}
			l.Info("vars file changed", "op", ev.Op.String())
			notify(l, daemon.SdNotifyReloading)
			err := configure(p, path, l)
			if err != nil {
				l.Error(pkg+"could not reconfigure pipeline", "error", err.Error())
				continue
			}
			notify(l, daemon.SdNotifyReady)
		}
	}
}

// configure updates the pipeline with the vars in the file at path and
// (re)starts it.
func configure(p *pipeline.Pipeline, path string, l logging.Logger) error {
	vars, err := readVars(path)
	if err != nil {
		return err
	}
	l.Debug("got vars", "vars", vars)

	err = p.Update(vars)
	if err != nil {
		return fmt.Errorf("could not update pipeline: %w", err)
	}

	err = p.Start()
	if err != nil {
		return fmt.Errorf("could not start pipeline: %w", err)
	}
	l.Info("pipeline started")
	return nil
}

// notify tells systemd of a state change. It is a no-op when not run as a
// notify service.
func notify(l logging.Logger, state string) {
	ok, err := daemon.SdNotify(false, state)
	if err != nil {
		l.Warning(pkg+"could not notify systemd", "state", state, "error", err.Error())
		return
	}
	if ok {
		l.Debug("notified systemd", "state", state)
	}
}

// profile opens a file to hold CPU profiling metrics and then starts the
// CPU profiler.
func profile(l logging.Logger) {
	f, err := os.Create(profilePath)
	if err != nil {
		l.Fatal(pkg+"could not create CPU profile", "error", err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		l.Fatal(pkg+"could not start CPU profile", "error", err.Error())
	}
}
