/*
DESCRIPTION
  skyplot plots the tracks of a skywatch run from its region store.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package skyplot plots stored skywatch tracks.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/skywatch/store"
)

const (
	logVerbosity = logging.Info
	logSuppress  = false
)

func main() {
	var (
		dbPath = flag.String("db", "skywatch.db", "region store path")
		runID  = flag.String("run", "", "run id; defaults to the latest run")
		outDir = flag.String("out", ".", "directory for the plots")
		list   = flag.Bool("list", false, "list runs and exit")
	)
	flag.Parse()

	log := logging.New(logVerbosity, os.Stderr, logSuppress)

	s, err := store.Load(*dbPath, log)
	if err != nil {
		log.Fatal("could not open store", "error", err.Error())
	}
	defer s.Close()

	runs, err := s.Runs()
	if err != nil {
		log.Fatal("could not list runs", "error", err.Error())
	}
	if *list {
		for _, r := range runs {
			fmt.Println(r)
		}
		return
	}

	id := *runID
	if id == "" {
		if len(runs) == 0 {
			log.Fatal("no runs in store")
		}
		id = runs[len(runs)-1]
	}

	regions, err := s.Regions(id)
	if err != nil {
		log.Fatal("could not read regions", "run", id, "error", err.Error())
	}
	files, err := plotRun(regions, id, *outDir)
	if err != nil {
		log.Fatal("could not plot run", "run", id, "error", err.Error())
	}
	for _, f := range files {
		log.Info("wrote plot", "file", f)
	}
}
