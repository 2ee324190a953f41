/*
DESCRIPTION
  vars_test.go provides testing for vars file parsing and change detection.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/skywatch/pipeline/config"
)

func TestReadVars(t *testing.T) {
	const vars = `
Input: file
InputPath: /data/flight.mjpeg
Loop: true
HistoryFrames: 8
MatchThreshold: 0.7
Outputs: [Log, SQLite]
`
	path := filepath.Join(t.TempDir(), "vars.yaml")
	err := os.WriteFile(path, []byte(vars), 0o644)
	if err != nil {
		t.Fatalf("could not write vars file: %v", err)
	}

	got, err := readVars(path)
	if err != nil {
		t.Fatalf("did not expect error: %v", err)
	}
	want := map[string]string{
		config.KeyInput:          "file",
		config.KeyInputPath:      "/data/flight.mjpeg",
		config.KeyLoop:           "true",
		config.KeyHistoryFrames:  "8",
		config.KeyMatchThreshold: "0.7",
		config.KeyOutputs:        "Log,SQLite",
	}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected vars.\nwant: %v\ngot: %v", want, got)
	}
}

func TestParseVarsBad(t *testing.T) {
	for _, in := range []string{"Input: [file", "Input:\n  nested: true\n"} {
		_, err := parseVars([]byte(in))
		if err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestChanged(t *testing.T) {
	const path = "/etc/skywatch/vars.yaml"
	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{ev: fsnotify.Event{Name: path, Op: fsnotify.Write}, want: true},
		{ev: fsnotify.Event{Name: path, Op: fsnotify.Create}, want: true},
		{ev: fsnotify.Event{Name: path, Op: fsnotify.Chmod}, want: false},
		{ev: fsnotify.Event{Name: "/etc/skywatch/other.yaml", Op: fsnotify.Write}, want: false},
	}
	for i, test := range tests {
		if got := changed(test.ev, path); got != test.want {
			t.Errorf("unexpected result for test %d.\nwant: %v\ngot: %v", i, test.want, got)
		}
	}
}

func TestVarTypes(t *testing.T) {
	m := varTypes()
	if len(m) != len(config.Variables) {
		t.Errorf("unexpected number of vars.\nwant: %d\ngot: %d", len(config.Variables), len(m))
	}
	if m[config.KeyHistoryFrames] != "uint" {
		t.Errorf("unexpected type for %s: %q", config.KeyHistoryFrames, m[config.KeyHistoryFrames])
	}
}
