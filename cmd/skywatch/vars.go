/*
DESCRIPTION
  vars.go provides reading and watching of the YAML vars file used to
  configure skywatch.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ausocean/skywatch/pipeline/config"
)

// readVars parses a YAML mapping of config variable names to values.
// Scalars of any type are accepted and passed on as strings.
func readVars(path string) (map[string]string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read vars file: %w", err)
	}
	return parseVars(buf)
}

func parseVars(buf []byte) (map[string]string, error) {
	var raw map[string]yaml.Node
	err := yaml.Unmarshal(buf, &raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse vars: %w", err)
	}
	vars := make(map[string]string, len(raw))
	for k, n := range raw {
		switch n.Kind {
		case yaml.ScalarNode:
			vars[k] = n.Value
		case yaml.SequenceNode:
			// Lists, such as Outputs, are joined the way they are written inline.
			elems := make([]string, len(n.Content))
			for i, e := range n.Content {
				elems[i] = e.Value
			}
			vars[k] = strings.Join(elems, ",")
		default:
			return nil, fmt.Errorf("var %s is not a scalar or list", k)
		}
	}
	return vars, nil
}

// varTypes returns the recognised variables and their types.
func varTypes() map[string]string {
	m := make(map[string]string)
	for _, v := range config.Variables {
		m[v.Name] = v.Type
	}
	return m
}

// watchVars watches the directory of the vars file so that files replaced
// by editors or config management are seen.
func watchVars(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = w.Add(filepath.Dir(path))
	if err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// changed reports whether ev changes the file at path.
func changed(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(path) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
