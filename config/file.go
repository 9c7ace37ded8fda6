/*
DESCRIPTION
  file.go provides loading of configuration variables from a file and
  watching of that file for changes.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/


package config

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/fsnotify/fsnotify"
)

// Used to indicate package in logging.
const pkg = "config: "

// Parse reads variables from r, one Name=Value pair per line. Blank lines and
// lines starting with # are ignored.
func Parse(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		k, v, ok := strings.Cut(l, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected Name=Value, got %q", n, l)
		}
		vars[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("could not read variables: %w", err)
	}
	return vars, nil
}

// Load reads variables from the file at path.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()
	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vars, nil
}

// Watch calls fn with the variables in the file at path each time the file
// is written or replaced, until ctx is done. The containing directory is
// watched so that files replaced by editors are followed. Files that fail to
// load are logged and skipped.
func Watch(ctx context.Context, path string, l logging.Logger, fn func(map[string]string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	err = w.Add(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("could not watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			vars, err := Load(path)
			if err != nil {
				l.Warning(pkg+"could not reload config", "error", err.Error())
				continue
			}
			l.Info(pkg+"config reloaded", "path", path)
			fn(vars)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warning(pkg+"watcher error", "error", err.Error())
		}
	}
}
