package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watchFiles calls onChange once the given files stop changing for debounce. The parent
// directories are watched so editors that save by rename are still seen. Empty paths are
// ignored. The returned function stops the watcher.
func watchFiles(log logrus.FieldLogger, files []string, debounce time.Duration, onChange func()) (func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	done := make(chan struct{})
	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !targets[filepath.Clean(ev.Name)] {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				log.WithFields(logrus.Fields{"file": ev.Name, "op": ev.Op.String()}).Debug("watched file changed")
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, onChange)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")
			}
		}
	}()

	return func() error {
		close(done)
		return w.Close()
	}, nil
}
