// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"carvel.dev/ytpl/pkg/cmd/ui"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a render whenever one of the watched paths changes.
type Watcher struct {
	paths    []string
	ui       ui.UI
	Debounce time.Duration
}

func NewWatcher(paths []string, ui ui.UI) *Watcher {
	return &Watcher{paths: paths, ui: ui, Debounce: 100 * time.Millisecond}
}

// Run renders once and then after every batch of changes until interrupted.
func (w *Watcher) Run(renderFunc func() error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return w.RunWithContext(ctx, renderFunc)
}

func (w *Watcher) RunWithContext(ctx context.Context, renderFunc func() error) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	for _, path := range w.paths {
		err := w.watchRecursive(fsWatcher, path)
		if err != nil {
			return err
		}
	}

	w.render(renderFunc)

	// Debounce rapid changes: render once events settle
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.ui.Debugf("changed: %s\n", event.Name)

			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.watchRecursive(fsWatcher, event.Name)
				}
			}
			pending = time.After(w.Debounce)

		case <-pending:
			pending = nil
			w.render(renderFunc)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.ui.Warnf("Watcher error: %s\n", err)
		}
	}
}

func (w *Watcher) render(renderFunc func() error) {
	err := renderFunc()
	if err != nil {
		w.ui.Warnf("ytpl: Error: %s\n", err)
	}
}

func (w *Watcher) watchRecursive(fsWatcher *fsnotify.Watcher, root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		// editors often replace files, so watch the parent directory
		return fsWatcher.Add(filepath.Dir(root))
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return fsWatcher.Add(path)
		}
		return nil
	})
}
