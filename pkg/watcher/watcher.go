/*
Copyright 2022 The KServe Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package watcher re-validates a model whenever its export directory
// receives a new version.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/syncmap"
)

// Event is emitted once per newly exported model version.
type Event struct {
	ModelName string
	Version   int64
	// Path is the version directory, e.g. <modelDir>/3
	Path string
}

// Watcher observes a versioned model export directory, where every numeric
// subdirectory is one exported model version.
type Watcher struct {
	ModelDir  string
	ModelName string
	Events    chan Event
	Logger    *zap.SugaredLogger

	seen *syncmap.Map
}

func NewWatcher(modelDir string, modelName string, logger *zap.SugaredLogger) *Watcher {
	return &Watcher{
		ModelDir:  modelDir,
		ModelName: modelName,
		Events:    make(chan Event, 16),
		Logger:    logger,
		seen:      &syncmap.Map{},
	}
}

// Start emits an event for the newest version already present, then blocks
// watching for new ones until the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer notifier.Close()
	if err := notifier.Add(w.ModelDir); err != nil {
		return err
	}

	if version, path, ok := latestVersion(w.ModelDir); ok {
		w.emit(version, path)
	}

	for {
		select {
		case <-ctx.Done():
			close(w.Events)
			return nil
		case event, ok := <-notifier.Events:
			if !ok {
				close(w.Events)
				return nil
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			version, err := strconv.ParseInt(filepath.Base(path), 10, 64)
			if err != nil {
				continue
			}
			if info, err := os.Stat(path); err != nil || !info.IsDir() {
				continue
			}
			w.emit(version, path)
		case err, ok := <-notifier.Errors:
			if !ok {
				close(w.Events)
				return nil
			}
			w.Logger.Errorw("watch error", "modelDir", w.ModelDir, "error", err)
		}
	}
}

func (w *Watcher) emit(version int64, path string) {
	if _, loaded := w.seen.LoadOrStore(version, struct{}{}); loaded {
		return
	}
	w.Logger.Infow("new model version", "modelName", w.ModelName, "version", version, "path", path)
	w.Events <- Event{ModelName: w.ModelName, Version: version, Path: path}
}

// latestVersion finds the highest numeric subdirectory.
func latestVersion(modelDir string) (int64, string, bool) {
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return 0, "", false
	}
	var best int64
	var bestPath string
	found := false
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		version, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}
		if !found || version > best {
			best = version
			bestPath = filepath.Join(modelDir, entry.Name())
			found = true
		}
	}
	return best, bestPath, found
}
