/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	applog "galleria/internal/log"
	"galleria/internal/manifest"
)

// ManifestProvider yields the manifest document and its entity tag.
type ManifestProvider interface {
	Manifest(ctx context.Context) (data []byte, etag string, err error)
}

// SourceProvider reads a manifest.Source on every request and rejects
// documents that do not validate.
type SourceProvider struct {
	Source manifest.Source
}

func (p SourceProvider) Manifest(ctx context.Context) ([]byte, string, error) {
	data, err := p.Source.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	if _, err := manifest.Decode(data); err != nil {
		return nil, "", err
	}
	return data, digest(data), nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16])
}

// WatchedFile serves a manifest file from memory and reloads it when the file
// changes on disk. A reload that fails validation keeps the previous document.
type WatchedFile struct {
	path    string
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	data []byte
	etag string
	err  error
}

// NewWatchedFile loads path and starts watching its directory. Call Run to
// process change events and Close to release the watcher.
func NewWatchedFile(path string) (*WatchedFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch manifest: %w", err)
	}
	// editors replace files; watching the directory survives renames
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	f := &WatchedFile{path: abs, watcher: w}
	f.reload()
	return f, nil
}

func (f *WatchedFile) reload() bool {
	lg := applog.WithOperation(applog.WithComponent("server"), "manifest-reload")
	data, err := os.ReadFile(f.path)
	if err == nil {
		_, err = manifest.Decode(data)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		if f.data == nil {
			f.err = err
		}
		lg.Warn("manifest reload failed", slog.String("path", f.path), slog.Any("err", err))
		return false
	}
	f.data, f.etag, f.err = data, digest(data), nil
	lg.Info("manifest loaded", slog.String("path", f.path), slog.String("etag", f.etag))
	return true
}

func (f *WatchedFile) Manifest(context.Context) ([]byte, string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.data == nil {
		if f.err != nil {
			return nil, "", f.err
		}
		return nil, "", fmt.Errorf("manifest %s not loaded", f.path)
	}
	return f.data, f.etag, nil
}

// Run reloads on writes, creates and renames of the file until ctx ends.
// reloaded, when non-nil, receives the result of each reload.
func (f *WatchedFile) Run(ctx context.Context, reloaded func(ok bool)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			res := f.reload()
			if reloaded != nil {
				reloaded(res)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			applog.WithComponent("server").Warn("manifest watcher error", slog.Any("err", err))
		}
	}
}

// Close stops the watcher.
func (f *WatchedFile) Close() error { return f.watcher.Close() }
