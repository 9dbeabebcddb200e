// internal/state/watcher.go
package state

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/chathub/internal/workflow"
)

const defaultDebounce = 250 * time.Millisecond

// ApplyFunc receives the full set of custom workflows after each reload.
type ApplyFunc func(wfs []*workflow.Workflow)

// Watcher reloads the definitions file whenever it changes on disk. The
// parent directory is watched so editors that replace the file by rename
// are picked up too.
type Watcher struct {
	store    *DefinitionStore
	apply    ApplyFunc
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a watcher for store's file.
func NewWatcher(store *DefinitionStore, apply ApplyFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{store: store, apply: apply, debounce: defaultDebounce, fsw: fsw}, nil
}

// Reload reads the file once and hands the result to the apply func.
func (w *Watcher) Reload() error {
	wfs, errs, err := w.store.Workflows()
	if err != nil {
		return err
	}
	for _, e := range errs {
		slog.Warn("skipping workflow definition", "file", w.store.Path(), "error", e)
	}
	w.apply(wfs)
	return nil
}

// Run loads the file, then watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	dir := filepath.Dir(w.store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workflows dir: %w", err)
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if err := w.Reload(); err != nil {
		slog.Error("load workflows file", "file", w.store.Path(), "error", err)
	}

	name := filepath.Clean(w.store.Path())
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.Reload(); err != nil {
				slog.Error("reload workflows file", "file", w.store.Path(), "error", err)
				continue
			}
			slog.Info("workflows file reloaded", "file", w.store.Path())
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("fs watcher error", "error", err)
		}
	}
}
