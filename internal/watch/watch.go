// Package watch watches the definitions directory and triggers a reload when
// definition files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slok/questline/internal/log"
)

// Reloader is called with the debounced changes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc is a helper to create reloaders from functions.
type ReloaderFunc func(ctx context.Context) error

// Reload satisfies Reloader.
func (r ReloaderFunc) Reload(ctx context.Context) error { return r(ctx) }

// WatcherConfig is the configuration of the definitions watcher.
type WatcherConfig struct {
	Dir      string
	Reloader Reloader
	// Debounce is the quiet time after the last change before reloading.
	Debounce   time.Duration
	Extensions []string
	Logger     log.Logger
}

func (c *WatcherConfig) defaults() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if c.Reloader == nil {
		return fmt.Errorf("reloader is required")
	}
	if c.Debounce <= 0 {
		c.Debounce = 500 * time.Millisecond
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".yaml", ".yml"}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "watch.Watcher"})
	return nil
}

// Watcher reloads definitions when files under a directory change.
type Watcher struct {
	cfg        WatcherConfig
	logger     log.Logger
	extensions map[string]bool
}

// NewWatcher returns a new definitions watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	exts := map[string]bool{}
	for _, e := range cfg.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[strings.ToLower(e)] = true
	}

	return &Watcher{
		cfg:        cfg,
		logger:     cfg.Logger,
		extensions: exts,
	}, nil
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.cfg.Dir); err != nil {
		return fmt.Errorf("could not watch %s: %w", w.cfg.Dir, err)
	}
	w.logger.Infof("Watching definitions at %s", w.cfg.Dir)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()
	pending := 0

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(fsw, event) {
				continue
			}
			pending++
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("Watcher error: %s", err)

		case <-timer.C:
			w.logger.Infof("Reloading definitions after %d changes", pending)
			pending = 0
			if err := w.cfg.Reloader.Reload(ctx); err != nil {
				w.logger.Errorf("Could not reload definitions: %s", err)
			}
		}
	}
}

// handleEvent returns true if the event changes a definition file.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fsw, event.Name); err != nil {
				w.logger.Warningf("Could not watch new directory %s: %s", event.Name, err)
			}
			return false
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return false
	}

	w.logger.Debugf("Definition change detected: %s (%s)", event.Name, event.Op)
	return true
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return err
		}
		w.logger.Debugf("Watching directory %s", path)
		return nil
	})
}
