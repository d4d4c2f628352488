// Package watch re-runs a batch when its source directory changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/policyledger/fedledger/internal/logger"
)

// DefaultDebounce is how long the directory must stay quiet before a re-run.
const DefaultDebounce = 2 * time.Second

// manifestFile always triggers a re-run, whatever the pattern.
const manifestFile = "manifest.yaml"

// Config describes what to watch.
type Config struct {
	Dir string

	// Pattern limits which file names count as changes. Empty matches all.
	Pattern string

	Debounce time.Duration
	Log      *logger.Logger
}

// Watcher triggers a callback after bursts of file changes settle.
type Watcher struct {
	cfg Config
}

// New creates a watcher.
func New(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}
	return &Watcher{cfg: cfg}
}

// Run blocks until ctx is done, calling trigger once per settled burst of
// creates, writes or renames. A trigger error is logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context, trigger func(context.Context) error) error {
	info, err := os.Stat(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", w.cfg.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close() //nolint:errcheck // nothing to do on close failure

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	w.cfg.Log.Info("watching source directory",
		logger.String("dir", w.cfg.Dir),
		logger.Duration("debounce", w.cfg.Debounce))

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.cfg.Log.Debug("source changed",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.cfg.Log.Warn("watch error", logger.Err(err))

		case <-timer.C:
			if err := trigger(ctx); err != nil {
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				w.cfg.Log.Error("re-run failed", logger.Err(err))
			}
		}
	}
}

// relevant reports whether an event should schedule a re-run.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return false
	}
	if name == manifestFile || w.cfg.Pattern == "" {
		return true
	}
	matched, err := filepath.Match(w.cfg.Pattern, name)
	return err == nil && matched
}
