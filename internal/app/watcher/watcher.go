package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"loglens/internal/config"
	"loglens/internal/config/logger"
)

// Watcher monitors the workspace for log file changes and schedules a
// regeneration after a debounced quiet period.
type Watcher interface {
	Start(ctx context.Context, onChange func(files []string)) error
	Close()
}

// watcher implements the Watcher interface
type watcher struct {
	cfg       *config.Config
	fsWatcher *fsnotify.Watcher
	matcher   Matcher
	debouncer Debouncer
	log       logger.Logger
	mu        sync.Mutex
	started   bool
	closed    bool
}

// NewWatcher creates a new Watcher instance
func NewWatcher(cfg *config.Config, log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	matcher, err := NewMatcher(cfg.Include, cfg.Ignore)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &watcher{
		cfg:       cfg,
		fsWatcher: fsw,
		matcher:   matcher,
		log:       log.WithComponent("WATCHER"),
	}, nil
}

// Start begins watching the workspace root recursively
func (w *watcher) Start(ctx context.Context, onChange func(files []string)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.closed {
		return nil
	}

	root, err := filepath.Abs(w.cfg.Workspace)
	if err != nil {
		return err
	}

	w.debouncer = NewDebouncer(w.cfg.Regen.Debounce, onChange)

	if err := w.addDirRecursive(root); err != nil {
		return err
	}

	w.started = true
	w.log.Info().Msgf("Watching workspace %s", root)

	go w.processEvents(ctx)

	return nil
}

// Close stops the watcher and releases resources
func (w *watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.closed = true

	if w.debouncer != nil {
		w.debouncer.Stop()
	}

	w.fsWatcher.Close()
}

// processEvents routes fsnotify events through the matcher and debouncer
func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

			w.log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// handleEvent reacts to a single filesystem event
func (w *watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.matcher.SkipDir(event.Name) {
				_ = w.fsWatcher.Add(event.Name)
			}

			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	if !w.matcher.Match(event.Name) {
		return
	}

	w.log.Debug().Msgf("Change detected: %s", event.Name)
	w.debouncer.Trigger(event.Name)
}

// addDirRecursive adds a directory tree to the fsnotify watch list,
// pruning ignored subtrees.
func (w *watcher) addDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Msgf("Skipping unreadable path: %s", path)
			return nil
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && w.matcher.SkipDir(path) {
			return filepath.SkipDir
		}

		return w.fsWatcher.Add(path)
	})
}
