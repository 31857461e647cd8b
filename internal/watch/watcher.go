// Package watch turns filesystem notifications under the Claude data
// directory into cache invalidations and change events.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Invalidator drops cached data derived from changed files
type Invalidator interface {
	InvalidateSession(sessionID string)
	InvalidateAll()
}

// Config holds watcher configuration
type Config struct {
	Root        string
	Debounce    time.Duration
	Invalidator Invalidator
	Hub         *Hub
	Logger      *logrus.Logger
}

// Watcher monitors the data directory recursively. Changes are batched for
// Debounce; a batch touching only session logs invalidates those sessions,
// anything else invalidates the whole cache.
type Watcher struct {
	watcher *fsnotify.Watcher
	cfg     Config

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher; Start begins delivering events
func New(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Hub == nil {
		cfg.Hub = NewHub()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Watcher{
		watcher: fsWatcher,
		cfg:     cfg,
		pending: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Hub returns the hub change events are published on
func (w *Watcher) Hub() *Hub {
	return w.cfg.Hub
}

// Start watches Root and its subdirectories until ctx ends or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.cfg.Root); err != nil {
		return fmt.Errorf("failed to add directories: %w", err)
	}

	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.processEvents(ctx)

	w.cfg.Logger.Infof("Started watching %s", w.cfg.Root)
	return nil
}

// Stop stops the watcher. A batch still waiting for its debounce is dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()

		w.mu.Lock()
		started := w.started
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		if started {
			<-w.doneCh
		}
	})
	return err
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.cfg.Logger.Warnf("Failed to watch %s: %v", path, err)
		} else {
			w.cfg.Logger.Debugf("Watching directory: %s", path)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Errorf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.cfg.Logger.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.cfg.Debounce, w.flush)
	} else {
		w.timer.Reset(w.cfg.Debounce)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.cfg.Hub.Publish(w.apply(paths))
}

// apply invalidates the cache for a batch of changed paths and describes it
func (w *Watcher) apply(paths []string) Event {
	event := Event{
		Type:      EventFileChanged,
		Paths:     paths,
		Timestamp: time.Now().UTC(),
	}
	for _, p := range paths {
		if strings.HasSuffix(p, ".jsonl") {
			id := strings.TrimSuffix(filepath.Base(p), ".jsonl")
			event.SessionIDs = append(event.SessionIDs, id)
			continue
		}
		event.Full = true
	}

	if w.cfg.Invalidator != nil {
		if event.Full {
			w.cfg.Invalidator.InvalidateAll()
		} else {
			for _, id := range event.SessionIDs {
				w.cfg.Invalidator.InvalidateSession(id)
			}
		}
	}
	w.cfg.Logger.WithFields(logrus.Fields{
		"paths": len(paths),
		"full":  event.Full,
	}).Debug("file change batch")
	return event
}
