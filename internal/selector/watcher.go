package selector

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"dashweave/internal/logging"
)

// Watcher reloads a template Store when its directory changes, so
// template edits take effect without a restart.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	store    *Store
	debounce time.Duration
	dirty    time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher over the store's directory.
func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		store:    store,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.store.dir); err != nil {
		return err
	}
	logging.Selector("Watching template directory: %s", w.store.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.SelectorDebug("Error closing template watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

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
			logging.SelectorDebug("Template watcher error: %v", err)

		case <-ticker.C:
			w.maybeReload()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.SelectorDebug("Template change detected: %s", event.Name)
	w.mu.Lock()
	w.dirty = time.Now()
	w.mu.Unlock()
}

// maybeReload reloads once events have settled past the debounce
// window, batching rapid saves into one reload.
func (w *Watcher) maybeReload() {
	w.mu.Lock()
	pending := !w.dirty.IsZero() && time.Since(w.dirty) >= w.debounce
	if pending {
		w.dirty = time.Time{}
	}
	w.mu.Unlock()

	if !pending {
		return
	}
	if err := w.store.Reload(); err != nil {
		logging.Selector("Template reload failed, keeping previous registry: %v", err)
		return
	}
	logging.Selector("Templates reloaded (%d)", w.store.Count())
}
