package manifest

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/gearshift/internal/errors"
	"github.com/Iron-Ham/gearshift/internal/logging"
)

// debounceInterval is how long the watcher waits after the last filesystem
// event before re-loading. Editors commonly emit several events per save.
const debounceInterval = 100 * time.Millisecond

// Watcher watches a manifest file and invokes a callback with the
// re-loaded manifest once changes settle. Reload failures are logged and
// skipped; the previous manifest stays in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	onChange func(*Manifest)

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewWatcher creates a Watcher for the given manifest path. The parent
// directory is watched rather than the file itself: editors replace files
// on save, which would silently drop a file-level watch.
func NewWatcher(path string, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "creating manifest watcher")
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watching manifest directory")
	}

	return &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		logger:  logger.WithComponent("manifest"),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// OnChange sets the callback invoked with each successfully re-loaded
// manifest. Must be set before Start.
func (w *Watcher) OnChange(cb func(*Manifest)) {
	w.onChange = cb
}

// Start begins watching for manifest changes. Calling Start on a running
// watcher is a no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.watchLoop()
}

// Stop stops the watcher and cleans up resources. Safe to call more than
// once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	select {
	case <-w.stopCh:
		w.mu.Unlock()
		return
	default:
	}
	close(w.stopCh)
	started := w.started
	w.mu.Unlock()

	_ = w.watcher.Close()
	if started {
		<-w.done
	}
}

// watchLoop processes filesystem events with debouncing.
func (w *Watcher) watchLoop() {
	defer close(w.done)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about write/create operations on our file.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			debounceTimer.Reset(debounceInterval)

		case <-debounceTimer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("manifest watch error", "error", err.Error())
		}
	}
}

// reload loads the manifest and hands it to the callback. A manifest that
// fails to load leaves the callback uncalled.
func (w *Watcher) reload() {
	m, err := Load(w.path)
	if err != nil {
		w.logger.Warn("manifest reload failed", "path", w.path, "error", err.Error())
		return
	}

	w.logger.Info("manifest reloaded", "path", w.path, "tasks", len(m.Tasks))
	if w.onChange != nil {
		w.onChange(m)
	}
}
