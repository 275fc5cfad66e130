package tui

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watcher reports changes to the store file, including its WAL, so the
// dashboard picks up quotas written by the background agent.
type Watcher struct {
	watcher *fsnotify.Watcher
	base    string
	changes chan struct{}
	stop    chan struct{}
	logger  *log.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher watches the directory holding path.
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Debug("closing watcher failed", "err", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		base:    filepath.Base(path),
		changes: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go w.loop()
	return w, nil
}

// Changes delivers at most one pending notification at a time.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(event.Name), w.base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Debug("store watcher error", "err", err)

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(watchDebounce, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.stop)
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
